package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"httplab/internal/client"
	"httplab/internal/shared"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: lab-client [flags] METHOD PATH\n       lab-client [-config f] [-server url] -init-config\n\n")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "./client.json", "path to client config json")
	serverURL := flag.String("server", "", "server base URL, overrides config")
	data := flag.String("data", "", "request body")
	file := flag.String("file", "", "read the request body from this file")
	contentType := flag.String("type", "", "Content-Type of the request body")
	out := flag.String("o", "", "write the response body to this file")
	save := flag.Bool("save", false, "save the response body under the download dir")
	ims := flag.String("if-modified-since", "", "If-Modified-Since header value")
	verbose := flag.Bool("v", false, "print status line and headers to stderr")
	initConfig := flag.Bool("init-config", false, "write the effective client config to -config and exit")
	flag.Usage = usage
	flag.Parse()

	cfg, err := shared.LoadClientConfig(*configPath)
	if err != nil {
		log.Fatalf("lab-client: config: %v", err)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}

	if *initConfig {
		if err := shared.SaveClientConfig(*configPath, cfg); err != nil {
			log.Fatalf("lab-client: save config: %v", err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s (server %s)\n", *configPath, cfg.ServerURL)
		return
	}

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}
	method, path := flag.Arg(0), flag.Arg(1)

	var body []byte
	switch {
	case *file != "" && *data != "":
		log.Fatal("lab-client: -data and -file are exclusive")
	case *file != "":
		body, err = os.ReadFile(*file)
		if err != nil {
			log.Fatalf("lab-client: %v", err)
		}
	case *data != "":
		body = []byte(*data)
	}

	c := client.New(cfg)
	res, err := c.Do(context.Background(), client.Request{
		Method:          method,
		Path:            path,
		Body:            body,
		ContentType:     *contentType,
		IfModifiedSince: *ims,
	})
	if err != nil {
		log.Fatalf("lab-client: %s %s: %v", method, path, err)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "%d\n", res.Status)
		keys := make([]string, 0, len(res.Header))
		for k := range res.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(os.Stderr, "%s: %s\n", k, res.Header.Get(k))
		}
		fmt.Fprintln(os.Stderr)
	}

	dst := *out
	if dst == "" && *save {
		dst = c.DownloadPath(path)
	}
	if dst != "" {
		if err := res.SaveBody(dst); err != nil {
			log.Fatalf("lab-client: save %s: %v", dst, err)
		}
		fmt.Fprintf(os.Stderr, "%d: saved %d bytes to %s\n", res.Status, len(res.Body), dst)
	} else {
		os.Stdout.Write(res.Body)
		if len(res.Body) > 0 && res.Body[len(res.Body)-1] != '\n' {
			fmt.Println()
		}
	}

	if res.Status >= 400 {
		os.Exit(1)
	}
}
