package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"httplab/internal/server"
	"httplab/internal/shared"
	"httplab/internal/wire"
)

func main() {
	configPath := flag.String("config", "", "path to server config json (optional)")
	listen := flag.String("listen", "", "listen address, overrides config")
	root := flag.String("root", "", "served root directory, overrides config")
	backend := flag.String("store", "", "resource store backend: json or sqlite")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := shared.LoadServerConfig(*configPath)
	if err != nil {
		logger.Fatalf("lab-server: config: %v", err)
	}
	if *listen != "" {
		cfg.Addr = *listen
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *backend != "" {
		cfg.StoreBackend = *backend
	}
	if err := cfg.Normalize(); err != nil {
		logger.Fatalf("lab-server: config: %v", err)
	}

	var persister server.Persister
	switch cfg.StoreBackend {
	case shared.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0755); err != nil {
			logger.Fatalf("lab-server: create db dir: %v", err)
		}
		db, err := server.OpenDB(cfg.StorePath, logger)
		if err != nil {
			logger.Fatalf("lab-server: open db %s: %v", cfg.StorePath, err)
		}
		defer db.Close()
		persister = server.NewSQLitePersister(db)
	default:
		persister = &server.FilePersister{Path: cfg.StorePath}
	}

	store, err := server.OpenResourceStore(persister)
	if err != nil {
		logger.Fatalf("lab-server: load resources from %s: %v", cfg.StorePath, err)
	}

	var reqlog *server.RequestLog
	if cfg.RequestLog != "-" {
		reqlog, err = server.OpenRequestLog(cfg.RequestLog)
		if err != nil {
			logger.Fatalf("lab-server: request log: %v", err)
		}
		defer reqlog.Close()
	}

	srv, err := server.New(store, server.Options{
		Addr:            cfg.Addr,
		Root:            cfg.Root,
		Reserved:        cfg.Reserved,
		ResourcesPrefix: cfg.ResourcesPrefix,
		Limits: wire.Limits{
			MaxHeaderBytes: cfg.MaxHeaderBytes,
			MaxBodyBytes:   cfg.MaxBodyBytes,
		},
		MaxConns:    cfg.MaxConns,
		ReadTimeout: time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		Logger:      logger,
		RequestLog:  reqlog,
	})
	if err != nil {
		logger.Fatalf("lab-server: %v", err)
	}
	logger.Printf("lab-server: store %s (%s)", cfg.StorePath, cfg.StoreBackend)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			logger.Printf("lab-server: %v", err)
		}
		return
	case sig := <-signals:
		logger.Printf("lab-server: received signal %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("lab-server: graceful shutdown error: %v", err)
	}
	logger.Printf("lab-server: stopped")
}
