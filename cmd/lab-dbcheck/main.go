package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"httplab/internal/server"
	"httplab/internal/shared"
)

// lab-dbcheck prints what the configured resource store currently holds.
func main() {
	configPath := flag.String("config", "", "path to server config json (optional)")
	root := flag.String("root", "", "served root directory, overrides config")
	flag.Parse()

	cfg, err := shared.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *root != "" {
		cfg.Root = *root
	}
	if err := cfg.Normalize(); err != nil {
		log.Fatalf("config: %v", err)
	}

	var persister server.Persister
	var snapshots *server.SQLitePersister
	switch cfg.StoreBackend {
	case shared.BackendSQLite:
		db, err := server.OpenDB(cfg.StorePath, nil)
		if err != nil {
			log.Fatalf("OpenDB failed: %v", err)
		}
		defer db.Close()
		snapshots = server.NewSQLitePersister(db)
		persister = snapshots
	default:
		persister = &server.FilePersister{Path: cfg.StorePath}
	}

	doc, err := persister.Load()
	if err != nil {
		log.Fatalf("load failed: %v", err)
	}

	fmt.Printf("Store: %s (%s)\n", cfg.StorePath, cfg.StoreBackend)
	if err := doc.Validate(); err != nil {
		fmt.Println("INVALID:", err)
	}

	cats := make([]string, 0, len(doc))
	for cat := range doc {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	fmt.Println("Categories:")
	for _, cat := range cats {
		var max int64
		for _, r := range doc[cat] {
			if id, ok := r.ID(); ok && id > max {
				max = id
			}
		}
		fmt.Printf(" - %s: %d resources, max id %d\n", cat, len(doc[cat]), max)
	}

	if snapshots != nil {
		n, err := snapshots.Count()
		if err != nil {
			log.Fatalf("count failed: %v", err)
		}
		fmt.Println("Snapshots:", n)
		if latest, err := snapshots.Latest(); err == nil && latest != nil {
			fmt.Printf("Latest: %s at %s\n", latest.ID, latest.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}
}
