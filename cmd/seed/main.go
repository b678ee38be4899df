// Package main provides a tool to seed the category store with the default
// subject tree. It is a no-op when the store already holds categories.
//
// Usage:
//
//	go run ./cmd/seed
//	go run ./cmd/seed --store-backend=sqlite --data-path=~/QuestBank/data
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/questbank/questbank-server/internal/config"
	"github.com/questbank/questbank-server/internal/seed"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/store/sqlite"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	var st store.NodeStore
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		dbPath := filepath.Join(cfg.Store.DataPath, "categories.db")
		fmt.Printf("Opening sqlite store at: %s\n", dbPath)
		st, err = sqlite.Open(dbPath, nil)
	default:
		dbPath := filepath.Join(cfg.Store.DataPath, "db")
		fmt.Printf("Opening badger store at: %s\n", dbPath)
		st, err = store.OpenBadger(dbPath, nil)
	}
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	count, err := seed.Load(context.Background(), st, nil)
	if err != nil {
		log.Fatalf("Failed to seed categories: %v", err)
	}

	if count == 0 {
		fmt.Println("Store already contains categories, nothing to do")
		return
	}

	fmt.Printf("Seeded %d categories\n", count)
}
