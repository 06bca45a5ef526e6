package main

import (
	"context"
	"flag"
	"log"
	"time"

	"animeharvest/internal/anime"
	"animeharvest/pkg/database"
)

func main() {
	var (
		dsn    = flag.String("db", database.DefaultConfig().DSN, "dataset store: sqlite path or postgres:// URL")
		outCSV = flag.String("out", "data/animes.csv", "output CSV path")
		limit  = flag.Int("limit", 0, "export at most this many rows (0 = all)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := database.Config{DSN: *dsn}
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db, cfg.Dialect()); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	records, err := anime.NewRepo(db, cfg.Dialect()).All(ctx, *limit)
	if err != nil {
		log.Fatalf("read animes failed: %v", err)
	}
	if err := anime.WriteCSVFile(*outCSV, records); err != nil {
		log.Fatalf("export animes failed: %v", err)
	}

	log.Printf("exported %d animes to %s", len(records), *outCSV)
}
