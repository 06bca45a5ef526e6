package main

import (
	"context"
	"flag"
	"log"
	"time"

	"animeharvest/internal/anime"
	"animeharvest/internal/mirror"
	"animeharvest/pkg/database"
)

func main() {
	var (
		dsn     = flag.String("db", database.DefaultConfig().DSN, "dataset store: sqlite path or postgres:// URL")
		outPath = flag.String("out", "data/mirror.json", "output JSON path")
		limit   = flag.Int("limit", 0, "how many animes to export (0 = all)")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := database.Config{DSN: *dsn}
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db, cfg.Dialect()); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	records, err := anime.NewRepo(db, cfg.Dialect()).All(ctx, *limit)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	ds := mirror.FromRecords(records)
	if err := mirror.Save(*outPath, ds); err != nil {
		log.Fatalf("write failed: %v", err)
	}

	log.Printf("exported %d animes in %d seasons to %s", len(ds.Anime), len(ds.Seasons), *outPath)
}
