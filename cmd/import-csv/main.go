package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"animeharvest/internal/anime"
	"animeharvest/pkg/database"
)

// import-csv loads a fallback file (or any CSV with the Animes columns) into
// the store. Ids already stored are skipped, so replaying a fallback file is
// safe.
func main() {
	var (
		dsn   = flag.String("db", database.DefaultConfig().DSN, "dataset store: sqlite path or postgres:// URL")
		inCSV = flag.String("in", "fetched_animes.csv", "input CSV path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	f, err := os.Open(*inCSV)
	if err != nil {
		log.Fatalf("open %s failed: %v", *inCSV, err)
	}
	defer f.Close()

	records, err := anime.ReadCSV(f)
	if err != nil {
		log.Fatalf("parse %s failed: %v", *inCSV, err)
	}

	cfg := database.Config{DSN: *dsn}
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db, cfg.Dialect()); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	n, err := anime.NewRepo(db, cfg.Dialect()).AppendNew(ctx, records)
	if err != nil {
		log.Fatalf("import animes failed: %v", err)
	}

	log.Printf("imported %d of %d animes from %s", n, len(records), *inCSV)
}
