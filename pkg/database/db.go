package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Config points at the dataset store. DSN is either a sqlite file path or a
// postgres:// URL.
type Config struct {
	DSN string
}

func DefaultConfig() Config {
	if p := os.Getenv("ANIMEHARVEST_DB_PATH"); p != "" {
		return Config{DSN: p}
	}

	// local default: ~/.animeharvest/dataset.db
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		DSN: filepath.Join(home, ".animeharvest", "dataset.db"),
	}
}

// Dialect captures the few places where sqlite and postgres SQL differ.
type Dialect struct {
	Name   string
	Driver string
}

var (
	SQLite   = Dialect{Name: "sqlite", Driver: "sqlite3"}
	Postgres = Dialect{Name: "postgres", Driver: "pgx"}
)

func (c Config) Dialect() Dialect {
	dsn := strings.ToLower(strings.TrimSpace(c.DSN))
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// LockPath is the file used to keep two harvests off the same store.
func (c Config) LockPath() string {
	if c.Dialect() == SQLite {
		return c.DSN + ".lock"
	}
	return filepath.Join(os.TempDir(), "animeharvest.lock")
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func EnsureDataDir(cfg Config) error {
	if cfg.Dialect() != SQLite {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.DSN), 0o755)
}

func Open(cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("open store: empty dsn")
	}
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	dialect := cfg.Dialect()
	db, err := sql.Open(dialect.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name, err)
	}

	if dialect == SQLite {
		// one connection for the whole run
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma journal_mode: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect.Name, err)
	}

	return db, nil
}

func MustOpen(cfg Config) *sql.DB {
	db, err := Open(cfg)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	return db
}
