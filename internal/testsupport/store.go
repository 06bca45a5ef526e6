package testsupport

import (
	"path/filepath"
	"testing"

	"animeharvest/internal/anime"
	"animeharvest/pkg/database"
)

// MustOpenRepo opens a migrated sqlite store in a temp dir and registers cleanup.
func MustOpenRepo(t testing.TB) *anime.Repo {
	t.Helper()

	cfg := database.Config{DSN: filepath.Join(t.TempDir(), "dataset.db")}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.Migrate(db, cfg.Dialect()); err != nil {
		t.Fatalf("database.Migrate: %v", err)
	}
	return anime.NewRepo(db, cfg.Dialect())
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
