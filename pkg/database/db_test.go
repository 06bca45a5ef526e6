package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect(t *testing.T) {
	assert.Equal(t, SQLite, Config{DSN: "/data/dataset.db"}.Dialect())
	assert.Equal(t, Postgres, Config{DSN: "postgres://user@localhost/anime"}.Dialect())
	assert.Equal(t, Postgres, Config{DSN: " PostgreSQL://localhost/anime"}.Dialect())
}

func TestRebind(t *testing.T) {
	q := `INSERT INTO "Animes" ("Anime_ID", "Title") VALUES (?, ?)`
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, `INSERT INTO "Animes" ("Anime_ID", "Title") VALUES ($1, $2)`, Postgres.Rebind(q))
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, "/data/dataset.db.lock", Config{DSN: "/data/dataset.db"}.LockPath())
	assert.Equal(t, "animeharvest.lock", filepath.Base(Config{DSN: "postgres://localhost/anime"}.LockPath()))
}

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("ANIMEHARVEST_DB_PATH", "/srv/anime.db")
	assert.Equal(t, "/srv/anime.db", DefaultConfig().DSN)
}

func TestOpenAndMigrate(t *testing.T) {
	cfg := Config{DSN: filepath.Join(t.TempDir(), "nested", "dataset.db")}
	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db, cfg.Dialect()))
	// migrations are idempotent
	require.NoError(t, Migrate(db, cfg.Dialect()))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "Animes"`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "Harvest_Runs"`).Scan(&n))
	assert.Zero(t, n)
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
