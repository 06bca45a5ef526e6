package database

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Migrate creates the Animes and Harvest_Runs tables when missing.
// Existing tables are left untouched.
func Migrate(db *sql.DB, d Dialect) error {
	schema := sqliteSchema
	if d == Postgres {
		schema = postgresSchema
	}

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", d.Name, err)
	}
	return nil
}
