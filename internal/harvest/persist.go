package harvest

import (
	"context"
	"fmt"

	"animeharvest/internal/anime"
	"animeharvest/pkg/models"
)

// Appender is the write side of the store.
type Appender interface {
	Append(ctx context.Context, records []models.Anime) error
}

// PersistError reports a failed store append. When FallbackErr is nil the
// records are safe in FallbackPath.
type PersistError struct {
	Err          error
	FallbackPath string
	FallbackErr  error
}

func (e *PersistError) Error() string {
	if e.FallbackErr != nil {
		return fmt.Sprintf("append failed: %v; fallback %s also failed: %v", e.Err, e.FallbackPath, e.FallbackErr)
	}
	return fmt.Sprintf("append failed: %v; records saved to %s", e.Err, e.FallbackPath)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Recovered reports whether the fallback file holds the records.
func (e *PersistError) Recovered() bool { return e.FallbackErr == nil }

// Persist appends records to the store. If the append fails the full set is
// written to fallbackPath as CSV and a *PersistError is returned. The store
// write is never retried.
func Persist(ctx context.Context, store Appender, records []models.Anime, fallbackPath string) error {
	if len(records) == 0 {
		return nil
	}

	err := store.Append(ctx, records)
	if err == nil {
		return nil
	}

	return &PersistError{
		Err:          err,
		FallbackPath: fallbackPath,
		FallbackErr:  anime.WriteCSVFile(fallbackPath, records),
	}
}
