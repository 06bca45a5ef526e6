// Package catalog provides candidate sources for a harvest run.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"animeharvest/pkg/models"
)

// Lister enumerates the candidates of one season. Implementations are best
// effort and may return fewer items than the season really has.
type Lister interface {
	ListSeason(ctx context.Context, season string, year int) ([]models.Candidate, error)
}

// CSVLister reads candidates from a seasonal dump with IDx and Title
// columns. Season and year are ignored; the file is the season.
type CSVLister struct {
	Path string
}

func NewCSVLister(path string) *CSVLister {
	return &CSVLister{Path: path}
}

func (l *CSVLister) ListSeason(_ context.Context, _ string, _ int) ([]models.Candidate, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open candidates: %w", err)
	}
	defer f.Close()

	return ReadCandidates(f)
}

// ReadCandidates parses an IDx,Title CSV. Rows with a missing or
// non-positive id are skipped.
func ReadCandidates(r io.Reader) ([]models.Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(head))
	for idx, name := range head {
		header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = idx
	}
	if _, ok := header["idx"]; !ok {
		return nil, fmt.Errorf("read header: missing IDx column")
	}

	var out []models.Candidate
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		id, err := strconv.Atoi(valueAt(header, row, "idx"))
		if err != nil || id <= 0 {
			continue
		}
		out = append(out, models.Candidate{ID: id, Title: valueAt(header, row, "title")})
	}
	return out, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
