package anime

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"animeharvest/pkg/models"
)

// WriteCSV writes records with the Animes header. Missing numbers are
// written as empty cells.
func WriteCSV(w io.Writer, records []models.Anime) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, a := range records {
		if err := cw.Write([]string{
			strconv.Itoa(a.ID),
			a.Title,
			a.Synopsis,
			itoaOrEmpty(a.Episodes),
			a.Premiered,
			a.Genre,
			a.Rating,
			ftoaOrEmpty(a.Score),
			itoaOrEmpty(a.ScoredBy),
			itoaOrEmpty(a.Rank),
			itoaOrEmpty(a.Popularity),
			itoaOrEmpty(a.Members),
			itoaOrEmpty(a.Favorites),
			a.ImageURL,
			a.CleanTitle,
			a.CleanSynopsis,
			a.CleanGenre,
			a.CleanRating,
			a.Language,
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes records to path, creating parent directories.
func WriteCSVFile(path string, records []models.Anime) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadCSV parses a file produced by WriteCSV (or any CSV using the Animes
// column names, in any order). Rows without an id or title are skipped.
func ReadCSV(r io.Reader) ([]models.Anime, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	var out []models.Anime
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		idRaw := valueAt(header, row, "anime_id")
		title := valueAt(header, row, "title")
		if idRaw == "" || title == "" {
			continue
		}
		id, err := strconv.Atoi(idRaw)
		if err != nil {
			return nil, fmt.Errorf("parse Anime_ID %q: %w", idRaw, err)
		}

		a := models.Anime{
			ID:            id,
			Title:         title,
			Synopsis:      valueAt(header, row, "synopsis"),
			Premiered:     valueAt(header, row, "premiered"),
			Genre:         valueAt(header, row, "genre"),
			Rating:        valueAt(header, row, "rating"),
			ImageURL:      valueAt(header, row, "image_url"),
			CleanTitle:    valueAt(header, row, "ctitle"),
			CleanSynopsis: valueAt(header, row, "csynopsis"),
			CleanGenre:    valueAt(header, row, "cgenre"),
			CleanRating:   valueAt(header, row, "crating"),
			Language:      valueAt(header, row, "clanguage"),
		}

		ints := []struct {
			col string
			dst **int
		}{
			{"episodes", &a.Episodes},
			{"scored_by", &a.ScoredBy},
			{"rank", &a.Rank},
			{"popularity", &a.Popularity},
			{"members", &a.Members},
			{"favorites", &a.Favorites},
		}
		for _, f := range ints {
			v, err := parseOptionalInt(valueAt(header, row, f.col))
			if err != nil {
				return nil, fmt.Errorf("parse %s for %d: %w", f.col, id, err)
			}
			*f.dst = v
		}

		score, err := parseOptionalFloat(valueAt(header, row, "score"))
		if err != nil {
			return nil, fmt.Errorf("parse score for %d: %w", id, err)
		}
		a.Score = score

		out = append(out, a)
	}
	return out, nil
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func itoaOrEmpty(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func ftoaOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func parseOptionalInt(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	// pandas writes nullable integer columns as floats ("12.0")
	raw = strings.TrimSuffix(raw, ".0")
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseOptionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
