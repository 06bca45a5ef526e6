// Package mirror builds and serves a local copy of the catalog endpoints from
// the dataset store, so a harvest can run offline.
package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"animeharvest/pkg/models"
)

// Dataset is the mirror file: season listings keyed "year/season" and
// detail payloads keyed by id.
type Dataset struct {
	Seasons map[string][]models.Candidate `json:"seasons"`
	Anime   map[int]models.AnimeDetail    `json:"anime"`
}

func SeasonKey(season string, year int) string {
	return strconv.Itoa(year) + "/" + strings.ToLower(strings.TrimSpace(season))
}

// ParsePremiered splits "Winter 2017" into ("winter", 2017).
func ParsePremiered(s string) (string, int, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return "", 0, false
	}
	season := strings.ToLower(fields[0])
	switch season {
	case "winter", "spring", "summer", "fall":
	default:
		return "", 0, false
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, false
	}
	return season, year, true
}

// FromRecords turns stored rows back into catalog payloads. Records whose
// premiere label parses are also listed under their season, in id order.
func FromRecords(records []models.Anime) Dataset {
	ds := Dataset{
		Seasons: make(map[string][]models.Candidate),
		Anime:   make(map[int]models.AnimeDetail, len(records)),
	}

	sorted := make([]models.Anime, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, a := range sorted {
		ds.Anime[a.ID] = detailFromRecord(a)
		if season, year, ok := ParsePremiered(a.Premiered); ok {
			key := SeasonKey(season, year)
			ds.Seasons[key] = append(ds.Seasons[key], models.Candidate{ID: a.ID, Title: a.Title})
		}
	}
	return ds
}

func detailFromRecord(a models.Anime) models.AnimeDetail {
	var genres []models.NamedResource
	for _, g := range strings.Split(a.Genre, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, models.NamedResource{Type: "anime", Name: g})
		}
	}

	return models.AnimeDetail{
		MalID:      a.ID,
		Title:      strPtr(a.Title),
		Synopsis:   strPtr(a.Synopsis),
		Episodes:   a.Episodes,
		Premiered:  strPtr(a.Premiered),
		Genre:      genres,
		Rating:     strPtr(a.Rating),
		Score:      a.Score,
		ScoredBy:   a.ScoredBy,
		Rank:       a.Rank,
		Popularity: a.Popularity,
		Members:    a.Members,
		Favorites:  a.Favorites,
		ImageURL:   strPtr(a.ImageURL),
	}
}

func strPtr(s string) *string { return &s }

// Load reads a mirror file.
func Load(path string) (Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read mirror: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(b, &ds); err != nil {
		return Dataset{}, fmt.Errorf("mirror %s invalid JSON: %w", path, err)
	}
	if ds.Seasons == nil {
		ds.Seasons = map[string][]models.Candidate{}
	}
	if ds.Anime == nil {
		ds.Anime = map[int]models.AnimeDetail{}
	}
	return ds, nil
}

// Save writes a mirror file, creating parent directories.
func Save(path string, ds Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal mirror: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}
