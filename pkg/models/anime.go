package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Candidate is an (id, title) pair waiting for a detail fetch.
// The JSON shape matches one entry of a seasonal listing.
type Candidate struct {
	ID    int    `json:"mal_id"`
	Title string `json:"title"`
}

// FailedCandidate is a candidate whose fetch or parse did not produce a record.
type FailedCandidate struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Anime is one row of the Animes table.
//
// Raw fields come straight from the detail endpoint (with Synopsis replaced
// by its cleaned form once normalized). The Clean* fields are derived copies
// stored alongside the raw values.
type Anime struct {
	ID         int      `json:"id"`
	Title      string   `json:"title"`
	Synopsis   string   `json:"synopsis"`
	Episodes   *int     `json:"episodes,omitempty"`
	Premiered  string   `json:"premiered"`
	Genre      string   `json:"genre"` // comma-joined genre names
	Rating     string   `json:"rating"`
	Score      *float64 `json:"score,omitempty"`
	ScoredBy   *int     `json:"scored_by,omitempty"`
	Rank       *int     `json:"rank,omitempty"`
	Popularity *int     `json:"popularity,omitempty"`
	Members    *int     `json:"members,omitempty"`
	Favorites  *int     `json:"favorites,omitempty"`
	ImageURL   string   `json:"image_url"`

	CleanTitle    string `json:"c_title"`
	CleanSynopsis string `json:"c_synopsis"`
	CleanGenre    string `json:"c_genre"`
	CleanRating   string `json:"c_rating"`
	Language      string `json:"c_language"`
}

// NamedResource is the {mal_id, type, name, url} object the catalog uses for genres.
type NamedResource struct {
	MalID int    `json:"mal_id,omitempty"`
	Type  string `json:"type,omitempty"`
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
}

// AnimeDetail is the detail endpoint payload. Every field is optional so
// that a missing key can be told apart from a zero value.
type AnimeDetail struct {
	MalID      int             `json:"mal_id,omitempty"`
	Title      *string         `json:"title,omitempty"`
	Synopsis   *string         `json:"synopsis,omitempty"`
	Episodes   *int            `json:"episodes,omitempty"`
	Premiered  *string         `json:"premiered,omitempty"`
	Genre      []NamedResource `json:"genre,omitempty"`
	Genres     []NamedResource `json:"genres,omitempty"`
	Rating     *string         `json:"rating,omitempty"`
	Score      *float64        `json:"score,omitempty"`
	ScoredBy   *int            `json:"scored_by,omitempty"`
	Rank       *int            `json:"rank,omitempty"`
	Popularity *int            `json:"popularity,omitempty"`
	Members    *int            `json:"members,omitempty"`
	Favorites  *int            `json:"favorites,omitempty"`
	ImageURL   *string         `json:"image_url,omitempty"`

	// Error is kept raw: the key being present at all marks a handled failure,
	// even when its value is null or not a string.
	Error json.RawMessage `json:"error,omitempty"`
}

// HasError reports whether the payload carried an error key.
func (d *AnimeDetail) HasError() bool {
	return d != nil && len(d.Error) > 0
}

// ErrorMessage returns the error value as text.
func (d *AnimeDetail) ErrorMessage() string {
	if !d.HasError() {
		return ""
	}
	var msg string
	if err := json.Unmarshal(d.Error, &msg); err == nil {
		return msg
	}
	return string(d.Error)
}

// GenreNames returns genre names in payload order, preferring "genre" over "genres".
func (d *AnimeDetail) GenreNames() []string {
	src := d.Genre
	if len(src) == 0 {
		src = d.Genres
	}
	names := make([]string, 0, len(src))
	for _, g := range src {
		if n := strings.TrimSpace(g.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// SeasonListing is the seasonal listing payload.
type SeasonListing struct {
	SeasonName string      `json:"season_name,omitempty"`
	SeasonYear int         `json:"season_year,omitempty"`
	Anime      []Candidate `json:"anime"`
}

// HarvestRun is one row of the Harvest_Runs table.
type HarvestRun struct {
	ID           string    `json:"id"`
	Season       string    `json:"season"`
	Year         int       `json:"year"`
	Listed       int       `json:"listed"`
	New          int       `json:"new"`
	Fetched      int       `json:"fetched"`
	Failed       int       `json:"failed"`
	Appended     int       `json:"appended"`
	Aborted      bool      `json:"aborted"`
	FallbackPath string    `json:"fallback_path,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
