package harvest

import (
	"context"
	"errors"
	"strings"

	"animeharvest/internal/jikan"
	"animeharvest/pkg/models"
)

// OutcomeKind is the result class of one detail fetch.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	SoftFailure
	Abort
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case SoftFailure:
		return "soft_failure"
	case Abort:
		return "abort"
	default:
		return "unknown"
	}
}

// Outcome is what the loop gets back for one candidate.
type Outcome struct {
	Kind   OutcomeKind
	Record models.Anime // set on Success
	Reason string       // set on SoftFailure and Abort
}

// Detailer loads one detail payload. *jikan.Client implements it.
type Detailer interface {
	FetchAnime(ctx context.Context, id int) (*models.AnimeDetail, error)
}

// Fetcher turns detail responses into outcomes.
type Fetcher struct {
	Client Detailer
}

func NewFetcher(client Detailer) *Fetcher {
	return &Fetcher{Client: client}
}

// Fetch never returns an error: every failure becomes an outcome. Only a
// rate-limit response becomes Abort.
func (f *Fetcher) Fetch(ctx context.Context, c models.Candidate) Outcome {
	detail, err := f.Client.FetchAnime(ctx, c.ID)
	if err != nil {
		if errors.Is(err, jikan.ErrRateLimited) {
			return Outcome{Kind: Abort, Reason: "rate limited"}
		}
		var apiErr *jikan.APIError
		if errors.As(err, &apiErr) {
			return Outcome{Kind: SoftFailure, Reason: apiErr.Message}
		}
		return Outcome{Kind: SoftFailure, Reason: err.Error()}
	}

	record, reason := recordFromDetail(c.ID, detail)
	if reason != "" {
		return Outcome{Kind: SoftFailure, Reason: reason}
	}
	return Outcome{Kind: Success, Record: record}
}

// recordFromDetail maps a payload onto a raw record. A missing title is the
// only field that fails the item; other absent strings become "" and absent
// numbers stay nil.
func recordFromDetail(id int, d *models.AnimeDetail) (models.Anime, string) {
	if d == nil {
		return models.Anime{}, "empty payload"
	}
	if d.Title == nil || strings.TrimSpace(*d.Title) == "" {
		return models.Anime{}, "missing title"
	}

	return models.Anime{
		ID:         id,
		Title:      *d.Title,
		Synopsis:   deref(d.Synopsis),
		Episodes:   d.Episodes,
		Premiered:  deref(d.Premiered),
		Genre:      strings.Join(d.GenreNames(), ", "),
		Rating:     deref(d.Rating),
		Score:      d.Score,
		ScoredBy:   d.ScoredBy,
		Rank:       d.Rank,
		Popularity: d.Popularity,
		Members:    d.Members,
		Favorites:  d.Favorites,
		ImageURL:   deref(d.ImageURL),
	}, ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
