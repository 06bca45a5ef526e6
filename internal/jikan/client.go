// Package jikan talks to a Jikan v3 style catalog: a seasonal listing and a
// per-anime detail endpoint.
package jikan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"animeharvest/pkg/models"
)

const (
	DefaultBaseURL   = "https://api.jikan.moe/v3/anime"
	DefaultSeasonURL = "https://api.jikan.moe/v3/season"
)

// ErrRateLimited is returned for HTTP 429. It stops the whole harvest.
var ErrRateLimited = errors.New("jikan: rate limited")

// APIError is a 200 response that carried an error payload.
type APIError struct {
	ID      int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jikan: anime %d: %s", e.ID, e.Message)
}

// StatusError is any response that was neither 200 nor 429.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("jikan: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("jikan: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client calls the listing and detail endpoints.
type Client struct {
	HTTP      *http.Client
	BaseURL   string // detail endpoint, GET {BaseURL}/{id}
	SeasonURL string // listing endpoint, GET {SeasonURL}/{year}/{season}
	UserAgent string
}

func NewClient(baseURL, seasonURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if seasonURL == "" {
		seasonURL = DefaultSeasonURL
	}
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		BaseURL:   strings.TrimRight(baseURL, "/"),
		SeasonURL: strings.TrimRight(seasonURL, "/"),
		UserAgent: "animeharvest/1.0",
	}
}

// ListSeason returns the season's candidates in listing order.
func (c *Client) ListSeason(ctx context.Context, season string, year int) ([]models.Candidate, error) {
	season = strings.ToLower(strings.TrimSpace(season))
	u := fmt.Sprintf("%s/%d/%s", c.SeasonURL, year, season)

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("jikan: list %s %d: %w", season, year, err)
	}
	if status == http.StatusTooManyRequests {
		return nil, fmt.Errorf("jikan: list %s %d: %w", season, year, ErrRateLimited)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("jikan: list %s %d: %w", season, year, &StatusError{StatusCode: status, Body: snippet(body)})
	}

	var listing models.SeasonListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("jikan: decode listing: %w", err)
	}

	out := make([]models.Candidate, 0, len(listing.Anime))
	for _, a := range listing.Anime {
		if a.ID <= 0 {
			continue
		}
		out = append(out, models.Candidate{ID: a.ID, Title: strings.TrimSpace(a.Title)})
	}
	return out, nil
}

// FetchAnime loads one detail payload.
//
// Errors: ErrRateLimited for 429, *APIError when a 200 carries an error key,
// *StatusError for any other status, wrapped transport/decode errors otherwise.
func (c *Client) FetchAnime(ctx context.Context, id int) (*models.AnimeDetail, error) {
	body, status, err := c.get(ctx, c.BaseURL+"/"+strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("jikan: anime %d: %w", id, err)
	}

	switch status {
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusOK:
	default:
		return nil, &StatusError{StatusCode: status, Body: snippet(body)}
	}

	var detail models.AnimeDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("jikan: decode anime %d: %w", id, err)
	}
	if detail.HasError() {
		return nil, &APIError{ID: id, Message: detail.ErrorMessage()}
	}
	return &detail, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
