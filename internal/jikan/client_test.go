package jikan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/anime", srv.URL+"/season", 5*time.Second)
}

func TestFetchAnimeSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anime/1", r.URL.Path)
		assert.Equal(t, "animeharvest/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Foo","synopsis":"<i>x</i>","episodes":1,"premiered":"Winter 2017",
			"genre":[{"name":"Action"},{"name":"Drama"}],"rating":"PG-13","score":7.5,"rank":null}`))
	})

	d, err := c.FetchAnime(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, d.Title)
	assert.Equal(t, "Foo", *d.Title)
	require.NotNil(t, d.Episodes)
	assert.Equal(t, 1, *d.Episodes)
	require.NotNil(t, d.Score)
	assert.InDelta(t, 7.5, *d.Score, 0.0001)
	assert.Nil(t, d.Rank)
	assert.Nil(t, d.Members)
	assert.Equal(t, []string{"Action", "Drama"}, d.GenreNames())
}

func TestFetchAnimeRateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchAnime(context.Background(), 7)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestFetchAnimeErrorPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Resource does not exist"}`))
	})

	_, err := c.FetchAnime(context.Background(), 7)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 7, apiErr.ID)
	assert.Equal(t, "Resource does not exist", apiErr.Message)
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestFetchAnimeUnexpectedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.FetchAnime(context.Background(), 7)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}

func TestFetchAnimeMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":`))
	})

	_, err := c.FetchAnime(context.Background(), 7)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestListSeason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/season/2017/winter", r.URL.Path)
		_, _ = w.Write([]byte(`{"season_name":"Winter","season_year":2017,"anime":[
			{"mal_id":3,"title":" Gamma "},{"mal_id":0,"title":"bogus"},{"mal_id":1,"title":"Alpha"}]}`))
	})

	got, err := c.ListSeason(context.Background(), "Winter", 2017)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, "Gamma", got[0].Title)
	assert.Equal(t, 1, got[1].ID)
}

func TestListSeasonFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.ListSeason(context.Background(), "fall", 2018)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}
