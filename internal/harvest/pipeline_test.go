package harvest

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"animeharvest/internal/anime"
	"animeharvest/internal/catalog"
	"animeharvest/internal/jikan"
	"animeharvest/internal/metrics"
	"animeharvest/internal/mirror"
	"animeharvest/internal/testsupport"
	"animeharvest/pkg/models"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func winter2017() mirror.Dataset {
	ds := mirror.FromRecords([]models.Anime{
		{ID: 101, Title: "Foo &amp; Bar", Synopsis: "<p>Story</p> [Written by MAL Rewrite]", Premiered: "Winter 2017", Genre: "Action, Comedy", Rating: "PG-13 - Teens 13 or older", Episodes: testsupport.IntPtr(12)},
		{ID: 102, Title: "Second", Premiered: "Winter 2017", Genre: "Drama", Score: testsupport.FloatPtr(8.1)},
		{ID: 103, Title: "Third", Premiered: "Winter 2017", Rating: "R+ - Mild Nudity"},
		{ID: 104, Title: "Fourth", Premiered: "Winter 2017"},
	})
	// listed but without a detail page
	ds.Seasons[mirror.SeasonKey("winter", 2017)] = append(ds.Seasons[mirror.SeasonKey("winter", 2017)],
		models.Candidate{ID: 105, Title: "Gone"})
	return ds
}

func newMirror(t *testing.T, ds mirror.Dataset, limiter *rate.Limiter) *jikan.Client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(mirror.NewRouter(ds, limiter))
	t.Cleanup(srv.Close)
	return jikan.NewClient(srv.URL+"/anime", srv.URL+"/season", 5*time.Second)
}

func newPipeline(t *testing.T, client *jikan.Client, store Store) *Pipeline {
	return &Pipeline{
		Lister:       client,
		Store:        store,
		Fetcher:      NewFetcher(client),
		Pacing:       DefaultPacing(),
		Sleep:        noSleep,
		FallbackPath: filepath.Join(t.TempDir(), "fetched_animes.csv"),
		Metrics:      metrics.NewHarvest(),
		Logger:       quiet,
	}
}

func storedIDs(t *testing.T, repo *anime.Repo) map[int]struct{} {
	t.Helper()
	ids, err := repo.ExistingIDs(context.Background())
	require.NoError(t, err)
	return ids
}

func TestPipelineIncremental(t *testing.T) {
	ctx := context.Background()
	repo := testsupport.MustOpenRepo(t)
	require.NoError(t, repo.Append(ctx, []models.Anime{{ID: 102, Title: "Second"}}))

	p := newPipeline(t, newMirror(t, winter2017(), nil), repo)
	sum, err := p.Run(ctx, "winter", 2017)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Listed)
	assert.Equal(t, 4, sum.New)
	assert.False(t, sum.Aborted)
	assert.Equal(t, 3, sum.Appended)
	assert.Nil(t, sum.PersistErr)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, 105, sum.Failed[0].ID)
	assert.Equal(t, map[int]struct{}{101: {}, 102: {}, 103: {}, 104: {}}, storedIDs(t, repo))

	got, err := repo.GetByID(ctx, 101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Foo &amp; Bar", got.Title)
	assert.Equal(t, "Foo & Bar", got.CleanTitle)
	assert.Equal(t, "Story", got.Synopsis)
	assert.Equal(t, "action, comedy", got.CleanGenre)
	assert.Equal(t, "pg13", got.CleanRating)
	assert.Equal(t, 12, *got.Episodes)
	assert.Nil(t, got.Score)

	assert.InDelta(t, 3, testutil.ToFloat64(p.Metrics.FetchOutcomes.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.FetchOutcomes.WithLabelValues("soft_failure")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(p.Metrics.RowsAppended), 0)

	last, err := repo.LastRun(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, sum.RunID, last.ID)
	assert.Equal(t, 3, last.Appended)

	// the only unstored id is the one that keeps failing
	again, err := newPipeline(t, newMirror(t, winter2017(), nil), repo).Run(ctx, "winter", 2017)
	require.NoError(t, err)
	assert.Equal(t, 1, again.New)
	assert.Zero(t, again.Appended)
	assert.Len(t, storedIDs(t, repo), 4)
}

func TestPipelineRateLimitAbort(t *testing.T) {
	ctx := context.Background()
	repo := testsupport.MustOpenRepo(t)

	// one token for the listing, two for details
	p := newPipeline(t, newMirror(t, winter2017(), rate.NewLimiter(rate.Limit(0.0001), 3)), repo)
	sum, err := p.Run(ctx, "winter", 2017)
	require.NoError(t, err)

	assert.True(t, sum.Aborted)
	assert.Equal(t, "rate limited", sum.Reason)
	assert.Len(t, sum.Records, 2)
	assert.Empty(t, sum.Failed)
	assert.Equal(t, 2, sum.Appended)
	assert.Equal(t, map[int]struct{}{101: {}, 102: {}}, storedIDs(t, repo))
	assert.InDelta(t, 1, testutil.ToFloat64(p.Metrics.RunAborted), 0)

	last, err := repo.LastRun(ctx)
	require.NoError(t, err)
	assert.True(t, last.Aborted)
}

type brokenStore struct {
	*anime.Repo
}

func (brokenStore) Append(context.Context, []models.Anime) error {
	return errors.New("disk I/O error")
}

func TestPipelineFallback(t *testing.T) {
	ctx := context.Background()
	repo := testsupport.MustOpenRepo(t)

	p := newPipeline(t, newMirror(t, winter2017(), nil), brokenStore{repo})
	sum, err := p.Run(ctx, "winter", 2017)
	require.NoError(t, err)

	require.NotNil(t, sum.PersistErr)
	assert.True(t, sum.PersistErr.Recovered())
	assert.Zero(t, sum.Appended)
	assert.Empty(t, storedIDs(t, repo))

	f, err := os.Open(p.FallbackPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := anime.ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, sum.Records, rows)

	last, err := repo.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.FallbackPath, last.FallbackPath)
}

func TestPipelineListingFailureIsFatal(t *testing.T) {
	repo := testsupport.MustOpenRepo(t)
	p := newPipeline(t, newMirror(t, winter2017(), nil), repo)
	p.Lister = catalog.NewCSVLister(filepath.Join(t.TempDir(), "missing.csv"))

	sum, err := p.Run(context.Background(), "winter", 2017)
	require.Error(t, err)
	assert.Nil(t, sum)

	last, err := repo.LastRun(context.Background())
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestPipelineCandidatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.csv")
	require.NoError(t, os.WriteFile(path, []byte("IDx,Title\n103,Third\n104,Fourth\n"), 0o644))

	repo := testsupport.MustOpenRepo(t)
	p := newPipeline(t, newMirror(t, winter2017(), nil), repo)
	p.Lister = catalog.NewCSVLister(path)

	sum, err := p.Run(context.Background(), "winter", 2017)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Listed)
	assert.Equal(t, 2, sum.Appended)
	assert.Equal(t, map[int]struct{}{103: {}, 104: {}}, storedIDs(t, repo))
}
