package main

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animeharvest/internal/mirror"
	"animeharvest/pkg/models"
	"animeharvest/pkg/utils"
)

func mirrorServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ds := mirror.FromRecords([]models.Anime{
		{ID: 1, Title: "One", Premiered: "Spring 2018", Rating: "G - All Ages"},
		{ID: 2, Title: "Two", Premiered: "Spring 2018", Genre: "Sports"},
	})
	srv := httptest.NewServer(mirror.NewRouter(ds, nil))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return strings.ToLower(out.String()), err
}

func TestHarvestCommand(t *testing.T) {
	srv := mirrorServer(t)
	dir := t.TempDir()
	db := filepath.Join(dir, "dataset.db")
	metricsFile := filepath.Join(dir, "harvest.prom")

	args := []string{
		"--db", db,
		"--season", "Spring",
		"--year", "2018",
		"--base-url", srv.URL + "/anime",
		"--season-url", srv.URL + "/season",
		"--fallback", filepath.Join(dir, "fetched_animes.csv"),
		"--metrics-file", metricsFile,
		"--pause", "1ms",
		"--batch-pause", "1ms",
		"--log-level", "error",
	}
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "harvest spring 2018")
	assert.Contains(t, out, "complete")
	assert.FileExists(t, metricsFile)

	out, err = execute(t, "last-run", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "last harvest run")
	assert.Contains(t, out, "2 rows stored")

	// nothing new the second time
	out, err = execute(t, args...)
	require.NoError(t, err)
	assert.NotContains(t, out, "failed candidates")
}

func TestLastRunEmptyStore(t *testing.T) {
	out, err := execute(t, "last-run", "--db", filepath.Join(t.TempDir(), "dataset.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "no harvest recorded yet (0 rows stored)")
}

func TestInvalidSeasonFlag(t *testing.T) {
	_, err := execute(t, "--db", filepath.Join(t.TempDir(), "dataset.db"), "--season", "monsoon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Season")
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := utils.DefaultHarvestConfig()
	f := flagValues{season: " Summer ", year: 2021, dsn: "/tmp/x.db", shortPause: time.Millisecond, shortPauseSet: true}
	f.apply(&cfg)

	assert.Equal(t, "summer", cfg.Season)
	assert.Equal(t, 2021, cfg.Year)
	assert.Equal(t, "/tmp/x.db", cfg.Store.DSN)
	assert.Equal(t, time.Millisecond, cfg.Pacing.Short.Std())
	assert.Equal(t, time.Second, cfg.Pacing.Long.Std())
	assert.Equal(t, "fetched_animes.csv", cfg.Store.FallbackPath)
}

func TestZeroPauseFlagsDisablePacing(t *testing.T) {
	var flags flagValues
	cmd := buildRootCommand(&flags)
	require.NoError(t, cmd.ParseFlags([]string{"--db", filepath.Join(t.TempDir(), "dataset.db"), "--pause", "0", "--batch-pause", "0s"}))

	cfg, err := flags.load(cmd)
	require.NoError(t, err)

	assert.Zero(t, cfg.Pacing.Short.Std())
	assert.Zero(t, cfg.Pacing.Long.Std())
}

func TestUnsetPauseFlagsKeepConfig(t *testing.T) {
	cfg := utils.DefaultHarvestConfig()
	(&flagValues{}).apply(&cfg)

	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.Short.Std())
	assert.Equal(t, time.Second, cfg.Pacing.Long.Std())
}
