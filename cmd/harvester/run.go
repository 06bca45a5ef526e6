package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gofrs/flock"

	"animeharvest/internal/anime"
	"animeharvest/internal/catalog"
	"animeharvest/internal/harvest"
	"animeharvest/internal/jikan"
	"animeharvest/internal/logging"
	"animeharvest/internal/metrics"
	"animeharvest/pkg/database"
	"animeharvest/pkg/utils"
)

func newLogger(cfg utils.HarvestConfig) (*slog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		Service: "harvester",
	})
}

// openStore opens and migrates the dataset store.
func openStore(cfg utils.HarvestConfig) (*anime.Repo, func() error, error) {
	dbCfg := database.Config{DSN: cfg.Store.DSN}
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db, dbCfg.Dialect()); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migrate failed: %w", err)
	}
	return anime.NewRepo(db, dbCfg.Dialect()), db.Close, nil
}

func runHarvest(ctx context.Context, out io.Writer, cfg utils.HarvestConfig) error {
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Ctrl-C stops the fetch loop; what was fetched is still written.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbCfg := database.Config{DSN: cfg.Store.DSN}
	if err := database.EnsureDataDir(dbCfg); err != nil {
		return fmt.Errorf("ensure data dir: %w", err)
	}
	lockPath := dbCfg.LockPath()
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another harvest is already running against this store")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release harvest lock", "lock", lockPath, "error", err)
		}
	}()

	repo, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	client := jikan.NewClient(cfg.API.BaseURL, cfg.API.SeasonURL, cfg.API.Timeout.Std())
	if cfg.API.UserAgent != "" {
		client.UserAgent = cfg.API.UserAgent
	}

	var lister catalog.Lister = client
	if cfg.CandidatesFile != "" {
		lister = catalog.NewCSVLister(cfg.CandidatesFile)
		logger.Info("reading candidates from file", "path", cfg.CandidatesFile)
	}

	m := metrics.NewHarvest()
	p := &harvest.Pipeline{
		Lister:  lister,
		Store:   repo,
		Fetcher: harvest.NewFetcher(client),
		Pacing: harvest.Pacing{
			Short: cfg.Pacing.Short.Std(),
			Long:  cfg.Pacing.Long.Std(),
			Batch: cfg.Pacing.Batch,
		},
		FallbackPath: cfg.Store.FallbackPath,
		Metrics:      m,
		Logger:       logger,
	}

	sum, runErr := p.Run(ctx, cfg.Season, cfg.Year)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	if sum != nil {
		fmt.Fprintln(out, renderSummary(sum))
		if len(sum.Failed) > 0 {
			fmt.Fprintln(out, renderFailed(sum.Failed))
		}
	}
	return runErr
}
