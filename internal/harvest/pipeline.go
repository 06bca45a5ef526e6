package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"animeharvest/internal/catalog"
	"animeharvest/internal/metrics"
	"animeharvest/internal/normalize"
	"animeharvest/pkg/models"
)

// Store is what a run needs from the dataset store.
type Store interface {
	Appender
	ExistingIDs(ctx context.Context) (map[int]struct{}, error)
	RecordRun(ctx context.Context, run models.HarvestRun) error
}

// Pipeline wires lister, store, fetcher and pacing into one run.
type Pipeline struct {
	Lister       catalog.Lister
	Store        Store
	Fetcher      *Fetcher
	Pacing       Pacing
	Sleep        func(ctx context.Context, d time.Duration) error
	FallbackPath string
	Metrics      *metrics.Harvest
	Logger       *slog.Logger
	Now          func() time.Time
}

// Summary is the outcome of a run.
type Summary struct {
	RunID      string
	Season     string
	Year       int
	Listed     int
	New        int
	Records    []models.Anime
	Failed     []models.FailedCandidate
	Aborted    bool
	Reason     string
	Appended   int
	PersistErr *PersistError
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run harvests one season. Listing and store-read failures are fatal and
// returned as errors. A failed append that was saved to the fallback file is
// reported in Summary.PersistErr with a nil error; only an append failure
// whose fallback write also failed is returned as an error.
func (p *Pipeline) Run(ctx context.Context, season string, year int) (*Summary, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	m := p.Metrics
	if m == nil {
		m = metrics.NewHarvest()
	}

	sum := &Summary{
		RunID:     uuid.NewString(),
		Season:    season,
		Year:      year,
		StartedAt: now(),
	}
	logger := p.logger().With("run_id", sum.RunID)
	logger.Info("harvest started", "season", season, "year", year)

	candidates, err := p.Lister.ListSeason(ctx, season, year)
	if err != nil {
		return nil, fmt.Errorf("list season: %w", err)
	}
	sum.Listed = len(candidates)
	m.CandidatesListed.Set(float64(sum.Listed))

	existing, err := p.Store.ExistingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing ids: %w", err)
	}
	pending := Dedup(candidates, existing)
	sum.New = len(pending)
	m.CandidatesNew.Set(float64(sum.New))
	logger.Info("candidates filtered", "listed", sum.Listed, "stored", len(existing), "new", sum.New)

	loop := Loop{
		Fetch:  p.Fetcher.Fetch,
		Pacing: p.Pacing,
		Sleep:  p.Sleep,
		Logger: logger,
		OnOutcome: func(_ models.Candidate, o Outcome, took time.Duration) {
			m.FetchOutcomes.WithLabelValues(o.Kind.String()).Inc()
			m.FetchDuration.Observe(took.Seconds())
		},
	}
	res := loop.Run(ctx, pending)
	sum.Failed = res.Failed
	sum.Aborted = res.Aborted
	sum.Reason = res.AbortReason
	if res.Aborted {
		m.RunAborted.Set(1)
	}

	sum.Records = normalize.Records(res.Records)

	// persist even when the run was interrupted
	writeCtx := context.WithoutCancel(ctx)
	var fatal error
	if err := Persist(writeCtx, p.Store, sum.Records, p.FallbackPath); err != nil {
		var perr *PersistError
		if !errors.As(err, &perr) {
			return nil, err
		}
		sum.PersistErr = perr
		m.FallbackWrites.Inc()
		if perr.Recovered() {
			logger.Error("store append failed, records written to fallback file",
				"error", perr.Err, "fallback", perr.FallbackPath, "records", len(sum.Records))
		} else {
			logger.Error("store append and fallback write both failed",
				"error", perr.Err, "fallback_error", perr.FallbackErr, "records", len(sum.Records))
			fatal = perr
		}
	} else {
		sum.Appended = len(sum.Records)
		m.RowsAppended.Add(float64(sum.Appended))
	}

	sum.FinishedAt = now()
	m.LastRunFinished.Set(float64(sum.FinishedAt.Unix()))

	if err := p.Store.RecordRun(writeCtx, sum.Run()); err != nil {
		logger.Warn("failed to record harvest run", "error", err)
	}

	logger.Info("harvest finished",
		"fetched", len(sum.Records),
		"failed", len(sum.Failed),
		"appended", sum.Appended,
		"aborted", sum.Aborted,
	)
	return sum, fatal
}

// Run converts the summary into a Harvest_Runs row.
func (s *Summary) Run() models.HarvestRun {
	run := models.HarvestRun{
		ID:         s.RunID,
		Season:     s.Season,
		Year:       s.Year,
		Listed:     s.Listed,
		New:        s.New,
		Fetched:    len(s.Records),
		Failed:     len(s.Failed),
		Appended:   s.Appended,
		Aborted:    s.Aborted,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
	if s.PersistErr != nil && s.PersistErr.Recovered() {
		run.FallbackPath = s.PersistErr.FallbackPath
	}
	return run
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
