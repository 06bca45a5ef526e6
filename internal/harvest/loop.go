package harvest

import (
	"context"
	"log/slog"
	"time"

	"animeharvest/pkg/models"
)

// FetchFunc fetches one candidate. (*Fetcher).Fetch is the production value.
type FetchFunc func(ctx context.Context, c models.Candidate) Outcome

// Result is what the fetch loop accumulated.
type Result struct {
	Records     []models.Anime
	Failed      []models.FailedCandidate
	Aborted     bool
	AbortReason string
	Attempted   int
}

// Loop fetches candidates one at a time.
type Loop struct {
	Fetch  FetchFunc
	Pacing Pacing
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger

	// OnOutcome, when set, sees every outcome after it is accounted for.
	OnOutcome func(c models.Candidate, o Outcome, took time.Duration)
}

// Run reduces the candidate list into a Result. Pauses happen only after a
// success. An Abort outcome or a cancelled context stops the loop and keeps
// what was collected so far.
func (l Loop) Run(ctx context.Context, candidates []models.Candidate) Result {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := l.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var (
		res   Result
		count int
	)
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			res.Aborted, res.AbortReason = true, "interrupted"
			logger.Warn("harvest interrupted", "remaining", len(candidates)-i)
			break
		}

		logger.Info("fetching anime", "id", c.ID, "title", c.Title, "position", i+1, "of", len(candidates))
		start := time.Now()
		o := l.Fetch(ctx, c)
		took := time.Since(start)
		res.Attempted++

		switch o.Kind {
		case Abort:
			res.Aborted, res.AbortReason = true, o.Reason
			logger.Warn("remote rate limit hit, aborting", "id", c.ID, "remaining", len(candidates)-i)
		case Success:
			res.Records = append(res.Records, o.Record)
			logger.Info("anime fetched", "id", c.ID, "title", o.Record.Title)
		default:
			res.Failed = append(res.Failed, models.FailedCandidate{ID: c.ID, Title: c.Title, Reason: o.Reason})
			logger.Warn("anime fetch failed", "id", c.ID, "title", c.Title, "reason", o.Reason)
		}

		if l.OnOutcome != nil {
			l.OnOutcome(c, o, took)
		}
		if res.Aborted {
			break
		}
		if o.Kind != Success {
			continue
		}

		var pause time.Duration
		pause, count = l.Pacing.Next(count)
		if err := sleep(ctx, pause); err != nil {
			if remaining := len(candidates) - i - 1; remaining > 0 {
				res.Aborted, res.AbortReason = true, "interrupted"
				logger.Warn("harvest interrupted", "remaining", remaining)
			}
			break
		}
	}
	return res
}
