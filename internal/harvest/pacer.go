package harvest

import (
	"context"
	"time"
)

// Pacing is the pause schedule after successful fetches: Short after each
// success, Long instead of Short once every Batch+1 successes.
type Pacing struct {
	Short time.Duration
	Long  time.Duration
	Batch int
}

func DefaultPacing() Pacing {
	return Pacing{Short: 500 * time.Millisecond, Long: time.Second, Batch: 10}
}

// Next returns the pause for the success that follows count earlier ones
// in the current batch, and the new count.
func (p Pacing) Next(count int) (time.Duration, int) {
	if count >= p.Batch {
		return p.Long, 0
	}
	return p.Short, count + 1
}

// SleepContext blocks for d, returning early if the context is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
