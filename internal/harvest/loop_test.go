package harvest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animeharvest/pkg/models"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type sleepRecorder struct {
	pauses []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	return ctx.Err()
}

func candidates(ids ...int) []models.Candidate {
	out := make([]models.Candidate, len(ids))
	for i, id := range ids {
		out[i] = models.Candidate{ID: id, Title: "title"}
	}
	return out
}

// scripted returns the outcome listed for an id, Success otherwise.
func scripted(script map[int]Outcome) FetchFunc {
	return func(_ context.Context, c models.Candidate) Outcome {
		if o, ok := script[c.ID]; ok {
			return o
		}
		return Outcome{Kind: Success, Record: models.Anime{ID: c.ID, Title: c.Title}}
	}
}

func TestDedup(t *testing.T) {
	in := candidates(5, 3, 9, 1)
	got := Dedup(in, map[int]struct{}{3: {}, 1: {}, 42: {}})
	assert.Equal(t, candidates(5, 9), got)

	assert.Equal(t, in, Dedup(in, nil))
	assert.Empty(t, Dedup(nil, map[int]struct{}{1: {}}))
}

func TestPacingSchedule(t *testing.T) {
	p := DefaultPacing()

	var (
		got   []time.Duration
		count int
	)
	for i := 0; i < 23; i++ {
		var d time.Duration
		d, count = p.Next(count)
		got = append(got, d)
	}

	for i, d := range got {
		if (i+1)%11 == 0 {
			assert.Equal(t, time.Second, d, "success %d", i+1)
		} else {
			assert.Equal(t, 500*time.Millisecond, d, "success %d", i+1)
		}
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepContext(context.Background(), 0))
}

func TestLoopAllSuccess(t *testing.T) {
	rec := &sleepRecorder{}
	l := Loop{Fetch: scripted(nil), Pacing: DefaultPacing(), Sleep: rec.Sleep, Logger: quiet}

	res := l.Run(context.Background(), candidates(1, 2, 3))
	assert.False(t, res.Aborted)
	assert.Len(t, res.Records, 3)
	assert.Empty(t, res.Failed)
	assert.Equal(t, 3, res.Attempted)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond, 500 * time.Millisecond}, rec.pauses)
}

func TestLoopLongPauseEveryEleventhSuccess(t *testing.T) {
	ids := make([]int, 12)
	for i := range ids {
		ids[i] = i + 1
	}
	rec := &sleepRecorder{}
	l := Loop{Fetch: scripted(nil), Pacing: DefaultPacing(), Sleep: rec.Sleep, Logger: quiet}

	res := l.Run(context.Background(), candidates(ids...))
	require.Len(t, res.Records, 12)
	require.Len(t, rec.pauses, 12)
	assert.Equal(t, time.Second, rec.pauses[10])
	assert.Equal(t, 500*time.Millisecond, rec.pauses[11])
}

func TestLoopNoPauseAfterFailure(t *testing.T) {
	rec := &sleepRecorder{}
	l := Loop{
		Fetch: scripted(map[int]Outcome{
			2: {Kind: SoftFailure, Reason: "Resource does not exist"},
		}),
		Pacing: DefaultPacing(),
		Sleep:  rec.Sleep,
		Logger: quiet,
	}

	res := l.Run(context.Background(), candidates(1, 2, 3))
	assert.False(t, res.Aborted)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, []models.FailedCandidate{{ID: 2, Title: "title", Reason: "Resource does not exist"}}, res.Failed)
	assert.Len(t, rec.pauses, 2)
}

func TestLoopAbortKeepsCollected(t *testing.T) {
	rec := &sleepRecorder{}
	var seen []models.Candidate
	l := Loop{
		Fetch: scripted(map[int]Outcome{
			2: {Kind: SoftFailure, Reason: "bad"},
			3: {Kind: Abort, Reason: "rate limited"},
		}),
		Pacing: DefaultPacing(),
		Sleep:  rec.Sleep,
		Logger: quiet,
		OnOutcome: func(c models.Candidate, _ Outcome, _ time.Duration) {
			seen = append(seen, c)
		},
	}

	res := l.Run(context.Background(), candidates(1, 2, 3, 4, 5))
	assert.True(t, res.Aborted)
	assert.Equal(t, "rate limited", res.AbortReason)
	assert.Equal(t, 3, res.Attempted)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Records[0].ID)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].ID)
	assert.Len(t, rec.pauses, 1)
	assert.Equal(t, candidates(1, 2, 3), seen)
}

func TestLoopInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &sleepRecorder{}
	fetch := func(_ context.Context, c models.Candidate) Outcome {
		if c.ID == 2 {
			cancel()
		}
		return Outcome{Kind: Success, Record: models.Anime{ID: c.ID, Title: c.Title}}
	}
	l := Loop{Fetch: fetch, Pacing: DefaultPacing(), Sleep: rec.Sleep, Logger: quiet}

	res := l.Run(ctx, candidates(1, 2, 3))
	assert.True(t, res.Aborted)
	assert.Equal(t, "interrupted", res.AbortReason)
	assert.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Attempted)
}

func TestLoopCancelAfterLastIsNotAnAbort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetch := func(_ context.Context, c models.Candidate) Outcome {
		cancel()
		return Outcome{Kind: Success, Record: models.Anime{ID: c.ID, Title: c.Title}}
	}
	l := Loop{Fetch: fetch, Pacing: DefaultPacing(), Sleep: (&sleepRecorder{}).Sleep, Logger: quiet}

	res := l.Run(ctx, candidates(7))
	assert.False(t, res.Aborted)
	assert.Len(t, res.Records, 1)
}

func TestLoopEmpty(t *testing.T) {
	res := Loop{Fetch: scripted(nil), Logger: quiet}.Run(context.Background(), nil)
	assert.Equal(t, Result{}, res)
}
