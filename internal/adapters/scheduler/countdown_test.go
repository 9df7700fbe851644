package scheduler

import (
	"sync"
	"testing"
	"time"

	"aucto-auction-client/internal/domain/countdown"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type labels struct {
	mu  sync.Mutex
	got []countdown.Countdown
}

func (l *labels) add(c countdown.Countdown) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, c)
}

func (l *labels) snapshot() []countdown.Countdown {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]countdown.Countdown(nil), l.got...)
}

func TestCountdown_ReportsChangesUntilEnded(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	end := clock.Now().Add(3 * time.Second)
	rec := &labels{}

	c := NewCountdown(CountdownParams{Tick: 5 * time.Millisecond, Clock: clock.Now, Logger: zerolog.Nop()})
	c.Start(end, rec.add)
	t.Cleanup(c.Stop)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "3s", rec.snapshot()[0].Label)

	// Unchanged labels are not reported again.
	time.Sleep(30 * time.Millisecond)
	require.Len(t, rec.snapshot(), 1)

	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	last := rec.snapshot()[1]
	require.True(t, last.Ended)
	require.Equal(t, countdown.EndedLabel, last.Label)
	require.True(t, c.Current().Ended)
}

func TestCountdown_NoCallbacksAfterStop(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rec := &labels{}

	c := NewCountdown(CountdownParams{Tick: 5 * time.Millisecond, Clock: clock.Now, Logger: zerolog.Nop()})
	c.Start(clock.Now().Add(time.Hour), rec.add)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	c.Stop()
	c.Stop()

	clock.Advance(2 * time.Hour)
	time.Sleep(30 * time.Millisecond)
	require.Len(t, rec.snapshot(), 1)
}

func TestCountdown_SetEndMovesTheLabel(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rec := &labels{}

	c := NewCountdown(CountdownParams{Tick: 5 * time.Millisecond, Clock: clock.Now, Logger: zerolog.Nop()})
	c.Start(clock.Now().Add(-time.Second), rec.add)
	t.Cleanup(c.Stop)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	require.True(t, rec.snapshot()[0].Ended)

	c.SetEnd(clock.Now().Add(90 * time.Second))
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "1m 30s", rec.snapshot()[1].Label)
}
