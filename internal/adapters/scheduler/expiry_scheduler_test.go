package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestExpiryScheduler_FiresOncePerAuction(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}

	var (
		mu      sync.Mutex
		expired []string
	)
	s := NewExpiryScheduler(ExpirySchedulerParams{
		RedisClient: client,
		Tick:        5 * time.Millisecond,
		Clock:       clock.Now,
		OnExpired: func(ctx context.Context, auctionID string) {
			mu.Lock()
			defer mu.Unlock()
			expired = append(expired, auctionID)
		},
		Logger: zerolog.Nop(),
	})

	ctx := context.Background()
	require.NoError(t, s.Schedule(ctx, "soon", clock.Now().Add(time.Minute)))
	require.NoError(t, s.Schedule(ctx, "later", clock.Now().Add(time.Hour)))
	require.NoError(t, s.Schedule(ctx, "dropped", clock.Now().Add(time.Minute)))
	require.NoError(t, s.Unschedule(ctx, "dropped"))

	s.Start()
	t.Cleanup(s.Stop)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	require.Empty(t, expired)
	mu.Unlock()

	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(expired) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"soon"}, expired)
	mu.Unlock()

	members, err := mr.ZMembers(s.Key())
	require.NoError(t, err)
	require.Equal(t, []string{"later"}, members)
}

func TestExpiryScheduler_RescheduleMovesEndTime(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	s := NewExpiryScheduler(ExpirySchedulerParams{RedisClient: client, Key: "watch", Logger: zerolog.Nop()})

	ctx := context.Background()
	end := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Schedule(ctx, "a1", end))
	require.NoError(t, s.Schedule(ctx, "a1", end.Add(time.Hour)))

	score, err := mr.ZScore("watch", "a1")
	require.NoError(t, err)
	require.Equal(t, float64(end.Add(time.Hour).Unix()), score)
}

func TestExpiryScheduler_EveryWatcherIsNotified(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	end := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return end.Add(time.Minute) }

	var (
		mu    sync.Mutex
		fired = map[string]int{}
	)
	watcher := func(name string) *ExpiryScheduler {
		return NewExpiryScheduler(ExpirySchedulerParams{
			RedisClient: client,
			Tick:        5 * time.Millisecond,
			Clock:       clock,
			OnExpired: func(ctx context.Context, auctionID string) {
				mu.Lock()
				defer mu.Unlock()
				fired[name+"/"+auctionID]++
			},
			Logger: zerolog.Nop(),
		})
	}

	first, second := watcher("first"), watcher("second")
	require.NotEqual(t, first.Key(), second.Key())

	ctx := context.Background()
	require.NoError(t, first.Schedule(ctx, "x", end))
	require.NoError(t, second.Schedule(ctx, "x", end))

	first.Start()
	second.Start()
	t.Cleanup(first.Stop)
	t.Cleanup(second.Stop)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired["first/x"] == 1 && fired["second/x"] == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	require.Equal(t, map[string]int{"first/x": 1, "second/x": 1}, fired)
	mu.Unlock()
}

func TestExpiryScheduler_StopDropsSchedule(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	s := NewExpiryScheduler(ExpirySchedulerParams{RedisClient: client, Logger: zerolog.Nop()})

	require.NoError(t, s.Schedule(context.Background(), "a1", time.Now().Add(time.Hour)))
	require.True(t, mr.Exists(s.Key()))

	s.Start()
	s.Stop()
	require.False(t, mr.Exists(s.Key()))
}
