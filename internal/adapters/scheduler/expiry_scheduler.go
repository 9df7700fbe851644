package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const expiryKeyPrefix = "auction:expirations"

// ExpiryHandler is told when a watched auction's end time has passed. The
// server's status is still authoritative, so handlers re-fetch.
type ExpiryHandler func(ctx context.Context, auctionID string)

// ExpiryScheduler keeps this process's watched end times in a Redis sorted
// set. Each process owns its own key, so every watcher of an auction gets
// its own expiry callback.
type ExpiryScheduler struct {
	redis     *redis.Client
	key       string
	tick      time.Duration
	clock     func() time.Time
	onExpired ExpiryHandler
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type ExpirySchedulerParams struct {
	RedisClient *redis.Client
	// Key defaults to a per-process key under auction:expirations
	Key         string
	Tick        time.Duration
	Clock       func() time.Time
	OnExpired   ExpiryHandler
	Logger      zerolog.Logger
}

// NewExpiryScheduler creates a scheduler with its own sorted set
func NewExpiryScheduler(params ExpirySchedulerParams) *ExpiryScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	key := params.Key
	if key == "" {
		key = expiryKeyPrefix + ":" + uuid.NewString()
	}
	tick := params.Tick
	if tick <= 0 {
		tick = time.Second
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &ExpiryScheduler{
		redis:     params.RedisClient,
		key:       key,
		tick:      tick,
		clock:     clock,
		onExpired: params.OnExpired,
		logger:    params.Logger.With().Str("component", "expiry_scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Schedule adds or moves an auction's end time
func (s *ExpiryScheduler) Schedule(ctx context.Context, auctionID string, endTime time.Time) error {
	err := s.redis.ZAdd(ctx, s.key, redis.Z{
		Score:  float64(endTime.Unix()),
		Member: auctionID,
	}).Err()
	if err != nil {
		s.logger.Error().Err(err).Str("auction_id", auctionID).Msg("Failed to schedule auction expiry")
		return fmt.Errorf("failed to schedule auction expiry: %w", err)
	}

	s.logger.Debug().Str("auction_id", auctionID).Time("end_time", endTime).Msg("Auction expiry scheduled")
	return nil
}

// Unschedule stops watching an auction
func (s *ExpiryScheduler) Unschedule(ctx context.Context, auctionID string) error {
	if err := s.redis.ZRem(ctx, s.key, auctionID).Err(); err != nil {
		return fmt.Errorf("failed to unschedule auction expiry: %w", err)
	}
	return nil
}

// Key returns the sorted set holding this scheduler's entries
func (s *ExpiryScheduler) Key() string {
	return s.key
}

func (s *ExpiryScheduler) Start() {
	s.logger.Info().Str("key", s.key).Msg("Starting expiry scheduler")
	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop cancels the loop, waits for in-flight handlers and drops the
// process's schedule
func (s *ExpiryScheduler) Stop() {
	s.cancel()
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("Failed to drop expiry schedule")
	}
	s.logger.Info().Msg("Expiry scheduler stopped")
}

func (s *ExpiryScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkExpired()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ExpiryScheduler) checkExpired() {
	now := s.clock().Unix()

	expired, err := s.redis.ZRangeByScore(s.ctx, s.key, &redis.ZRangeBy{
		Min:   "0",
		Max:   strconv.FormatInt(now, 10),
		Count: 10,
	}).Result()
	if err != nil {
		if s.ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Failed to read expired auctions")
		}
		return
	}

	for _, auctionID := range expired {
		// Removing the member keeps the next tick from firing it again
		removed, err := s.redis.ZRem(s.ctx, s.key, auctionID).Result()
		if err != nil || removed == 0 {
			continue
		}

		s.logger.Info().Str("auction_id", auctionID).Msg("Watched auction passed its end time")
		if s.onExpired == nil {
			continue
		}
		s.wg.Add(1)
		go func(id string) {
			defer s.wg.Done()
			s.onExpired(s.ctx, id)
		}(auctionID)
	}
}
