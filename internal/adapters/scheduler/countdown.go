package scheduler

import (
	"context"
	"sync"
	"time"

	"aucto-auction-client/internal/domain/countdown"

	"github.com/rs/zerolog"
)

// Countdown re-derives the remaining-time label on a fixed tick and reports
// each change. No callback runs once Stop has returned.
type Countdown struct {
	tick   time.Duration
	clock  func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	end     time.Time
	current countdown.Countdown
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type CountdownParams struct {
	Tick   time.Duration
	Clock  func() time.Time
	Logger zerolog.Logger
}

// NewCountdown creates a new stopped countdown ticker
func NewCountdown(params CountdownParams) *Countdown {
	tick := params.Tick
	if tick <= 0 {
		tick = time.Second
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Countdown{
		tick:   tick,
		clock:  clock,
		logger: params.Logger.With().Str("component", "countdown").Logger(),
	}
}

// Start evaluates once immediately and then on every tick. onTick is only
// called when the label changes and must not call Stop.
func (c *Countdown) Start(end time.Time, onTick func(countdown.Countdown)) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.SetEnd(end)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.end = end
	c.current = countdown.Countdown{}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(ctx, onTick)
}

// SetEnd replaces the end time after a re-fetch
func (c *Countdown) SetEnd(end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.end = end
}

// Current is the last evaluated countdown
func (c *Countdown) Current() countdown.Countdown {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop cancels the ticker and waits for the loop. Calling it twice is fine.
func (c *Countdown) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Debug().Msg("Countdown stopped")
}

func (c *Countdown) loop(ctx context.Context, onTick func(countdown.Countdown)) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	c.evaluate(ctx, onTick)
	for {
		select {
		case <-ticker.C:
			c.evaluate(ctx, onTick)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Countdown) evaluate(ctx context.Context, onTick func(countdown.Countdown)) {
	c.mu.Lock()
	end := c.end
	next := countdown.Remaining(c.clock(), end)
	changed := next.Label != c.current.Label
	c.current = next
	c.mu.Unlock()

	if !changed || onTick == nil || ctx.Err() != nil {
		return
	}
	if next.Ended {
		c.logger.Info().Time("end_time", end).Msg("Countdown reached the end time")
	}
	onTick(next)
}
