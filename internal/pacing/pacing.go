// Package pacing produces the randomized human-like delays that gate every
// automation step of a run. The intervals are a deliberate anti-detection
// requirement: sustained uniform throughput is what abuse heuristics look
// for, so every delay is drawn uniformly from a configured range and the
// long cooldown fires after a re-drawn random number of recipients.
package pacing

import (
	"context"
	"math/rand"
	"time"
)

// Interval is a closed [Min,Max] delay range. Draws are uniform.
type Interval struct {
	Min time.Duration
	Max time.Duration
}

// IsZero reports whether the interval produces no delay at all.
func (iv Interval) IsZero() bool { return iv.Min <= 0 && iv.Max <= 0 }

// Seconds builds an interval from whole-second bounds.
func Seconds(lo, hi int) Interval {
	return Interval{Min: time.Duration(lo) * time.Second, Max: time.Duration(hi) * time.Second}
}

// Config holds the delay families of one run.
type Config struct {
	// InterAction gates consecutive automation actions for one recipient.
	InterAction Interval
	// InterMessage gates the hop from one recipient to the next.
	InterMessage Interval
	// Cooldown is the long rest taken every CooldownEvery recipients.
	Cooldown Interval
	// CooldownEveryMin/Max bound the recipient count between cooldowns.
	// The trigger count is redrawn after every cooldown.
	CooldownEveryMin int
	CooldownEveryMax int
}

// DefaultConfig mirrors the cadence of a careful human operator.
func DefaultConfig() Config {
	return Config{
		InterAction:      Interval{Min: 1400 * time.Millisecond, Max: 2 * time.Second},
		InterMessage:     Interval{Min: time.Second, Max: 2 * time.Second},
		Cooldown:         Seconds(80, 100),
		CooldownEveryMin: 12,
		CooldownEveryMax: 20,
	}
}

// Controller draws and applies the delays for one run. Not safe for
// concurrent use; a run is strictly sequential.
type Controller struct {
	cfg          Config
	rng          *rand.Rand
	processed    int
	nextCooldown int
}

// New builds a controller. A nil rng gets a time-seeded source.
func New(cfg Config, rng *rand.Rand) *Controller {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c := &Controller{cfg: cfg, rng: rng}
	c.nextCooldown = c.drawCooldownEvery()
	return c
}

// InterAction sleeps between two automation actions for the same recipient.
func (c *Controller) InterAction(ctx context.Context) error {
	return c.sleep(ctx, c.Draw(c.cfg.InterAction))
}

// InterMessage sleeps between finishing one recipient and starting the next.
func (c *Controller) InterMessage(ctx context.Context) error {
	return c.sleep(ctx, c.Draw(c.cfg.InterMessage))
}

// RecipientDone counts a processed recipient and takes the long cooldown when
// the drawn trigger count is reached, then redraws it.
func (c *Controller) RecipientDone(ctx context.Context) error {
	c.processed++
	if c.nextCooldown <= 0 || c.processed < c.nextCooldown {
		return nil
	}
	c.processed = 0
	c.nextCooldown = c.drawCooldownEvery()
	return c.sleep(ctx, c.Draw(c.cfg.Cooldown))
}

// BatchDelay sleeps between two batches.
func (c *Controller) BatchDelay(ctx context.Context, iv Interval) error {
	return c.sleep(ctx, c.Draw(iv))
}

// Draw picks a uniform duration from the interval.
func (c *Controller) Draw(iv Interval) time.Duration {
	if iv.IsZero() || iv.Max <= iv.Min {
		return iv.Min
	}
	return iv.Min + time.Duration(c.rng.Int63n(int64(iv.Max-iv.Min)+1))
}

func (c *Controller) drawCooldownEvery() int {
	lo, hi := c.cfg.CooldownEveryMin, c.cfg.CooldownEveryMax
	if lo <= 0 {
		return 0
	}
	if hi <= lo {
		return lo
	}
	return lo + c.rng.Intn(hi-lo+1)
}

// sleep waits for d, giving up early when ctx is cancelled. Delays are the
// run's suspension points; cancellation is honored here, never mid-action.
func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	tmr := time.NewTimer(d)
	defer tmr.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
