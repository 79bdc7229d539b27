// Package retry runs an operation again with backoff until it succeeds,
// reports a permanent error, or runs out of attempts.
package retry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	defaultDelay    = time.Second
	defaultMaxDelay = 30 * time.Second
)

type Backoff func(attempt int) time.Duration

type ShouldRetry func(error) bool

type Config struct {
	MaxAttempts int
	Backoff     Backoff
	ShouldRetry ShouldRetry
}

// Default is three retries after the first attempt, doubling from one
// second and capped at thirty.
func Default() Config {
	return Config{
		MaxAttempts: 4,
		Backoff:     ExponentialBackoff(defaultDelay, defaultMaxDelay),
	}
}

func (c *Config) normalize() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}

	if c.Backoff == nil {
		c.Backoff = ExponentialBackoff(defaultDelay, defaultMaxDelay)
	}

	if c.ShouldRetry == nil {
		c.ShouldRetry = alwaysRetry
	}
}

func alwaysRetry(error) bool {
	return true
}

// ExponentialBackoff doubles delay on every attempt, adds up to half of it
// as jitter, and never waits longer than max.
func ExponentialBackoff(delay, max time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt > 32 {
			attempt = 32
		}
		base := delay << (attempt - 1)
		if base <= 0 || base > max {
			base = max
		}
		half := int64(base / 2)
		if half <= 0 {
			return base
		}
		return base + time.Duration(rand.Int64N(half))
	}
}

func ConstantBackoff(delay time.Duration) Backoff {
	return func(int) time.Duration {
		return delay
	}
}

func Do(ctx context.Context, c Config, fn func() error) error {
	_, err := DoWithResult(ctx, c, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func DoWithResult[T any](ctx context.Context, c Config, fn func() (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.normalize()

	var (
		result T
		err    error
	)
	for attempt := 1; ; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if attempt == c.MaxAttempts || !c.ShouldRetry(err) {
			return zero, err
		}

		timer := time.NewTimer(c.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%w: %w", ctx.Err(), err)
		case <-timer.C:
		}
	}
}
