package harvest

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy bounds the attempts on one tile. With Multiplier <= 1 the delay
// between attempts is fixed at Backoff; otherwise it grows geometrically.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Multiplier  float64
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Backoff
	if p.Multiplier <= 1 {
		return d
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return d
}

// Do runs fn until it succeeds or MaxAttempts is reached, waiting on clock
// between attempts. A cancelled ctx stops the loop and returns ctx.Err().
func (p RetryPolicy) Do(ctx context.Context, clock Clock, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < p.MaxAttempts {
			if err := clock.Sleep(ctx, p.Delay(attempt)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}
