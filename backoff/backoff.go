// Package backoff provides delay strategies for polling a held job lock.
// All strategies are stateless and safe for concurrent use.
package backoff

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before acquisition attempt n (1-indexed).
// Attempt 1 is the first retry after the lock was found held.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Constant always returns the same delay.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration { return c.Interval }

// Exponential doubles the delay each attempt.
// Delay = min(Initial * 2^(attempt-1), Max).
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
}

// NewExponential creates an exponential strategy.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns Initial * 2^(attempt-1), capped at Max.
func (e *Exponential) Delay(attempt int) time.Duration {
	return capped(e.Initial, e.Max, attempt)
}

// EqualJitter keeps half of the exponential delay and randomizes the other
// half, so waiters on one key spread out but never spin with a zero delay.
// Delay is in [base/2, base] where base = min(Initial * 2^(attempt-1), Max).
type EqualJitter struct {
	Initial time.Duration
	Max     time.Duration
}

// NewEqualJitter creates an exponential strategy with equal jitter.
func NewEqualJitter(initial, maxDelay time.Duration) *EqualJitter {
	return &EqualJitter{Initial: initial, Max: maxDelay}
}

// Delay returns a duration in [base/2, base].
func (e *EqualJitter) Delay(attempt int) time.Duration {
	base := capped(e.Initial, e.Max, attempt)
	half := base / 2
	return half + time.Duration(rand.Float64()*float64(base-half)) //nolint:gosec // jitter does not need crypto rand
}

// DefaultStrategy returns the strategy the runner uses when waiting on a
// held lock: equal jitter from 25ms up to 1s.
func DefaultStrategy() Strategy {
	return NewEqualJitter(25*time.Millisecond, time.Second)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func capped(initial, maxDelay time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(initial) * math.Pow(2, float64(attempt-1))
	if maxDelay > 0 && d > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}
