// Package resilience provides retry and circuit-breaking primitives for
// calls into the external browser tool.
package resilience

import (
	"context"
	"time"
)

// SleepFunc pauses for the given duration or until the context is done.
// Injectable so tests can record the backoff schedule without waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy retries an operation with pure exponential backoff. Delay before
// retry i (zero-based attempt index) is BaseDelay * 2^i. No jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
}

// NewPolicy creates a retry policy with the context-aware default sleep.
func NewPolicy(maxAttempts int, baseDelay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Sleep:       sleepContext,
	}
}

// Do runs op up to MaxAttempts times. The last attempt's error is returned
// unchanged. A context cancellation during backoff aborts the loop.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		delay := p.BaseDelay << uint(attempt)
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
