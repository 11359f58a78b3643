package retry

import (
	"context"
	"fmt"
	"time"

	"musewave/logger"
)

// Policy is a bounded retry loop shared by every external-call component, so
// backoff behavior stays consistent and testable in one place.
type Policy struct {
	// MaxAttempts includes the first try. Values below 1 behave as 1.
	MaxAttempts int
	// Backoff returns the wait before attempt n (1-based, consulted after
	// attempt n fails). Nil means no waiting.
	Backoff func(attempt int) time.Duration
	// Retryable reports whether the error is worth another attempt.
	// Nil means every error is retryable.
	Retryable func(err error) bool
	// Sleep exists for tests; nil uses a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// LinearCappedBackoff grows by step per attempt up to cap.
func LinearCappedBackoff(step, cap time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := time.Duration(attempt) * step
		if d > cap {
			return cap
		}
		return d
	}
}

// DoublingCappedBackoff doubles from base per attempt up to cap.
func DoublingCappedBackoff(base, cap time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d >= cap {
				return cap
			}
		}
		if d > cap {
			return cap
		}
		return d
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs op until it succeeds, a non-retryable error occurs, the attempt
// budget is exhausted, or ctx is canceled. The returned error is always the
// last error observed from op (or ctx), never a synthetic one.
func (p Policy) Do(ctx context.Context, label string, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%s canceled after %d attempts: %w", label, attempt-1, lastErr)
			}
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		logger.Warn("Retryable operation failed, backing off",
			logger.String("op", label),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.ErrorField(lastErr))

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("%s canceled during backoff: %w", label, lastErr)
		}
	}

	return lastErr
}
