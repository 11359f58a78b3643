package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, Sleep: noSleep}

	calls := 0
	err := p.Do(context.Background(), "op", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := Policy{MaxAttempts: 5, Sleep: noSleep}

	calls := 0
	err := p.Do(context.Background(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{MaxAttempts: 4, Sleep: noSleep}

	lastErr := errors.New("still broken")
	calls := 0
	err := p.Do(context.Background(), "op", func() error {
		calls++
		return lastErr
	})

	assert.Equal(t, 4, calls)
	assert.Equal(t, lastErr, err)
}

func TestDoNonRetryableShortCircuits(t *testing.T) {
	fatal := errors.New("fatal")
	p := Policy{
		MaxAttempts: 5,
		Sleep:       noSleep,
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}

	calls := 0
	err := p.Do(context.Background(), "op", func() error {
		calls++
		return fatal
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, fatal, err)
}

func TestDoConsultsBackoffPerAttempt(t *testing.T) {
	var waits []time.Duration
	p := Policy{
		MaxAttempts: 3,
		Backoff:     LinearCappedBackoff(time.Second, 10*time.Second),
		Sleep: func(ctx context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	_ = p.Do(context.Background(), "op", func() error {
		return errors.New("transient")
	})

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestDoCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Policy{MaxAttempts: 3, Sleep: noSleep}
	calls := 0
	err := p.Do(ctx, "op", func() error {
		calls++
		return errors.New("transient")
	})

	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestLinearCappedBackoff(t *testing.T) {
	backoff := LinearCappedBackoff(2500*time.Millisecond, 12*time.Second)

	assert.Equal(t, 2500*time.Millisecond, backoff(1))
	assert.Equal(t, 5000*time.Millisecond, backoff(2))
	assert.Equal(t, 10*time.Second, backoff(4))
	assert.Equal(t, 12*time.Second, backoff(5))
	assert.Equal(t, 12*time.Second, backoff(100))
}

func TestDoublingCappedBackoff(t *testing.T) {
	backoff := DoublingCappedBackoff(time.Second, 8*time.Second)

	assert.Equal(t, time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
	assert.Equal(t, 4*time.Second, backoff(3))
	assert.Equal(t, 8*time.Second, backoff(4))
	assert.Equal(t, 8*time.Second, backoff(10))
}
