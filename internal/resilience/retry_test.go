package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(eris.New("flaky"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(_ context.Context) error {
		calls++
		return eris.New("constraint violation")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastRetryConfig(3), func(_ context.Context) error {
		calls++
		return NewTransientError(eris.New("still down"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorContains(t, err, "still down")
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastRetryConfig(5), func(_ context.Context) error {
		calls++
		cancel()
		return NewTransientError(eris.New("down"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoCustomShouldRetry(t *testing.T) {
	cfg := fastRetryConfig(3)
	cfg.ShouldRetry = func(error) bool { return true }

	calls := 0
	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return eris.New("anything retries")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoOnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetryConfig(3)
	cfg.OnRetry = func(attempt int, _ error) { attempts = append(attempts, attempt) }

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(eris.New("down"))
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestComputeBackoffCapsAtMax(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     2 * time.Second,
		Multiplier:     10.0,
		JitterFraction: 0,
	})
	assert.Equal(t, 2*time.Second, computeBackoff(5, cfg))
}
