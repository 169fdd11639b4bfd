package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripBreaker(cb *CircuitBreaker, failures int) {
	for i := 0; i < failures; i++ {
		_ = cb.Execute(context.Background(), func(_ context.Context) error {
			return eris.New("down")
		})
	}
}

func TestCircuitClosedPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})

	calls := 0
	err := cb.Execute(context.Background(), func(_ context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	tripBreaker(cb, 3)

	require.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), func(_ context.Context) error {
		t.Fatal("must not be called while open")
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	tripBreaker(cb, 2)

	require.NoError(t, cb.Execute(context.Background(), func(_ context.Context) error { return nil }))

	tripBreaker(cb, 2)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	tripBreaker(cb, 2)
	require.Equal(t, CircuitOpen, cb.State())

	// Advance past the reset timeout; the probe succeeds and closes the circuit.
	now = now.Add(2 * time.Minute)
	err := cb.Execute(context.Background(), func(_ context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitHalfOpenProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	now := time.Now()
	cb.nowFunc = func() time.Time { return now }
	tripBreaker(cb, 2)

	now = now.Add(2 * time.Minute)
	err := cb.Execute(context.Background(), func(_ context.Context) error { return eris.New("still down") })
	require.Error(t, err)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	tripBreaker(cb, 1)
	assert.Equal(t, []string{"closed->open"}, transitions)
}
