package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(ctx context.Context) error { return errors.New("upstream down") }
func passing(ctx context.Context) error { return nil }

func TestCircuitBreaker_InitialState(t *testing.T) {
	cb := NewCircuitBreakerWithClock(DefaultCircuitBreakerConfig("inventory"), quietLogger(), nil)

	assert.Equal(t, StateClosed, cb.GetState())
	stats := cb.GetStats()
	assert.Equal(t, "inventory", stats["name"])
	assert.Equal(t, "CLOSED", stats["state"])
	assert.Equal(t, 0, stats["failures"])
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	cb := NewCircuitBreakerWithClock(&CircuitBreakerConfig{
		MaxFailures:      2,
		Timeout:          time.Second,
		MaxRequests:      1,
		SuccessThreshold: 1,
		Name:             "test",
	}, quietLogger(), clock)

	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failing))
	assert.Equal(t, StateClosed, cb.GetState())

	require.Error(t, cb.Execute(ctx, failing))
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, IsCircuitBreakerError(err))
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	cb := NewCircuitBreakerWithClock(&CircuitBreakerConfig{
		MaxFailures:      1,
		Timeout:          time.Second,
		MaxRequests:      1,
		SuccessThreshold: 1,
		Name:             "test",
	}, quietLogger(), clock)

	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failing))
	require.Equal(t, StateOpen, cb.GetState())

	clock.Advance(time.Second)
	require.NoError(t, cb.Execute(ctx, passing))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	cb := NewCircuitBreakerWithClock(&CircuitBreakerConfig{
		MaxFailures:      1,
		Timeout:          time.Second,
		MaxRequests:      1,
		SuccessThreshold: 2,
		Name:             "test",
	}, quietLogger(), clock)

	ctx := context.Background()
	require.Error(t, cb.Execute(ctx, failing))

	clock.Advance(time.Second)
	require.Error(t, cb.Execute(ctx, failing))
	assert.Equal(t, StateOpen, cb.GetState())

	err := cb.Execute(ctx, passing)
	assert.True(t, IsCircuitBreakerError(err))
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreakerWithClock(&CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Hour, MaxRequests: 1, SuccessThreshold: 1, Name: "test"}, quietLogger(), nil)

	require.Error(t, cb.Execute(context.Background(), failing))
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, cb.Execute(context.Background(), passing))
}

func TestCircuitBreakerState_String(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
	assert.Equal(t, "UNKNOWN", CircuitBreakerState(42).String())
}
