package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	// StateClosed - requests flow normally
	StateClosed CircuitBreakerState = iota
	// StateOpen - requests are rejected until the timeout elapses
	StateOpen
	// StateHalfOpen - a limited number of probe requests are allowed
	StateHalfOpen
)

// String returns the string representation of the circuit breaker state
func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit
	MaxFailures int
	// Timeout is how long the circuit stays open before probing
	Timeout time.Duration
	// MaxRequests is the number of probes allowed while half-open
	MaxRequests int
	// SuccessThreshold is the number of probe successes that closes the circuit
	SuccessThreshold int
	// Name identifies the breaker in logs and errors
	Name string
}

// DefaultCircuitBreakerConfig returns a default configuration
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
		SuccessThreshold: 1,
		Name:             name,
	}
}

// CircuitBreaker stops calling a failing dependency for a while after repeated failures.
type CircuitBreaker struct {
	config *CircuitBreakerConfig
	clock  Clock
	logger *Logger

	mu               sync.Mutex
	state            CircuitBreakerState
	failures         int
	successes        int
	requests         int
	stateChangedTime time.Time
}

// NewCircuitBreakerWithClock creates a breaker that reads time from clock; nil means
// the real clock.
func NewCircuitBreakerWithClock(config *CircuitBreakerConfig, logger *Logger, clock Clock) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig("default")
	}
	if logger == nil {
		logger = GetLogger()
	}
	if clock == nil {
		clock = RealClock()
	}

	return &CircuitBreaker{
		config:           config,
		clock:            clock,
		logger:           logger,
		state:            StateClosed,
		stateChangedTime: clock.Now(),
	}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.allowRequest() {
		state := cb.GetState()
		return &CircuitBreakerError{
			State:   state,
			Message: fmt.Sprintf("circuit breaker %s is %s", cb.config.Name, state),
		}
	}

	if err := fn(ctx); err != nil {
		cb.recordFailure()
		return err
	}

	cb.recordSuccess()
	return nil
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.clock.Now().Sub(cb.stateChangedTime) < cb.config.Timeout {
			return false
		}
		cb.setState(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.requests >= cb.config.MaxRequests {
			return false
		}
		cb.requests++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.setState(StateClosed)
		} else {
			// free the probe slot for the next half-open request
			cb.requests--
		}
	}
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++

	switch cb.state {
	case StateClosed:
		if cb.failures >= cb.config.MaxFailures {
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.setState(StateOpen)
	}
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(newState CircuitBreakerState) {
	if cb.state == newState {
		return
	}
	oldState := cb.state
	cb.state = newState
	cb.stateChangedTime = cb.clock.Now()
	cb.requests = 0
	cb.successes = 0
	if newState == StateClosed {
		cb.failures = 0
	}

	cb.logger.WithSource("circuit_breaker").Info("Circuit breaker state changed", map[string]interface{}{
		"circuit_breaker": cb.config.Name,
		"old_state":       oldState.String(),
		"new_state":       newState.String(),
	})
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns statistics about the circuit breaker
func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"name":               cb.config.Name,
		"state":              cb.state.String(),
		"failures":           cb.failures,
		"state_changed_time": cb.stateChangedTime,
		"max_failures":       cb.config.MaxFailures,
		"timeout":            cb.config.Timeout.String(),
	}
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
	cb.failures = 0
}

// CircuitBreakerError is returned when a call is rejected by an open circuit
type CircuitBreakerError struct {
	State   CircuitBreakerState
	Message string
}

// Error implements the error interface
func (e *CircuitBreakerError) Error() string {
	return e.Message
}

// IsCircuitBreakerError checks if an error is a circuit breaker error
func IsCircuitBreakerError(err error) bool {
	var cbErr *CircuitBreakerError
	return errors.As(err, &cbErr)
}
