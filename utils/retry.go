package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// RetryConfig holds configuration for retry mechanisms
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, the first one included
	MaxAttempts int
	// InitialDelay is the delay before the second attempt
	InitialDelay time.Duration
	// MaxDelay caps the delay between attempts
	MaxDelay time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
	// Jitter adds up to 10% randomness to each delay
	Jitter bool
	// RetryableErrors are matched with errors.Is
	RetryableErrors []error
	// RetryCondition overrides the default classification when set
	RetryCondition func(error) bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          5 * time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// RetryableError wraps the last error returned by a retried operation
type RetryableError struct {
	Err       error
	Retryable bool
	Attempt   int
}

// Error implements the error interface
func (e *RetryableError) Error() string {
	return fmt.Sprintf("attempt %d: %v", e.Attempt, e.Err)
}

// Unwrap returns the underlying error
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryableError reports whether err is a RetryableError that exhausted its attempts.
func IsRetryableError(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return false
}

// RetryExecutor runs an operation until it succeeds, fails permanently or runs out of attempts.
type RetryExecutor struct {
	config *RetryConfig
	logger *Logger
}

// NewRetryExecutor creates a new retry executor
func NewRetryExecutor(config *RetryConfig, logger *Logger) *RetryExecutor {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if logger == nil {
		logger = GetLogger()
	}

	return &RetryExecutor{
		config: config,
		logger: logger,
	}
}

// Execute executes a function with retry logic
func (re *RetryExecutor) Execute(ctx context.Context, operation func(context.Context) error) error {
	log := re.logger.WithSource("retry_executor")
	var lastErr error

	for attempt := 1; attempt <= re.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info("Operation succeeded after retry", map[string]interface{}{
					"attempt":        attempt,
					"total_attempts": re.config.MaxAttempts,
				})
			}
			return nil
		}

		lastErr = err

		if !re.isRetryable(err) {
			return &RetryableError{Err: err, Retryable: false, Attempt: attempt}
		}

		if attempt == re.config.MaxAttempts {
			break
		}

		delay := ExponentialBackoff(attempt, re.config.InitialDelay, re.config.MaxDelay, re.config.BackoffMultiplier, re.config.Jitter)

		log.Warn("Operation failed, retrying", map[string]interface{}{
			"error":        err.Error(),
			"attempt":      attempt,
			"max_attempts": re.config.MaxAttempts,
			"retry_delay":  delay.String(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	log.Error("All retry attempts failed", lastErr, map[string]interface{}{
		"max_attempts": re.config.MaxAttempts,
	})

	return &RetryableError{Err: lastErr, Retryable: true, Attempt: re.config.MaxAttempts}
}

func (re *RetryExecutor) isRetryable(err error) bool {
	if IsCircuitBreakerError(err) {
		return false
	}
	if re.config.RetryCondition != nil {
		return re.config.RetryCondition(err)
	}
	for _, retryableErr := range re.config.RetryableErrors {
		if errors.Is(err, retryableErr) {
			return true
		}
	}
	return IsTransientError(err)
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"timeout",
	"temporary failure",
	"service unavailable",
	"too many requests",
	"network is unreachable",
	"no route to host",
	"broken pipe",
	"eof",
}

// IsTransientError classifies network-level failures that are worth retrying.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// ExponentialBackoff calculates exponential backoff delay
func ExponentialBackoff(attempt int, initialDelay, maxDelay time.Duration, multiplier float64, jitter bool) time.Duration {
	delay := float64(initialDelay) * math.Pow(multiplier, float64(attempt-1))
	return capAndJitter(delay, maxDelay, jitter)
}

// LinearBackoff returns initialDelay*attempt, capped at maxDelay when maxDelay > 0.
func LinearBackoff(attempt int, initialDelay, maxDelay time.Duration, jitter bool) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return capAndJitter(float64(initialDelay)*float64(attempt), maxDelay, jitter)
}

func capAndJitter(delay float64, maxDelay time.Duration, jitter bool) time.Duration {
	if maxDelay > 0 && delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	if jitter {
		delay += rand.Float64() * 0.1 * delay
	}
	return time.Duration(delay)
}
