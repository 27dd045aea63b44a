package utils

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// RecoveryHandler turns panics in guarded callbacks into log entries.
type RecoveryHandler struct {
	logger *Logger
	source string

	mu            sync.Mutex
	panicCount    int
	lastPanicTime time.Time
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(logger *Logger, source string) *RecoveryHandler {
	if logger == nil {
		logger = GetLogger()
	}
	if source == "" {
		source = "recovery_handler"
	}

	return &RecoveryHandler{
		logger: logger,
		source: source,
	}
}

// Guard runs fn and converts a panic into an error. The panic is logged with its stack.
func (rh *RecoveryHandler) Guard(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
			rh.handlePanic(name, r)
		}
	}()

	fn()
	return nil
}

// GuardErr is Guard for callbacks that return an error.
func (rh *RecoveryHandler) GuardErr(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", name, r)
			rh.handlePanic(name, r)
		}
	}()

	return fn()
}

func (rh *RecoveryHandler) handlePanic(name string, panicValue interface{}) {
	rh.mu.Lock()
	rh.panicCount++
	rh.lastPanicTime = time.Now()
	count := rh.panicCount
	rh.mu.Unlock()

	stackTrace := make([]byte, 4096)
	stackTrace = stackTrace[:runtime.Stack(stackTrace, false)]

	rh.logger.WithSource(rh.source).Error("Panic recovered", fmt.Errorf("panic: %v", panicValue), map[string]interface{}{
		"callback":    name,
		"stack_trace": string(stackTrace),
		"panic_count": count,
	})
}

// PanicCount returns the number of panics recovered so far.
func (rh *RecoveryHandler) PanicCount() int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return rh.panicCount
}

// GracefulShutdown runs registered shutdown functions in reverse registration order.
type GracefulShutdown struct {
	shutdownFuncs []namedShutdown
	timeout       time.Duration
	logger        *Logger
	mu            sync.Mutex
}

type namedShutdown struct {
	name string
	fn   func(context.Context) error
}

// NewGracefulShutdown creates a new graceful shutdown handler
func NewGracefulShutdown(timeout time.Duration, logger *Logger) *GracefulShutdown {
	if logger == nil {
		logger = GetLogger()
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GracefulShutdown{
		timeout: timeout,
		logger:  logger,
	}
}

// RegisterShutdown registers a shutdown function
func (gs *GracefulShutdown) RegisterShutdown(name string, shutdownFunc func(context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.shutdownFuncs = append(gs.shutdownFuncs, namedShutdown{name: name, fn: shutdownFunc})
}

// Shutdown performs graceful shutdown
func (gs *GracefulShutdown) Shutdown(ctx context.Context) error {
	gs.mu.Lock()
	funcs := append([]namedShutdown(nil), gs.shutdownFuncs...)
	gs.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, gs.timeout)
	defer cancel()

	log := gs.logger.WithSource("graceful_shutdown")
	log.Info("Starting graceful shutdown", map[string]interface{}{
		"shutdown_funcs": len(funcs),
		"timeout":        gs.timeout.String(),
	})

	var errs []error
	for i := len(funcs) - 1; i >= 0; i-- {
		sd := funcs[i]

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("shutdown %s panicked: %v", sd.name, r)
				}
			}()
			return sd.fn(shutdownCtx)
		}()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sd.name, err))
			log.Error("Shutdown function failed", err, map[string]interface{}{"name": sd.name})
		}

		if shutdownCtx.Err() != nil {
			log.Warn("Shutdown timeout reached", map[string]interface{}{"remaining_functions": i})
			return shutdownCtx.Err()
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Info("Graceful shutdown completed successfully")
	return nil
}
