package middleware

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/shourya0523/Pact-sub000/utils"
)

// ErrorHandlingConfig holds error handling configuration
type ErrorHandlingConfig struct {
	Logger         *utils.Logger
	ShowStackTrace bool
}

// DefaultErrorHandlingConfig returns default error handling configuration
func DefaultErrorHandlingConfig() ErrorHandlingConfig {
	return ErrorHandlingConfig{
		Logger: utils.GetLogger(),
	}
}

// PanicRecovery turns a handler panic into a 500 envelope.
func PanicRecovery(config ...ErrorHandlingConfig) fiber.Handler {
	cfg := DefaultErrorHandlingConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())
				cfg.Logger.WithTraceID(utils.GetTraceID(c)).WithSource("panic").Error(
					"Panic recovered", fmt.Errorf("panic: %v", r), map[string]interface{}{
						"method":      c.Method(),
						"path":        c.Path(),
						"stack_trace": stackTrace,
					})

				var details map[string]string
				if cfg.ShowStackTrace {
					details = map[string]string{
						"panic_value": fmt.Sprintf("%v", r),
						"stack_trace": stackTrace,
					}
				}
				err = utils.ErrorResponse(c, fiber.StatusInternalServerError,
					"PANIC_RECOVERED", "An unexpected error occurred", details)
			}
		}()

		return c.Next()
	}
}

// ErrorHandler is the application's fiber.ErrorHandler; every error leaves as a
// standard envelope.
func ErrorHandler(logger *utils.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = utils.GetLogger()
	}

	return func(c *fiber.Ctx, err error) error {
		statusCode, errorCode, message := categorizeError(err)

		context := map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status_code": statusCode,
		}
		l := logger.WithTraceID(utils.GetTraceID(c)).WithSource("error")
		if statusCode >= 500 {
			l.Error("Request error", err, context)
		} else {
			l.Debug("Request rejected", context)
		}

		return utils.ErrorResponse(c, statusCode, errorCode, message, nil)
	}
}

// NotFoundHandler answers unmatched routes.
func NotFoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.NotFoundResponse(c, "Endpoint")
	}
}

func categorizeError(err error) (statusCode int, errorCode, message string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, mapFiberErrorCode(fiberErr.Code), fiberErr.Message
	case utils.IsCircuitBreakerError(err):
		return fiber.StatusServiceUnavailable, "CIRCUIT_BREAKER_OPEN", "Service temporarily unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "REQUEST_TIMEOUT", "Request timeout exceeded"
	case errors.Is(err, context.Canceled):
		return fiber.StatusRequestTimeout, "REQUEST_CANCELLED", "Request was cancelled"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal error occurred"
	}
}

func mapFiberErrorCode(statusCode int) string {
	switch statusCode {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case fiber.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case fiber.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		if statusCode >= 500 {
			return "INTERNAL_SERVER_ERROR"
		}
		return "REQUEST_FAILED"
	}
}
