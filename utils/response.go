package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TraceIDHeader carries the request correlation id in both directions.
const TraceIDHeader = "X-Trace-ID"

const traceIDLocal = "trace_id"

// StandardResponse is the envelope of every REST response.
type StandardResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id"`
}

// ErrorInfo represents detailed error information
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// SuccessResponse creates a successful response
func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(StandardResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
		TraceID:   GetTraceID(c),
	})
}

// CreatedResponse is SuccessResponse with status 201.
func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	c.Status(fiber.StatusCreated)
	return SuccessResponse(c, message, data)
}

// ErrorResponse creates an error response
func ErrorResponse(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	return c.Status(statusCode).JSON(StandardResponse{
		Success: false,
		Message: "Request failed",
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: time.Now(),
		TraceID:   GetTraceID(c),
	})
}

// ValidationErrorResponse creates a validation error response
func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", errors)
}

// NotFoundResponse creates a not found error response
func NotFoundResponse(c *fiber.Ctx, resource string) error {
	return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", resource+" not found", nil)
}

// UnauthorizedResponse creates an unauthorized error response
func UnauthorizedResponse(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

// InternalServerErrorResponse creates an internal server error response
func InternalServerErrorResponse(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Internal server error"
	}
	return ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

// BadRequestResponse creates a bad request error response
func BadRequestResponse(c *fiber.Ctx, message string, details map[string]string) error {
	if message == "" {
		message = "Bad request"
	}
	return ErrorResponse(c, fiber.StatusBadRequest, "BAD_REQUEST", message, details)
}

// GetTraceID returns the request trace id, generating and storing one when absent.
func GetTraceID(c *fiber.Ctx) string {
	if id, ok := c.Locals(traceIDLocal).(string); ok && id != "" {
		return id
	}
	if id := c.Get(TraceIDHeader); id != "" {
		SetTraceID(c, id)
		return id
	}

	id := uuid.New().String()
	SetTraceID(c, id)
	return id
}

// SetTraceID sets a trace ID in the context
func SetTraceID(c *fiber.Ctx, traceID string) {
	c.Locals(traceIDLocal, traceID)
}
