package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shourya0523/Pact-sub000/utils"
)

func decode(t *testing.T, resp *http.Response) utils.StandardResponse {
	t.Helper()
	var body utils.StandardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLoggerWithWriter("info", "json", &buf)

	app := fiber.New()
	app.Use(CorrelationID())
	app.Use(RequestLogging(LoggingConfig{Logger: logger, SkipPaths: []string{"/health"}}))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("Healthy") })
	app.Get("/api/notifications", func(c *fiber.Ctx) error { return c.SendString("OK") })
	app.Get("/api/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	tests := []struct {
		name      string
		path      string
		wantLog   bool
		wantLevel string
	}{
		{"logs success", "/api/notifications", true, "INFO"},
		{"logs client error", "/api/missing", true, "WARN"},
		{"skips health", "/health", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set(UserIDHeader, "u1")
			_, err := app.Test(req)
			require.NoError(t, err)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}
			var entry utils.LogEntry
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "http", entry.Source)
			assert.Equal(t, tt.path, entry.Context["path"])
			assert.Equal(t, "u1", entry.Context["user_id"])
			assert.NotEmpty(t, entry.Context["request_id"])
		})
	}
}

func TestRequestLogging_SkipSuccessLogs(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestLogging(LoggingConfig{Logger: utils.NewLoggerWithWriter("info", "json", &buf), SkipSuccessLogs: true}))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("OK") })

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestCorrelationID(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(utils.GetTraceID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(utils.TraceIDHeader, "trace-1")
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "trace-1", resp.Header.Get(utils.TraceIDHeader))
	assert.Equal(t, "req-1", resp.Header.Get(RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(utils.TraceIDHeader), 36)
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
}

func TestPanicRecovery(t *testing.T) {
	for _, showStack := range []bool{false, true} {
		app := fiber.New()
		app.Use(PanicRecovery(ErrorHandlingConfig{
			Logger:         utils.NewLoggerWithWriter("error", "json", &bytes.Buffer{}),
			ShowStackTrace: showStack,
		}))
		app.Get("/boom", func(c *fiber.Ctx) error { panic("listener exploded") })

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		body := decode(t, resp)
		require.NotNil(t, body.Error)
		assert.Equal(t, "PANIC_RECOVERED", body.Error.Code)
		if showStack {
			assert.Equal(t, "listener exploded", body.Error.Details["panic_value"])
		} else {
			assert.Empty(t, body.Error.Details)
		}
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"open circuit", &utils.CircuitBreakerError{State: utils.StateOpen, Message: "circuit breaker inventory is open"}, http.StatusServiceUnavailable, "CIRCUIT_BREAKER_OPEN"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "REQUEST_TIMEOUT"},
		{"cancelled", context.Canceled, http.StatusRequestTimeout, "REQUEST_CANCELLED"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{
				ErrorHandler: ErrorHandler(utils.NewLoggerWithWriter("error", "json", &bytes.Buffer{})),
			})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decode(t, resp)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
		})
	}
}

func TestNotFoundHandler(t *testing.T) {
	app := fiber.New()
	app.Use(NotFoundHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Endpoint not found", decode(t, resp).Error.Message)
}

func TestRequireUserID(t *testing.T) {
	app := fiber.New()
	app.Get("/me", RequireUserID(), func(c *fiber.Ctx) error { return c.SendString(UserID(c)) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decode(t, resp).Error.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(UserIDHeader, " u1 ")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw := new(bytes.Buffer)
	_, _ = raw.ReadFrom(resp.Body)
	assert.Equal(t, "u1", raw.String())
}

func TestCORS(t *testing.T) {
	app := fiber.New()
	app.Use(CORS("http://localhost:19006"))
	app.Get("/api/notifications", func(c *fiber.Ctx) error { return c.SendString("OK") })

	req := httptest.NewRequest(http.MethodOptions, "/api/notifications", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:19006", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), UserIDHeader)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)
}
