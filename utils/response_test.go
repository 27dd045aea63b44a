package utils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		handler    fiber.Handler
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "not found",
			handler:    func(c *fiber.Ctx) error { return NotFoundResponse(c, "Notification") },
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
			wantMsg:    "Notification not found",
		},
		{
			name:       "unauthorized default message",
			handler:    func(c *fiber.Ctx) error { return UnauthorizedResponse(c, "") },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
			wantMsg:    "Unauthorized access",
		},
		{
			name:       "internal default message",
			handler:    func(c *fiber.Ctx) error { return InternalServerErrorResponse(c, "") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "Internal server error",
		},
		{
			name:       "bad request",
			handler:    func(c *fiber.Ctx) error { return BadRequestResponse(c, "title is required", nil) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
			wantMsg:    "title is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", tt.handler)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeEnvelope(t, resp.Body)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.NotEmpty(t, body.TraceID)
		})
	}
}

func TestSuccessResponse_CarriesData(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return SuccessResponse(c, "Unread count", map[string]int{"count": 3})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp.Body)
	assert.True(t, body.Success)
	assert.Equal(t, "Unread count", body.Message)
	assert.Equal(t, map[string]interface{}{"count": float64(3)}, body.Data)
	assert.Nil(t, body.Error)
}

func TestGetTraceID(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		first := GetTraceID(c)
		assert.Equal(t, first, GetTraceID(c))
		return c.SendString(first)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TraceIDHeader, "trace-abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "trace-abc", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, string(body), 36)
}
