package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shourya0523/Pact-sub000/middleware"
	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/services"
	"github.com/shourya0523/Pact-sub000/utils"
)

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Create(ctx context.Context, req models.CreateNotificationRequest) (models.Notification, error) {
	args := m.Called(req)
	return args.Get(0).(models.Notification), args.Error(1)
}

func (m *MockNotificationService) List(ctx context.Context, userID string, filter services.ListFilter) ([]models.Notification, error) {
	args := m.Called(userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockNotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return m.Called(userID, id).Error(0)
}

func (m *MockNotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) Archive(ctx context.Context, userID, id string) error {
	return m.Called(userID, id).Error(0)
}

func (m *MockNotificationService) Delete(ctx context.Context, userID, id string) error {
	return m.Called(userID, id).Error(0)
}

func setupTestApp(service NotificationServiceInterface) *fiber.App {
	logger := utils.NewLoggerWithWriter("error", "json", io.Discard)
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	NewNotificationHandler(service, logger).RegisterRoutes(app)
	return app
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *utils.ErrorInfo `json:"error"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, userID string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestNotificationHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		userID         string
		expectedFilter *services.ListFilter
		expectedStatus int
	}{
		{
			name:           "default page",
			userID:         "u1",
			expectedFilter: &services.ListFilter{Limit: defaultPageSize},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "filters and pagination",
			query:          "?unread_only=true&archived=true&limit=10&offset=20",
			userID:         "u1",
			expectedFilter: &services.ListFilter{UnreadOnly: true, IncludeArchived: true, Limit: 10, Offset: 20},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "limit out of range",
			query:          "?limit=500",
			userID:         "u1",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing user",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockNotificationService{}
			items := []models.Notification{{ID: "n1", Type: models.NotificationSystem, Title: "Hi", CreatedAt: time.Now()}}
			if tt.expectedFilter != nil {
				service.On("List", tt.userID, *tt.expectedFilter).Return(items, nil)
			}

			resp, env := doRequest(t, setupTestApp(service), http.MethodGet, "/api/notifications"+tt.query, tt.userID, nil)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				var got []models.Notification
				require.NoError(t, json.Unmarshal(env.Data, &got))
				require.Len(t, got, 1)
				assert.Equal(t, "n1", got[0].ID)
			} else {
				assert.False(t, env.Success)
			}
			service.AssertExpectations(t)
		})
	}
}

func TestNotificationHandler_Create(t *testing.T) {
	t.Run("stores and returns 201", func(t *testing.T) {
		service := &MockNotificationService{}
		req := models.CreateNotificationRequest{UserID: "u1", Type: "partner_nudge", Title: "Time to stretch"}
		service.On("Create", req).Return(models.Notification{ID: "n1", Type: "partner_nudge", Title: "Time to stretch", TimeAgo: models.JustNow}, nil)

		resp, env := doRequest(t, setupTestApp(service), http.MethodPost, "/api/notifications", "", req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		var got models.Notification
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "n1", got.ID)
		service.AssertExpectations(t)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		service := &MockNotificationService{}

		resp, env := doRequest(t, setupTestApp(service), http.MethodPost, "/api/notifications", "",
			models.CreateNotificationRequest{UserID: "u1", Type: "system"})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.NotNil(t, env.Error)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Contains(t, env.Error.Details, "title")
		service.AssertNotCalled(t, "Create", mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		service := &MockNotificationService{}
		service.On("Create", mock.Anything).Return(models.Notification{}, errors.New("disk full"))

		resp, env := doRequest(t, setupTestApp(service), http.MethodPost, "/api/notifications", "",
			models.CreateNotificationRequest{UserID: "u1", Type: "system", Title: "x"})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.False(t, env.Success)
	})
}

func TestNotificationHandler_UnreadCount(t *testing.T) {
	service := &MockNotificationService{}
	service.On("UnreadCount", "u1").Return(4, nil)

	resp, env := doRequest(t, setupTestApp(service), http.MethodGet, "/api/notifications/unread-count", "u1", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.UnreadCountResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 4, got.Count)
}

func TestNotificationHandler_Mutations(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		path           string
		mockMethod     string
		err            error
		expectedStatus int
	}{
		{"mark read", http.MethodPatch, "/api/notifications/n1/read", "MarkRead", nil, http.StatusOK},
		{"mark read missing", http.MethodPatch, "/api/notifications/n1/read", "MarkRead", services.ErrNotificationNotFound, http.StatusNotFound},
		{"archive", http.MethodPatch, "/api/notifications/n1/archive", "Archive", nil, http.StatusOK},
		{"delete", http.MethodDelete, "/api/notifications/n1", "Delete", nil, http.StatusOK},
		{"delete missing", http.MethodDelete, "/api/notifications/n1", "Delete", services.ErrNotificationNotFound, http.StatusNotFound},
		{"delete failure", http.MethodDelete, "/api/notifications/n1", "Delete", errors.New("locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockNotificationService{}
			service.On(tt.mockMethod, "u1", "n1").Return(tt.err)

			resp, env := doRequest(t, setupTestApp(service), tt.method, tt.path, "u1", nil)

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			assert.Equal(t, tt.err == nil, env.Success)
			service.AssertExpectations(t)
		})
	}
}

func TestNotificationHandler_MarkAllRead(t *testing.T) {
	service := &MockNotificationService{}
	service.On("MarkAllRead", "u1").Return(3, nil)

	resp, env := doRequest(t, setupTestApp(service), http.MethodPatch, "/api/notifications/read-all", "u1", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 3, got.Updated)
}
