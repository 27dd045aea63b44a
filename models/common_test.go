package models

import (
	"strings"
	"testing"

	"github.com/shourya0523/Pact-sub000/utils"
	"github.com/stretchr/testify/assert"
)

func TestCreateNotificationRequestValidation(t *testing.T) {
	validator := utils.NewValidator()

	tests := []struct {
		name      string
		request   CreateNotificationRequest
		wantValid bool
		wantError string
	}{
		{
			name: "valid nudge",
			request: CreateNotificationRequest{
				UserID: "u1",
				Type:   string(NotificationPartnerNudge),
				Title:  "Ping!",
			},
			wantValid: true,
		},
		{
			name: "missing user id",
			request: CreateNotificationRequest{
				Type:  string(NotificationSystem),
				Title: "Welcome",
			},
			wantError: "user_id",
		},
		{
			name: "blank title",
			request: CreateNotificationRequest{
				UserID: "u1",
				Type:   string(NotificationSystem),
				Title:  "   ",
			},
			wantError: "title",
		},
		{
			name: "title too long",
			request: CreateNotificationRequest{
				UserID: "u1",
				Type:   string(NotificationSystem),
				Title:  strings.Repeat("x", 121),
			},
			wantError: "title",
		},
		{
			name: "message too long",
			request: CreateNotificationRequest{
				UserID:  "u1",
				Type:    string(NotificationSystem),
				Title:   "Welcome",
				Message: strings.Repeat("x", 1001),
			},
			wantError: "message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.ValidateStruct(tt.request)

			assert.Equal(t, tt.wantValid, result.IsValid, "errors: %v", result.Errors)
			if tt.wantError != "" {
				assert.Contains(t, result.Errors, tt.wantError)
			}
		})
	}
}

func TestHeartbeatTokens(t *testing.T) {
	assert.Equal(t, "ping", HeartbeatPing)
	assert.Equal(t, "pong", HeartbeatPong)
	assert.Equal(t, 1000, CloseNormalClosure)
}
