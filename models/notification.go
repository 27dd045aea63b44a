package models

import (
	"fmt"
	"time"
)

// NotificationType is the category of a notification.
type NotificationType string

const (
	NotificationPartnerRequest  NotificationType = "partner_request"
	NotificationPartnerAccepted NotificationType = "partner_accepted"
	NotificationPartnerNudge    NotificationType = "partner_nudge"
	NotificationHabitReminder   NotificationType = "habit_reminder"
	NotificationHabitCompleted  NotificationType = "habit_completed"
	NotificationGoalProgress    NotificationType = "goal_progress"
	NotificationGoalCompleted   NotificationType = "goal_completed"
	NotificationStreakMilestone NotificationType = "streak_milestone"
	NotificationSystem          NotificationType = "system"
)

// KnownNotificationTypes lists the categories the app renders with a dedicated icon.
// Unknown categories are still delivered.
var KnownNotificationTypes = []NotificationType{
	NotificationPartnerRequest,
	NotificationPartnerAccepted,
	NotificationPartnerNudge,
	NotificationHabitReminder,
	NotificationHabitCompleted,
	NotificationGoalProgress,
	NotificationGoalCompleted,
	NotificationStreakMilestone,
	NotificationSystem,
}

// IsKnown reports whether t is one of KnownNotificationTypes.
func (t NotificationType) IsKnown() bool {
	for _, known := range KnownNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// JustNow is the time label of a notification that was just received.
const JustNow = "Just now"

// Notification is the display-ready shape handed to listeners and returned by the inventory.
type Notification struct {
	ID            string                 `json:"id"`
	Type          NotificationType       `json:"type"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	IsRead        bool                   `json:"is_read"`
	IsArchived    bool                   `json:"is_archived"`
	RelatedID     string                 `json:"related_id,omitempty"`
	RelatedUserID string                 `json:"related_user_id,omitempty"`
	TimeAgo       string                 `json:"time_ago"`
}

// NotificationPayload is the inbound realtime frame. Only Type and Title are mandatory.
type NotificationPayload struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Title         string                 `json:"title"`
	Message       string                 `json:"message,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	CreatedAt     string                 `json:"created_at,omitempty"`
	IsRead        bool                   `json:"is_read"`
	RelatedID     string                 `json:"related_id,omitempty"`
	RelatedUserID string                 `json:"related_user_id,omitempty"`
}

// IsDeliverable reports whether the payload carries both a type and a title.
func (p NotificationPayload) IsDeliverable() bool {
	return p.Type != "" && p.Title != ""
}

// Normalize converts the payload into a Notification labelled "Just now".
// An unparseable or missing created_at falls back to receivedAt.
func (p NotificationPayload) Normalize(receivedAt time.Time) Notification {
	createdAt := receivedAt
	if p.CreatedAt != "" {
		if parsed, err := ParseTimestamp(p.CreatedAt); err == nil {
			createdAt = parsed
		}
	}

	return Notification{
		ID:            p.ID,
		Type:          NotificationType(p.Type),
		Title:         p.Title,
		Message:       p.Message,
		Data:          p.Data,
		CreatedAt:     createdAt,
		IsRead:        p.IsRead,
		RelatedID:     p.RelatedID,
		RelatedUserID: p.RelatedUserID,
		TimeAgo:       JustNow,
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO forms the backend emits (read as UTC).
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// TimeAgo renders the relative age label shown next to inventory items.
func TimeAgo(createdAt, now time.Time) string {
	elapsed := now.Sub(createdAt)
	switch {
	case elapsed < time.Minute:
		return JustNow
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed/time.Minute))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed/time.Hour))
	case elapsed < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed/(24*time.Hour)))
	default:
		return createdAt.Format("Jan 2")
	}
}

// CreateNotificationRequest is the body of POST /api/notifications.
type CreateNotificationRequest struct {
	UserID        string                 `json:"user_id" validate:"required"`
	Type          string                 `json:"type" validate:"required"`
	Title         string                 `json:"title" validate:"required,max=120"`
	Message       string                 `json:"message,omitempty" validate:"max=1000"`
	Data          map[string]interface{} `json:"data,omitempty"`
	RelatedID     string                 `json:"related_id,omitempty"`
	RelatedUserID string                 `json:"related_user_id,omitempty"`
}

// UnreadCountResponse is the data of GET /api/notifications/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
