package services

import (
	"context"
	"errors"

	"github.com/shourya0523/Pact-sub000/models"
)

// ErrNotificationNotFound is returned when a notification does not exist for the user.
var ErrNotificationNotFound = errors.New("notification not found")

// Publisher pushes a JSON payload to every realtime connection of a user.
type Publisher interface {
	PublishToUser(userID string, payload interface{}) (int, error)
}

// ListFilter controls filtering and pagination for notification queries.
type ListFilter struct {
	UnreadOnly      bool
	IncludeArchived bool
	Limit           int
	Offset          int
}

// NotificationStore persists notifications per user.
type NotificationStore interface {
	Insert(ctx context.Context, userID string, n models.Notification) error
	List(ctx context.Context, userID string, filter ListFilter) ([]models.Notification, error)
	Get(ctx context.Context, userID, id string) (models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Archive(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
	Close() error
}
