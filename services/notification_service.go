package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

// ErrInvalidNotification is returned when a create request is missing its user, type or title.
var ErrInvalidNotification = errors.New("invalid notification")

// NotificationService implements the inventory operations and pushes new notifications to
// connected realtime clients.
type NotificationService struct {
	store     NotificationStore
	publisher Publisher
	clock     utils.Clock
	logger    *utils.LoggerWithContext
}

// NewNotificationService creates a service. publisher may be nil.
func NewNotificationService(store NotificationStore, publisher Publisher, logger *utils.Logger) *NotificationService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &NotificationService{
		store:     store,
		publisher: publisher,
		clock:     utils.RealClock(),
		logger:    logger.WithSource("notification_service"),
	}
}

// WithClock replaces the clock used for created_at and time_ago.
func (s *NotificationService) WithClock(clock utils.Clock) *NotificationService {
	s.clock = clock
	return s
}

// Create stores a notification and publishes it to the user's realtime connections.
// A publish failure is logged; the notification stays in the inventory.
func (s *NotificationService) Create(ctx context.Context, req models.CreateNotificationRequest) (models.Notification, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return models.Notification{}, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}

	if !models.NotificationType(req.Type).IsKnown() {
		s.logger.Warn("Creating notification of unknown type", map[string]interface{}{
			"user_id": req.UserID,
			"type":    req.Type,
		})
	}

	n := models.Notification{
		ID:            uuid.New().String(),
		Type:          models.NotificationType(req.Type),
		Title:         req.Title,
		Message:       req.Message,
		Data:          req.Data,
		CreatedAt:     s.clock.Now().UTC(),
		RelatedID:     req.RelatedID,
		RelatedUserID: req.RelatedUserID,
	}
	if err := s.store.Insert(ctx, req.UserID, n); err != nil {
		return models.Notification{}, err
	}
	n.TimeAgo = models.JustNow

	if s.publisher != nil {
		delivered, err := s.publisher.PublishToUser(req.UserID, toPayload(n))
		if err != nil {
			s.logger.Error("Failed to publish notification", err, map[string]interface{}{
				"user_id":         req.UserID,
				"notification_id": n.ID,
			})
		} else {
			s.logger.Debug("Notification published", map[string]interface{}{
				"user_id":         req.UserID,
				"notification_id": n.ID,
				"clients":         delivered,
			})
		}
	}
	return n, nil
}

// List returns the user's notifications with time_ago filled in.
func (s *NotificationService) List(ctx context.Context, userID string, filter ListFilter) ([]models.Notification, error) {
	items, err := s.store.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for i := range items {
		items[i].TimeAgo = models.TimeAgo(items[i].CreatedAt, now)
	}
	return items, nil
}

// UnreadCount returns the number of unread, unarchived notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkRead(ctx, userID, id)
}

// MarkAllRead marks every notification of the user read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.store.MarkAllRead(ctx, userID)
}

// Archive hides a notification from the default listing.
func (s *NotificationService) Archive(ctx context.Context, userID, id string) error {
	return s.store.Archive(ctx, userID, id)
}

// Delete removes a notification.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func toPayload(n models.Notification) models.NotificationPayload {
	return models.NotificationPayload{
		ID:            n.ID,
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		Data:          n.Data,
		CreatedAt:     n.CreatedAt.Format("2006-01-02T15:04:05.999999Z07:00"),
		IsRead:        n.IsRead,
		RelatedID:     n.RelatedID,
		RelatedUserID: n.RelatedUserID,
	}
}
