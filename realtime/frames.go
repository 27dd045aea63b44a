package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shourya0523/Pact-sub000/models"
)

const presentTimeout = 5 * time.Second

// decodeFrame turns one inbound frame into a notification. Only type and title
// must be strings; optional fields of an unexpected JSON type are dropped, and
// numeric ids are kept in their decimal form.
func decodeFrame(data []byte, receivedAt time.Time) (models.Notification, error) {
	if string(data) == models.HeartbeatPong {
		return models.Notification{}, ErrHeartbeatReply
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.Notification{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	payload := models.NotificationPayload{
		ID:            idField(fields["id"]),
		Type:          stringField(fields["type"]),
		Title:         stringField(fields["title"]),
		Message:       stringField(fields["message"]),
		CreatedAt:     stringField(fields["created_at"]),
		RelatedID:     idField(fields["related_id"]),
		RelatedUserID: idField(fields["related_user_id"]),
	}
	if !payload.IsDeliverable() {
		return models.Notification{}, ErrIncompleteNotification
	}
	_ = json.Unmarshal(fields["data"], &payload.Data)
	_ = json.Unmarshal(fields["is_read"], &payload.IsRead)

	return payload.Normalize(receivedAt), nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func idField(raw json.RawMessage) string {
	if s := stringField(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return ""
	}
	return n.String()
}

// handleFrame is the only place where frame errors are swallowed.
func (c *Client) handleFrame(gen uint64, data []byte) {
	notification, err := decodeFrame(data, c.clock.Now())
	switch {
	case err == nil:
	case errors.Is(err, ErrHeartbeatReply):
		return
	case errors.Is(err, ErrIncompleteNotification):
		c.log.Debug("Ignoring frame without type or title")
		return
	default:
		c.log.Warn("Dropping malformed realtime frame", map[string]interface{}{
			"error": err.Error(),
			"size":  len(data),
		})
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	if !c.dedup.admit(notification.ID) {
		c.mu.Unlock()
		c.log.Debug("Dropping duplicate notification", map[string]interface{}{"notification_id": notification.ID})
		return
	}
	listener := c.listener
	c.mu.Unlock()

	c.present(notification)
	if listener != nil {
		_ = c.recovery.Guard("notification_listener", func() { listener.fn(notification) })
	}
}

func (c *Client) present(n models.Notification) {
	if c.presenter == nil {
		return
	}

	err := c.recovery.GuardErr("notification_presenter", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), presentTimeout)
		defer cancel()
		return c.presenter.Present(ctx, n.Title, n.Message, n.Data)
	})
	if err != nil {
		c.log.Warn("Local notification not presented", map[string]interface{}{
			"notification_id": n.ID,
			"error":           err.Error(),
		})
	}
}
