// Package session owns the realtime client for the signed-in user and drives
// it from app lifecycle edges.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shourya0523/Pact-sub000/inventory"
	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/realtime"
	"github.com/shourya0523/Pact-sub000/utils"
)

// ErrEmptyUserID is returned by SignIn without a user id.
var ErrEmptyUserID = errors.New("user id is required")

const refreshTimeout = 10 * time.Second

// Realtime is the part of realtime.Client the controller drives.
type Realtime interface {
	Connect(userID string)
	Disconnect()
	IsConnected() bool
	OnNotification(fn realtime.Listener) func()
}

// Inventory is the part of inventory.Client the controller reads.
type Inventory interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Controller connects the realtime client at sign-in and foreground and
// disconnects it at sign-out and background. It keeps an unread count that is
// refreshed from the inventory after every delivery.
type Controller struct {
	store     Store
	rt        Realtime
	inventory Inventory
	log       *utils.LoggerWithContext
	recovery  *utils.RecoveryHandler

	mu          sync.Mutex
	unread      int
	listener    *listenerEntry
	unsubscribe func()
	closed      bool
	refreshes   sync.WaitGroup
}

type listenerEntry struct {
	fn realtime.Listener
}

// NewController wires a controller. inv may be nil, which disables unread refreshes.
func NewController(store Store, rt Realtime, inv Inventory, logger *utils.Logger) *Controller {
	if logger == nil {
		logger = utils.GetLogger()
	}

	c := &Controller{
		store:     store,
		rt:        rt,
		inventory: inv,
		log:       logger.WithSource("session"),
		recovery:  utils.NewRecoveryHandler(logger, "session"),
	}
	c.unsubscribe = rt.OnNotification(c.deliver)
	return c
}

// SignIn records userID and connects.
func (c *Controller) SignIn(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := c.store.SetUserID(userID); err != nil {
		return fmt.Errorf("store user id: %w", err)
	}

	c.rt.Connect(userID)
	c.log.Info("Signed in", map[string]interface{}{"user_id": userID})

	if _, err := c.RefreshUnreadCount(ctx); err != nil {
		c.log.Warn("Unread count not refreshed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// SignOut disconnects and forgets the user.
func (c *Controller) SignOut(ctx context.Context) error {
	c.rt.Disconnect()

	c.mu.Lock()
	c.unread = 0
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.log.Info("Signed out")
	return nil
}

// Foreground reconnects for the stored user. It also recovers a client whose
// reconnect attempts ran out. It reports whether a user was signed in.
func (c *Controller) Foreground(ctx context.Context) bool {
	userID, ok := c.store.CurrentUserID()
	if !ok {
		return false
	}

	c.rt.Connect(userID)
	if _, err := c.RefreshUnreadCount(ctx); err != nil {
		c.log.Warn("Unread count not refreshed", map[string]interface{}{"error": err.Error()})
	}
	return true
}

// Background releases the connection but keeps the session.
func (c *Controller) Background(context.Context) {
	c.rt.Disconnect()
}

// IsConnected reports whether the realtime channel is open.
func (c *Controller) IsConnected() bool {
	return c.rt.IsConnected()
}

// OnNotification registers the app's listener, replacing the previous one.
// The returned function removes fn unless it was already replaced.
func (c *Controller) OnNotification(fn realtime.Listener) func() {
	var entry *listenerEntry
	if fn != nil {
		entry = &listenerEntry{fn: fn}
	}

	c.mu.Lock()
	c.listener = entry
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if entry != nil && c.listener == entry {
			c.listener = nil
		}
	}
}

// UnreadCount returns the last known unread count.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// RefreshUnreadCount reloads the unread count from the inventory.
func (c *Controller) RefreshUnreadCount(ctx context.Context) (int, error) {
	if c.inventory == nil {
		return c.UnreadCount(), nil
	}
	userID, ok := c.store.CurrentUserID()
	if !ok {
		return 0, ErrEmptyUserID
	}

	count, err := c.inventory.UnreadCount(inventory.WithUserID(ctx, userID))
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.unread = count
	c.mu.Unlock()
	return count, nil
}

// Close disconnects and waits for in-flight refreshes. Deliveries racing with
// Close no longer start refreshes.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.unsubscribe()
	c.rt.Disconnect()
	c.refreshes.Wait()
	return nil
}

func (c *Controller) deliver(n models.Notification) {
	c.mu.Lock()
	if !n.IsRead {
		c.unread++
	}
	listener := c.listener
	refresh := c.inventory != nil && !c.closed
	if refresh {
		c.refreshes.Add(1)
	}
	c.mu.Unlock()

	if listener != nil {
		_ = c.recovery.Guard("app_listener", func() { listener.fn(n) })
	}

	if !refresh {
		return
	}
	go func() {
		defer c.refreshes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if _, err := c.RefreshUnreadCount(ctx); err != nil {
			c.log.Debug("Unread count refresh after delivery failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}
