// Package realtime keeps one WebSocket connection per signed-in user open to
// the notification server and forwards the notifications it receives.
package realtime

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

// Config controls connection behaviour.
type Config struct {
	// BaseURL is the ws:// or wss:// origin; the endpoint is BaseURL + "/ws/" + userID.
	BaseURL            string
	ReconnectBaseDelay time.Duration
	// MaxReconnectAttempts bounds reconnects per cycle. Zero means the default of 5;
	// a negative value disables reconnection.
	MaxReconnectAttempts int
	HeartbeatInterval    time.Duration
	HandshakeTimeout     time.Duration
	// DedupWindow is how many recent notification ids are remembered. Zero disables dedup.
	DedupWindow int
}

// DefaultConfig returns the production defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:              baseURL,
		ReconnectBaseDelay:   3 * time.Second,
		MaxReconnectAttempts: 5,
		HeartbeatInterval:    30 * time.Second,
		HandshakeTimeout:     10 * time.Second,
		DedupWindow:          128,
	}
}

// Listener receives every forwarded notification.
type Listener func(models.Notification)

// Presenter surfaces a notification in the OS tray.
type Presenter interface {
	Present(ctx context.Context, title, body string, data map[string]interface{}) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, title, body string, data map[string]interface{}) error

// Present implements Presenter.
func (f PresenterFunc) Present(ctx context.Context, title, body string, data map[string]interface{}) error {
	return f(ctx, title, body, data)
}

// Option customizes a Client.
type Option func(*Client)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithClock replaces the clock used for heartbeat and reconnect timers.
func WithClock(clock utils.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithPresenter sets the local notification presenter.
func WithPresenter(p Presenter) Option {
	return func(c *Client) { c.presenter = p }
}

// WithLogger sets the logger.
func WithLogger(l *utils.Logger) Option {
	return func(c *Client) { c.logger = l }
}

type listenerEntry struct {
	fn Listener
}

// Client is the realtime notification client. All state transitions happen
// under mu; listener and presenter callbacks run outside it.
type Client struct {
	cfg       Config
	dialer    Dialer
	clock     utils.Clock
	presenter Presenter
	logger    *utils.Logger
	log       *utils.LoggerWithContext
	recovery  *utils.RecoveryHandler

	mu             sync.Mutex
	conn           *connection
	userID         string
	attempts       int
	connecting     bool
	heartbeat      utils.Timer
	reconnectTimer utils.Timer
	cancelDial     context.CancelFunc
	listener       *listenerEntry
	errorLogged    bool
	dedup          *dedupWindow

	// generation identifies the current dial/connection. Callbacks carrying an
	// older generation are ignored.
	generation uint64
}

// New creates a Client. It does not connect.
func New(cfg Config, opts ...Option) *Client {
	defaults := DefaultConfig(cfg.BaseURL)
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = defaults.ReconnectBaseDelay
	}
	switch {
	case cfg.MaxReconnectAttempts == 0:
		cfg.MaxReconnectAttempts = defaults.MaxReconnectAttempts
	case cfg.MaxReconnectAttempts < 0:
		cfg.MaxReconnectAttempts = 0
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaults.HeartbeatInterval
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}

	if c.dialer == nil {
		c.dialer = &WebSocketDialer{HandshakeTimeout: cfg.HandshakeTimeout}
	}
	if c.clock == nil {
		c.clock = utils.RealClock()
	}
	if c.logger == nil {
		c.logger = utils.GetLogger()
	}
	c.log = c.logger.WithSource("realtime")
	c.recovery = utils.NewRecoveryHandler(c.logger, "realtime")
	c.dedup = newDedupWindow(cfg.DedupWindow)

	return c
}

// Endpoint returns the transport address for userID.
func (c *Client) Endpoint(userID string) string {
	return c.cfg.BaseURL + "/ws/" + url.PathEscape(userID)
}

// Connect opens the realtime channel for userID. It returns immediately; the
// outcome is observed through IsConnected and the logs. Calling it while a
// connection for the same user is open or opening is a no-op. Calling it for a
// different user tears the current connection down first.
func (c *Client) Connect(userID string) {
	if userID == "" {
		c.log.Warn("Ignoring connect without user id")
		return
	}

	c.mu.Lock()
	if c.userID == userID && (c.connecting || c.conn != nil) {
		c.mu.Unlock()
		c.log.Debug("Connect ignored, already connected or connecting", map[string]interface{}{"user_id": userID})
		return
	}

	var previous *connection
	if c.userID != "" && c.userID != userID {
		c.log.Info("Switching realtime user", map[string]interface{}{
			"from_user_id": c.userID,
			"to_user_id":   userID,
		})
		previous = c.teardownLocked()
	}

	// A fresh connect outside a pending reconnect cycle gets the full retry budget.
	if c.reconnectTimer == nil {
		c.attempts = 0
		c.errorLogged = false
	}
	c.startDialLocked(userID)
	c.mu.Unlock()

	if previous != nil {
		c.closeTransport(previous)
	}
}

// Disconnect stops heartbeat and reconnection and closes the transport with
// code 1000. It is safe to call at any time, any number of times.
func (c *Client) Disconnect() {
	c.mu.Lock()
	userID := c.userID
	previous := c.teardownLocked()
	c.mu.Unlock()

	if previous != nil {
		c.closeTransport(previous)
		c.log.Info("Realtime connection closed", map[string]interface{}{"user_id": userID})
	}
}

// Close disconnects. It always returns nil.
func (c *Client) Close() error {
	c.Disconnect()
	return nil
}

// teardownLocked performs the manual-disconnect state reset and returns the
// transport the caller must close once mu is released.
func (c *Client) teardownLocked() *connection {
	c.stopHeartbeatLocked()
	c.stopReconnectLocked()
	c.userID = ""
	c.attempts = 0
	c.errorLogged = false
	c.generation++

	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.connecting = false

	previous := c.conn
	c.conn = nil
	return previous
}

func (c *Client) closeTransport(cn *connection) {
	if err := cn.closeNormal(); err != nil {
		c.log.Debug("Closing transport", map[string]interface{}{"error": err.Error()})
	}
}

// OnNotification registers fn as the only listener, replacing any previous one.
// The returned function unregisters fn unless another listener replaced it since.
func (c *Client) OnNotification(fn Listener) (unsubscribe func()) {
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

// IsConnected reports whether a transport is fully open.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// UserID returns the user being served, or "" after Disconnect.
func (c *Client) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// State returns the connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.conn != nil:
		return StateConnected
	case c.connecting:
		return StateConnecting
	case c.reconnectTimer != nil:
		return StateReconnecting
	default:
		return StateDisconnected
	}
}

func (c *Client) startDialLocked(userID string) {
	c.stopReconnectLocked()
	c.userID = userID
	c.connecting = true
	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel

	go c.dial(ctx, gen, c.Endpoint(userID))
}

func (c *Client) dial(ctx context.Context, gen uint64, endpoint string) {
	conn, err := c.dialer.Dial(ctx, endpoint)
	if err != nil {
		c.handleClose(gen, closeCode(err), err)
		return
	}
	c.handleOpen(gen, conn)
}

func (c *Client) handleOpen(gen uint64, conn Conn) {
	cn := &connection{conn: conn}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.closeTransport(cn)
		return
	}

	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.conn = cn
	c.connecting = false
	c.attempts = 0
	c.errorLogged = false
	c.startHeartbeatLocked(gen)
	userID := c.userID
	c.mu.Unlock()

	c.log.Info("Realtime connection established", map[string]interface{}{"user_id": userID})
	go c.readLoop(gen, cn)
}

func (c *Client) readLoop(gen uint64, cn *connection) {
	for {
		_, data, err := cn.conn.ReadMessage()
		if err != nil {
			c.handleClose(gen, closeCode(err), err)
			return
		}
		c.handleFrame(gen, data)
	}
}
