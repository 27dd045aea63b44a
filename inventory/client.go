// Package inventory is the REST client for the notification inventory, the
// system of record for notification lists, read and archived state and
// unread counts.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

// UserIDHeader identifies the acting user on every request.
const UserIDHeader = "X-User-ID"

var (
	// ErrNotFound is matched by errors.Is for 404 responses.
	ErrNotFound = errors.New("notification not found")

	// ErrMissingUser is returned when the context carries no user id.
	ErrMissingUser = errors.New("no user id in context")
)

// APIError is a non-2xx response decoded from the response envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	TraceID    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inventory: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrNotFound) true for 404s.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type contextKey string

const contextKeyUserID contextKey = "user_id"

// WithUserID returns a context whose requests act as userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// UserIDFromContext returns the user id stored by WithUserID.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	return userID, ok && userID != ""
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Retry   *utils.RetryConfig
	// Breaker enables the circuit breaker when non-nil.
	Breaker *utils.CircuitBreakerConfig
}

// DefaultConfig returns retrying, breaker-guarded defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 15 * time.Second,
		Retry:   utils.DefaultRetryConfig(),
		Breaker: utils.DefaultCircuitBreakerConfig("notification_inventory"),
	}
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *utils.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock sets the clock used for time_ago labels and the breaker.
func WithClock(clock utils.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// Client talks to the notification inventory API.
type Client struct {
	baseURL string
	pool    *utils.ConnectionPool
	retry   *utils.RetryExecutor
	breaker *utils.CircuitBreaker
	clock   utils.Clock
	logger  *utils.Logger
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/")}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = utils.GetLogger()
	}
	if c.clock == nil {
		c.clock = utils.RealClock()
	}

	poolCfg := utils.DefaultConnectionPoolConfig()
	if cfg.Timeout > 0 {
		poolCfg.RequestTimeout = cfg.Timeout
	}
	c.pool = utils.NewConnectionPool(poolCfg)

	retryCfg := utils.RetryConfig{MaxAttempts: 1}
	if cfg.Retry != nil {
		retryCfg = *cfg.Retry
	}
	retryCfg.RetryCondition = isRetryable
	c.retry = utils.NewRetryExecutor(&retryCfg, c.logger)

	if cfg.Breaker != nil {
		c.breaker = utils.NewCircuitBreakerWithClock(cfg.Breaker, c.logger, c.clock)
	}
	return c
}

// isRetryable retries server errors and transient network failures.
func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return utils.IsTransientError(err)
}

// ListOptions filters List.
type ListOptions struct {
	UnreadOnly      bool
	IncludeArchived bool
	Limit           int
	Offset          int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.UnreadOnly {
		q.Set("unread_only", "true")
	}
	if o.IncludeArchived {
		q.Set("archived", "true")
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// List returns the user's notifications, newest first, with time_ago filled in.
func (c *Client) List(ctx context.Context, opts ListOptions) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := c.do(ctx, http.MethodGet, "/api/notifications"+opts.query(), nil, &notifications); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	for i := range notifications {
		notifications[i].TimeAgo = models.TimeAgo(notifications[i].CreatedAt, now)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread, unarchived notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp models.UnreadCountResponse
	if err := c.do(ctx, http.MethodGet, "/api/notifications/unread-count", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// MarkRead marks one notification read.
func (c *Client) MarkRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead marks every notification read and returns how many changed.
func (c *Client) MarkAllRead(ctx context.Context) (int, error) {
	var resp struct {
		Updated int `json:"updated"`
	}
	if err := c.do(ctx, http.MethodPatch, "/api/notifications/read-all", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// Archive hides a notification from the default list.
func (c *Client) Archive(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+url.PathEscape(id)+"/archive", nil, nil)
}

// Delete removes a notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+url.PathEscape(id), nil, nil)
}

// Create stores a notification for req.UserID and pushes it to their realtime channel.
func (c *Client) Create(ctx context.Context, req models.CreateNotificationRequest) (models.Notification, error) {
	var created models.Notification
	if err := c.do(ctx, http.MethodPost, "/api/notifications", req, &created); err != nil {
		return models.Notification{}, err
	}
	return created, nil
}

// Stats reports transport statistics.
func (c *Client) Stats() map[string]interface{} {
	stats := map[string]interface{}{"pool": c.pool.GetStats()}
	if c.breaker != nil {
		stats["circuit_breaker"] = c.breaker.GetStats()
	}
	return stats
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}

// do runs one logical request through retry and the circuit breaker. Client
// errors (4xx) bypass both: they are returned as is and do not trip the breaker.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return ErrMissingUser
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var clientErr error
	attempt := func(ctx context.Context) error {
		err := c.send(ctx, method, path, userID, payload, out)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			clientErr = err
			return nil
		}
		return err
	}

	err := c.retry.Execute(ctx, func(ctx context.Context) error {
		clientErr = nil
		if c.breaker != nil {
			return c.breaker.Execute(ctx, attempt)
		}
		return attempt(ctx)
	})
	if err != nil {
		c.logger.WithSource("inventory").Warn("Inventory request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return err
	}
	return clientErr
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *utils.ErrorInfo `json:"error"`
	TraceID string           `json:"trace_id"`
}

func (c *Client) send(ctx context.Context, method, path, userID string, payload []byte, out interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(UserIDHeader, userID)

	resp, err := c.pool.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(raw))}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
			apiErr.TraceID = env.TraceID
		}
		return apiErr
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response envelope: %w", decodeErr)
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}
