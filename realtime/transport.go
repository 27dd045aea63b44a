package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/shourya0523/Pact-sub000/models"
)

// Conn is an open transport. ReadMessage blocks until a frame arrives or the
// transport closes; a closure is reported as a *websocket.CloseError when the
// peer sent a close frame.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens transports. Dial must honour ctx cancellation.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials real WebSocket endpoints.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: handshake status %d: %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// closeCode extracts the close code of a read error. Anything that is not a
// close frame counts as an abnormal closure.
func closeCode(err error) int {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return websocket.CloseAbnormalClosure
}

// connection serializes writes to one transport.
type connection struct {
	conn    Conn
	writeMu sync.Mutex
}

func (c *connection) sendText(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// closeNormal sends a 1000 close frame and releases the transport.
func (c *connection) closeNormal() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	msg := websocket.FormatCloseMessage(models.CloseNormalClosure, "client disconnect")
	writeErr := c.conn.WriteMessage(websocket.CloseMessage, msg)
	closeErr := c.conn.Close()
	if closeErr != nil {
		return closeErr
	}
	return writeErr
}
