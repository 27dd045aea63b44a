package websocket

import (
	"bytes"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed between frames from the peer. Clients send a text ping every 30s.
	pongWait = 75 * time.Second

	// Send control pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendQueueSize = 64
)

const (
	closeNormal    = websocket.CloseNormalClosure
	closeGoingAway = websocket.CloseGoingAway
)

// Client is one server-side WebSocket connection of a user.
type Client struct {
	ID     string
	UserID string

	conn      *websocket.Conn
	hub       *Hub
	send      chan []byte
	replies   chan []byte
	closeCode int
	logger    *utils.LoggerWithContext

	// readDone is closed when ReadPump returns, done when WritePump returns.
	readDone chan struct{}
	done     chan struct{}
}

// NewClient creates a client for conn owned by hub.
func NewClient(conn *websocket.Conn, hub *Hub, userID string) *Client {
	return &Client{
		ID:        uuid.New().String(),
		UserID:    userID,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, sendQueueSize),
		replies:   make(chan []byte, 4),
		closeCode: closeNormal,
		logger:    hub.logger.WithContext(map[string]interface{}{"user_id": userID}),
		readDone:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Serve runs both pumps and returns once neither touches the connection any more.
// The connection must not be used after Serve returns.
func (c *Client) Serve() {
	go c.WritePump()
	c.ReadPump()
	<-c.done
}

// ReadPump reads frames until the peer goes away. A text "ping" is answered with "pong";
// anything else is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		close(c.readDone)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Warn("WebSocket read error", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if messageType == websocket.TextMessage && bytes.Equal(bytes.TrimSpace(message), []byte(models.HeartbeatPing)) {
			c.reply([]byte(models.HeartbeatPong))
			continue
		}

		c.logger.Debug("Ignoring inbound WebSocket frame", map[string]interface{}{
			"client_id": c.ID,
			"size":      len(message),
		})
	}
}

// WritePump drains the send queue onto the connection. When the hub closes the
// queue the peer receives a close frame carrying closeCode.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				reason := ""
				if c.closeCode == closeGoingAway {
					reason = "server shutting down"
				}
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(c.closeCode, reason))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn("Failed to write WebSocket frame", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
				return
			}

		case frame := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-c.readDone:
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply queues a frame written by ReadPump. The hub never closes replies, so it
// is safe to use while the hub tears the client down.
func (c *Client) reply(frame []byte) {
	select {
	case c.replies <- frame:
	default:
		c.logger.Warn("WebSocket reply queue full, dropping frame", map[string]interface{}{
			"client_id": c.ID,
		})
	}
}
