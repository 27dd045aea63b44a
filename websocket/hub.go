package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

// ErrHubStopped is returned once the hub's Run loop has exited.
var ErrHubStopped = errors.New("websocket hub stopped")

type delivery struct {
	userID string
	frame  []byte
	reply  chan int
}

// Hub routes frames to the connections of each user.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan delivery
	stats      chan chan models.RealtimeStats
	done       chan struct{}
	logger     *utils.LoggerWithContext
}

// NewHub creates a new WebSocket hub. Call Run before registering clients.
func NewHub(logger *utils.Logger) *Hub {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan delivery, 64),
		stats:      make(chan chan models.RealtimeStats),
		done:       make(chan struct{}),
		logger:     logger.WithSource("websocket_hub"),
	}
}

// Run owns the client registry until ctx is cancelled. On exit every client is
// closed with code 1001.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, userClients := range h.clients {
				for client := range userClients {
					client.closeCode = closeGoingAway
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			userClients, ok := h.clients[client.UserID]
			if !ok {
				userClients = make(map[*Client]struct{})
				h.clients[client.UserID] = userClients
			}
			userClients[client] = struct{}{}
			h.logger.Info("WebSocket client connected", map[string]interface{}{
				"client_id":    client.ID,
				"user_id":      client.UserID,
				"user_clients": len(userClients),
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			sent := 0
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.frame:
					sent++
				default:
					h.remove(client)
					h.logger.Warn("Removed unresponsive WebSocket client", map[string]interface{}{
						"client_id": client.ID,
						"user_id":   client.UserID,
					})
				}
			}
			d.reply <- sent

		case reply := <-h.stats:
			stats := models.RealtimeStats{ClientsPerUser: make(map[string]int, len(h.clients))}
			for userID, userClients := range h.clients {
				stats.ClientsPerUser[userID] = len(userClients)
				stats.ConnectedClients += len(userClients)
			}
			stats.ConnectedUsers = len(h.clients)
			reply <- stats
		}
	}
}

func (h *Hub) remove(client *Client) {
	userClients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := userClients[client]; !ok {
		return
	}
	delete(userClients, client)
	close(client.send)
	if len(userClients) == 0 {
		delete(h.clients, client.UserID)
	}
	h.logger.Info("WebSocket client disconnected", map[string]interface{}{
		"client_id": client.ID,
		"user_id":   client.UserID,
	})
}

// Register adds a client to its user's set.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister removes a client and closes its send queue. Unknown clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser queues a raw text frame on every connection of userID and returns
// how many connections accepted it.
func (h *Hub) SendToUser(userID string, frame []byte) (int, error) {
	reply := make(chan int, 1)
	select {
	case h.deliver <- delivery{userID: userID, frame: frame, reply: reply}:
	case <-h.done:
		return 0, ErrHubStopped
	}
	select {
	case sent := <-reply:
		return sent, nil
	case <-h.done:
		return 0, ErrHubStopped
	}
}

// PublishToUser encodes payload as JSON and sends it to every connection of userID.
func (h *Hub) PublishToUser(userID string, payload interface{}) (int, error) {
	frame, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}
	return h.SendToUser(userID, frame)
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Stats returns a snapshot of connected users and clients.
func (h *Hub) Stats() models.RealtimeStats {
	reply := make(chan models.RealtimeStats, 1)
	select {
	case h.stats <- reply:
		return <-reply
	case <-h.done:
		return models.RealtimeStats{ClientsPerUser: map[string]int{}}
	}
}
