package websocket

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/shourya0523/Pact-sub000/utils"
)

// Upgrade rejects requests to WebSocket routes that are not upgrade requests.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}

	return utils.ErrorResponse(c, fiber.StatusUpgradeRequired, "WEBSOCKET_REQUIRED", "WebSocket upgrade required", nil)
}

// Handler serves GET /ws/:userId. Each connection is registered under the path's user id.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID := strings.TrimSpace(conn.Params("userId"))
		if userID == "" {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id required"))
			conn.Close()
			return
		}

		client := NewClient(conn, hub, userID)
		if err := hub.Register(client); err != nil {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(closeGoingAway, "server shutting down"))
			conn.Close()
			return
		}

		client.logger.Debug("WebSocket connection established", map[string]interface{}{
			"client_id":   client.ID,
			"remote_addr": conn.RemoteAddr().String(),
		})

		client.Serve()
	})
}

// StatsHandler serves GET /ws/stats.
func StatsHandler(hub *Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return utils.SuccessResponse(c, "Realtime connection statistics", hub.Stats())
	}
}

// RegisterRoutes mounts the stats route and the per-user WebSocket endpoint.
func RegisterRoutes(router fiber.Router, hub *Hub) {
	router.Get("/ws/stats", StatsHandler(hub))
	router.Use("/ws", Upgrade)
	router.Get("/ws/:userId", Handler(hub))
}
