package models

import "time"

// Heartbeat tokens exchanged as plain text frames on the realtime channel.
const (
	HeartbeatPing = "ping"
	HeartbeatPong = "pong"
)

// CloseNormalClosure is the WebSocket close code meaning "intentional, do not reconnect".
const CloseNormalClosure = 1000

// HealthStatus is returned by GET /health.
type HealthStatus struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Uptime      string            `json:"uptime"`
	Timestamp   time.Time         `json:"timestamp"`
	Checks      map[string]string `json:"checks"`
}

// RealtimeStats is returned by GET /ws/stats.
type RealtimeStats struct {
	ConnectedUsers   int            `json:"connected_users"`
	ConnectedClients int            `json:"connected_clients"`
	ClientsPerUser   map[string]int `json:"clients_per_user"`
}
