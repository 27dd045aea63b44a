package websocket

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(utils.NewLoggerWithWriter("error", "json", io.Discard))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func mockClient(hub *Hub, id, userID string) *Client {
	return &Client{
		ID:        id,
		UserID:    userID,
		hub:       hub,
		send:      make(chan []byte, sendQueueSize),
		replies:   make(chan []byte, 4),
		closeCode: closeNormal,
		logger:    hub.logger,
	}
}

func TestHub_RegisterAndStats(t *testing.T) {
	hub, _ := startHub(t)

	require.NoError(t, hub.Register(mockClient(hub, "c1", "u1")))
	require.NoError(t, hub.Register(mockClient(hub, "c2", "u1")))
	require.NoError(t, hub.Register(mockClient(hub, "c3", "u2")))

	stats := hub.Stats()
	assert.Equal(t, 2, stats.ConnectedUsers)
	assert.Equal(t, 3, stats.ConnectedClients)
	assert.Equal(t, map[string]int{"u1": 2, "u2": 1}, stats.ClientsPerUser)
}

func TestHub_UnregisterClosesSendQueue(t *testing.T) {
	hub, _ := startHub(t)
	client := mockClient(hub, "c1", "u1")
	require.NoError(t, hub.Register(client))

	hub.Unregister(client)
	hub.Unregister(client)

	_, ok := <-client.send
	assert.False(t, ok)
	assert.Equal(t, closeNormal, client.closeCode)
	assert.Equal(t, 0, hub.Stats().ConnectedUsers)
}

func TestHub_SendToUserRoutesByUser(t *testing.T) {
	hub, _ := startHub(t)
	a1 := mockClient(hub, "a1", "alice")
	a2 := mockClient(hub, "a2", "alice")
	b1 := mockClient(hub, "b1", "bob")
	for _, c := range []*Client{a1, a2, b1} {
		require.NoError(t, hub.Register(c))
	}

	sent, err := hub.SendToUser("alice", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	assert.Equal(t, []byte("hello"), <-a1.send)
	assert.Equal(t, []byte("hello"), <-a2.send)
	assert.Len(t, b1.send, 0)

	sent, err = hub.SendToUser("nobody", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestHub_PublishToUserEncodesJSON(t *testing.T) {
	hub, _ := startHub(t)
	client := mockClient(hub, "c1", "u1")
	require.NoError(t, hub.Register(client))

	sent, err := hub.PublishToUser("u1", models.NotificationPayload{ID: "n1", Type: "system", Title: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	var payload models.NotificationPayload
	require.NoError(t, json.Unmarshal(<-client.send, &payload))
	assert.Equal(t, "n1", payload.ID)
	assert.Equal(t, "Hi", payload.Title)

	_, err = hub.PublishToUser("u1", func() {})
	assert.Error(t, err)
}

func TestHub_DropsUnresponsiveClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := mockClient(hub, "slow", "u1")
	slow.send = make(chan []byte, 1)
	require.NoError(t, hub.Register(slow))

	sent, err := hub.SendToUser("u1", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = hub.SendToUser("u1", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, hub.Stats().ConnectedClients)
}

func TestHub_StopClosesClientsGoingAway(t *testing.T) {
	hub, cancel := startHub(t)
	client := mockClient(hub, "c1", "u1")
	require.NoError(t, hub.Register(client))

	cancel()

	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send queue was not closed on shutdown")
	}
	assert.Equal(t, closeGoingAway, client.closeCode)

	assert.ErrorIs(t, hub.Register(mockClient(hub, "c2", "u1")), ErrHubStopped)
	_, err := hub.SendToUser("u1", []byte("x"))
	assert.ErrorIs(t, err, ErrHubStopped)
	assert.Equal(t, 0, hub.Stats().ConnectedClients)
}
