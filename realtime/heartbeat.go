package realtime

import "github.com/shourya0523/Pact-sub000/models"

// startHeartbeatLocked replaces any running heartbeat with a fresh one bound to gen.
func (c *Client) startHeartbeatLocked(gen uint64) {
	c.stopHeartbeatLocked()
	c.heartbeat = c.clock.AfterFunc(c.cfg.HeartbeatInterval, func() { c.beat(gen) })
}

func (c *Client) stopHeartbeatLocked() {
	if c.heartbeat != nil {
		c.heartbeat.Stop()
		c.heartbeat = nil
	}
}

// beat sends one ping and re-arms the heartbeat while the connection of gen is open.
func (c *Client) beat(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.conn == nil {
		c.mu.Unlock()
		return
	}
	cn := c.conn
	c.heartbeat = c.clock.AfterFunc(c.cfg.HeartbeatInterval, func() { c.beat(gen) })
	c.mu.Unlock()

	// A failed ping surfaces as a read error on the same transport.
	if err := cn.sendText(models.HeartbeatPing); err != nil {
		c.log.Debug("Heartbeat not sent", map[string]interface{}{"error": err.Error()})
	}
}
