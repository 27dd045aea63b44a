package realtime

import (
	"github.com/shourya0523/Pact-sub000/models"
	"github.com/shourya0523/Pact-sub000/utils"
)

// handleClose runs when a dial fails or an open transport closes.
func (c *Client) handleClose(gen uint64, code int, cause error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}

	c.stopHeartbeatLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	c.connecting = false
	previous := c.conn
	c.conn = nil

	if code == models.CloseNormalClosure || c.userID == "" {
		c.mu.Unlock()
		if previous != nil {
			_ = previous.conn.Close()
		}
		c.log.Info("Realtime connection closed normally", map[string]interface{}{"code": code})
		return
	}

	c.logTransportErrorLocked(code, cause)
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	if previous != nil {
		_ = previous.conn.Close()
	}
}

// logTransportErrorLocked logs the first failure of a reconnect cycle at ERROR
// and the rest at DEBUG.
func (c *Client) logTransportErrorLocked(code int, cause error) {
	fields := map[string]interface{}{
		"user_id":  c.userID,
		"code":     code,
		"attempts": c.attempts,
	}
	if !c.errorLogged {
		c.errorLogged = true
		c.log.Error("Realtime connection error", cause, fields)
		return
	}
	if cause != nil {
		fields["error"] = cause.Error()
	}
	c.log.Debug("Realtime connection error", fields)
}

// scheduleReconnectLocked arms a single reconnect timer with linear back-off,
// or gives up once the attempt bound is reached.
func (c *Client) scheduleReconnectLocked() {
	if c.attempts >= c.cfg.MaxReconnectAttempts {
		c.log.Warn("Max reconnect attempts reached", map[string]interface{}{
			"user_id":      c.userID,
			"max_attempts": c.cfg.MaxReconnectAttempts,
		})
		return
	}

	c.attempts++
	delay := utils.LinearBackoff(c.attempts, c.cfg.ReconnectBaseDelay, 0, false)

	c.stopReconnectLocked()
	gen, userID := c.generation, c.userID
	c.reconnectTimer = c.clock.AfterFunc(delay, func() { c.reconnect(gen, userID) })

	c.log.Info("Reconnect scheduled", map[string]interface{}{
		"user_id":  userID,
		"attempt":  c.attempts,
		"delay_ms": delay.Milliseconds(),
	})
}

func (c *Client) stopReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Client) reconnect(gen uint64, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.userID != userID || c.userID == "" {
		return
	}
	c.reconnectTimer = nil
	if c.connecting || c.conn != nil {
		return
	}
	c.startDialLocked(userID)
}
