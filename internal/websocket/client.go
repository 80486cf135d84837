package websocket

import (
	"encoding/json"
	"time"

	"stallpick-be/internal/dto"
	"stallpick-be/internal/entity"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one subscriber of a session. Conn is nil for in-process
// subscribers.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	SessionID uuid.UUID

	// Buffered channel of outbound frames. Closed by the hub on unsubscribe.
	Send chan []byte
}

// readPump accepts broadcast frames from the peer and hands them to the hub.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unsubscribe(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID.String(),
					"error":      err.Error(),
				})
			}
			return
		}
		c.handleInbound(data)
	}
}

func (c *Client) handleInbound(data []byte) {
	var frame dto.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.Hub.logger.Debug("Client", "Ignoring malformed frame", map[string]interface{}{"error": err.Error()})
		return
	}
	// Peers may only broadcast. Durable changes come from the store.
	if frame.Type != dto.FrameBroadcast {
		return
	}
	switch entity.EventKind(frame.Event) {
	case entity.EventDecisionMade, entity.EventDishRequested:
	default:
		return
	}

	if err := c.Hub.Broadcast(c.SessionID, frame.Event, frame.Payload); err != nil {
		c.Hub.logger.Warn("Client", "Peer broadcast failed", map[string]interface{}{
			"session_id": c.SessionID.String(),
			"error":      err.Error(),
		})
	}
}

// writePump writes one websocket message per frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Unsubscribed, possibly for being too slow.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
