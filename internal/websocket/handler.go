package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs subscribes the connection to sessionId and pumps frames until
// either side goes away.
func ServeWs(hub *Hub, c *websocket.Conn, sessionId uuid.UUID) {
	client := hub.Subscribe(sessionId)
	client.Conn = c

	go client.writePump()
	client.readPump()
}
