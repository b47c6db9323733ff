package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection with the hub and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, jobFilter *uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, Id: uuid.New(), JobFilter: jobFilter, Send: make(chan []byte, sendBuffer)}
	if !hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

// Upgrade rejects plain HTTP requests on the job stream route.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// JobStream serves /ws/jobs. An optional job_id query parameter narrows the
// stream to one job.
func JobStream(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		var filter *uuid.UUID
		if raw := c.Query("job_id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				filter = &id
			}
		}
		ServeWs(hub, c, filter)
	})
}
