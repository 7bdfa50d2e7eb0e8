package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs wires an upgraded connection into the hub and runs its pumps.
// Blocks until the connection closes.
func ServeWs(hub *Hub, conn *websocket.Conn, processor MessageProcessor) {
	client := &Client{
		Hub:       hub,
		Conn:      conn,
		ID:        uuid.New(),
		Send:      make(chan []byte, 256),
		processor: processor,
	}
	hub.Register(client)

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
