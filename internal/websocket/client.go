package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-partner-be/internal/model"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// MessageProcessor runs one conversation turn and returns the answer to hand
// back to the originating connection.
type MessageProcessor interface {
	Process(ctx context.Context, msg model.UserMessage) model.ChatMessage
}

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// ID for log correlation.
	ID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	processor MessageProcessor

	// sendMu serializes closeSend against every trySend, so the channel is
	// never closed between the flag check and the send.
	sendMu sync.Mutex
	closed bool
}

// trySend attempts a non-blocking delivery to this client's outbound buffer.
func (c *Client) trySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend shuts the outbound channel exactly once. Called by Hub.Remove.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// readPump pumps inbound chat messages from the websocket connection through
// the pipeline. One goroutine per connection.
func (c *Client) readPump() {
	defer func() {
		c.Hub.Remove(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"client_id": c.ID,
					"error":     err.Error(),
				})
			}
			break
		}

		var msg model.UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Hub.logger.Warn("Client", "Malformed inbound message", map[string]interface{}{
				"client_id": c.ID,
				"error":     err.Error(),
			})
			continue
		}

		// The run is not cancelled if this connection closes mid-turn;
		// the final send just fails and is dropped.
		response := c.processor.Process(context.Background(), msg)
		c.Hub.Send(c, response)
	}
}

// writePump pumps messages from the hub to the websocket connection.
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
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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
