package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-partner-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub is the registry of live client connections. The live set is exactly
// the set of accepted, not-yet-failed connections; a single mutex guards all
// add/remove/iterate operations. Delivery is best-effort and unordered: a
// connection that cannot take a message is dropped, never retried.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	// Redis connection for cross-instance relay (optional)
	rdb *redis.Client

	// Identifies this instance on the relay channel so its own published
	// messages are not delivered twice locally.
	instanceID string

	logger logger.ILogger
}

const relayChannel = "cluster_events"

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

// Run services the Redis relay subscription. Without Redis it returns
// immediately; the hub itself needs no background loop.
func (h *Hub) Run() {
	if h.rdb == nil {
		return
	}
	h.subscribeToRelay()
}

// Register adds an accepted connection to the live set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Hub", "Client registered", map[string]interface{}{
		"client_id":       c.ID,
		"connected_count": count,
	})
}

// Remove takes a connection out of the live set and closes its send channel.
// Idempotent: removing an already-removed connection is a no-op.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		h.logger.Info("Hub", "Client removed", map[string]interface{}{
			"client_id":       c.ID,
			"connected_count": len(h.clients),
		})
	}
	h.mu.Unlock()
}

// ClientCount returns the size of the live set.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast marshals v once and delivers it to every live connection.
func (h *Hub) Broadcast(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Hub", "Broadcast marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}
	h.BroadcastRaw(data)
}

// BroadcastRaw delivers pre-encoded JSON to every live connection in one
// pass: snapshot the set, attempt each send independently, then remove the
// connections that failed. A slow or dead client never blocks the others.
func (h *Hub) BroadcastRaw(data []byte) {
	h.mu.RLock()
	snapshot := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.RUnlock()

	var failed []*Client
	for _, c := range snapshot {
		if !c.trySend(data) {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.logger.Warn("Hub", "Client send buffer full, dropping connection", map[string]interface{}{
			"client_id": c.ID,
		})
		h.Remove(c)
	}

	h.publishToRelay(data)
}

// Send delivers v to a single connection; on failure that connection is
// removed from the live set.
func (h *Hub) Send(c *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Hub", "Send marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if !c.trySend(data) {
		h.logger.Warn("Hub", "Client send failed, dropping connection", map[string]interface{}{
			"client_id": c.ID,
		})
		h.Remove(c)
	}
}

type relayPayload struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

func (h *Hub) publishToRelay(data []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(relayPayload{Origin: h.instanceID, Message: data})
	if err := h.rdb.Publish(context.Background(), relayChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Relay publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// subscribeToRelay forwards messages broadcast by other instances to the
// local clients. Messages originating here are skipped.
func (h *Hub) subscribeToRelay() {
	pubsub := h.rdb.Subscribe(context.Background(), relayChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload relayPayload
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Relay message parse failed", map[string]interface{}{"error": err.Error()})
			continue
		}
		if payload.Origin == h.instanceID {
			continue
		}

		h.mu.RLock()
		snapshot := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			snapshot = append(snapshot, c)
		}
		h.mu.RUnlock()

		var failed []*Client
		for _, c := range snapshot {
			if !c.trySend(payload.Message) {
				failed = append(failed, c)
			}
		}
		for _, c := range failed {
			h.Remove(c)
		}
	}
}
