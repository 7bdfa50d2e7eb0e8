package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"ai-partner-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(nil, logger.NewNopLogger())
}

func newTestClient(h *Hub, buffer int) *Client {
	return &Client{
		Hub:  h,
		ID:   uuid.New(),
		Send: make(chan []byte, buffer),
	}
}

func TestRegisterAndClientCount(t *testing.T) {
	hub := newTestHub()
	assert.Equal(t, 0, hub.ClientCount())

	a := newTestClient(hub, 1)
	b := newTestClient(hub, 1)
	hub.Register(a)
	hub.Register(b)

	assert.Equal(t, 2, hub.ClientCount())
}

func TestRemove_Idempotent(t *testing.T) {
	hub := newTestHub()
	c := newTestClient(hub, 1)
	hub.Register(c)

	hub.Remove(c)
	assert.Equal(t, 0, hub.ClientCount())

	// Removing again must not panic on the closed channel.
	hub.Remove(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestBroadcast_DeliversToAllClients(t *testing.T) {
	hub := newTestHub()
	a := newTestClient(hub, 4)
	b := newTestClient(hub, 4)
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(map[string]string{"type": "trigger", "content": "おはよう"})

	for _, c := range []*Client{a, b} {
		select {
		case raw := <-c.Send:
			var got map[string]string
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, "trigger", got["type"])
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}
}

func TestBroadcast_DropsClientWithFullBuffer(t *testing.T) {
	hub := newTestHub()
	healthy := newTestClient(hub, 4)
	stuck := newTestClient(hub, 1)
	stuck.Send <- []byte("backlog") // fill the buffer so the next send fails
	hub.Register(healthy)
	hub.Register(stuck)

	hub.BroadcastRaw([]byte(`{"type":"thinking"}`))

	assert.Equal(t, 1, hub.ClientCount(), "the stuck client must be removed")
	assert.Len(t, healthy.Send, 1, "the healthy client still gets the message")

	// A later broadcast reaches only the surviving client and must not panic.
	hub.BroadcastRaw([]byte(`{"type":"response"}`))
	assert.Len(t, healthy.Send, 2)
}

func TestSend_TargetsSingleClient(t *testing.T) {
	hub := newTestHub()
	a := newTestClient(hub, 4)
	b := newTestClient(hub, 4)
	hub.Register(a)
	hub.Register(b)

	hub.Send(a, map[string]string{"type": "response", "content": "答え"})

	assert.Len(t, a.Send, 1)
	assert.Len(t, b.Send, 0)
}

func TestBroadcast_RacingRemoveDoesNotPanic(t *testing.T) {
	hub := newTestHub()

	clients := make([]*Client, 32)
	for i := range clients {
		clients[i] = newTestClient(hub, 1)
		hub.Register(clients[i])
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				hub.BroadcastRaw([]byte(`{"type":"thinking"}`))
			}
		}()
	}
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			hub.Remove(c)
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}

func TestSend_FailureRemovesClient(t *testing.T) {
	hub := newTestHub()
	stuck := newTestClient(hub, 1)
	stuck.Send <- []byte("backlog")
	hub.Register(stuck)

	hub.Send(stuck, map[string]string{"type": "response"})

	assert.Equal(t, 0, hub.ClientCount())
}
