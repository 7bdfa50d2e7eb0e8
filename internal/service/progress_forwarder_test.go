package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu  sync.Mutex
	raw [][]byte
}

func (r *recordingBroadcaster) Broadcast(v interface{}) {}

func (r *recordingBroadcaster) BroadcastRaw(data []byte) {
	r.mu.Lock()
	r.raw = append(r.raw, data)
	r.mu.Unlock()
}

func (r *recordingBroadcaster) ClientCount() int { return 0 }

func (r *recordingBroadcaster) snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.raw))
	copy(out, r.raw)
	return out
}

func TestProgressForwarder_RelaysPayloadsToHub(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	hub := &recordingBroadcaster{}
	fwd := NewProgressForwarder(pubSub, hub, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, fwd.Start(ctx))

	payload := []byte(`{"type":"thinking","step":"analyzing","message":"テキスト解析中..."}`)
	require.NoError(t, pubSub.Publish(events.TopicChatProgress,
		message.NewMessage(watermill.NewUUID(), payload)))

	assert.Eventually(t, func() bool {
		got := hub.snapshot()
		return len(got) == 1 && string(got[0]) == string(payload)
	}, 2*time.Second, 10*time.Millisecond, "the published event must reach the hub untouched")
}
