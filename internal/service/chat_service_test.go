package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"ai-partner-be/internal/constant"
	"ai-partner-be/internal/model"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/events"
	"ai-partner-be/pkg/knowledge"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	out     string
	prompts []string
}

func (f *fakeResponder) Generate(ctx context.Context, prompt string) string {
	f.prompts = append(f.prompts, prompt)
	return f.out
}

type chatFixture struct {
	service   IChatService
	store     *knowledge.Store
	responder *fakeResponder
	activity  *cache.Cache
	progress  <-chan *message.Message
	cancel    context.CancelFunc
}

func newChatFixture(t *testing.T, answer string) *chatFixture {
	t.Helper()

	store := knowledge.NewStore(logger.NewNopLogger(), "")
	responder := &fakeResponder{out: answer}
	activity := cache.New(cache.NoExpiration, 0)

	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 16,
	}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	progress, err := pubSub.Subscribe(ctx, events.TopicChatProgress)
	require.NoError(t, err)

	svc := NewChatService(store, responder, pubSub, activity, logger.NewNopLogger(), 0)

	return &chatFixture{
		service:   svc,
		store:     store,
		responder: responder,
		activity:  activity,
		progress:  progress,
		cancel:    cancel,
	}
}

func collectSteps(t *testing.T, progress <-chan *message.Message, n int) []model.ThinkingEvent {
	t.Helper()
	steps := make([]model.ThinkingEvent, 0, n)
	for i := 0; i < n; i++ {
		select {
		case msg := <-progress:
			var evt model.ThinkingEvent
			require.NoError(t, json.Unmarshal(msg.Payload, &evt))
			steps = append(steps, evt)
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("expected %d progress events, got %d", n, len(steps))
		}
	}
	return steps
}

func TestProcess_PublishesStepsInOrder(t *testing.T) {
	fx := newChatFixture(t, "メッシュ素材の椅子がおすすめです")

	fx.service.Process(context.Background(), model.UserMessage{
		Type:    model.MessageTypeMessage,
		Content: "椅子を買いたい",
	})

	steps := collectSteps(t, fx.progress, 3)
	assert.Equal(t, model.StepAnalyzing, steps[0].Step)
	assert.Equal(t, model.StepSearching, steps[1].Step)
	assert.Equal(t, model.StepGenerating, steps[2].Step)
	for _, s := range steps {
		assert.Equal(t, model.MessageTypeThinking, s.Type)
		assert.NotEmpty(t, s.Message)
	}
}

func TestProcess_ResponseShape(t *testing.T) {
	fx := newChatFixture(t, "メッシュ素材の椅子がおすすめです")

	got := fx.service.Process(context.Background(), model.UserMessage{
		Type:    model.MessageTypeMessage,
		Content: "椅子を買いたい",
	})

	assert.Equal(t, model.MessageTypeResponse, got.Type)
	assert.Equal(t, constant.AIRole, got.Role)
	assert.Equal(t, "メッシュ素材の椅子がおすすめです", got.Content)
	_, err := time.Parse(time.RFC3339, got.Timestamp)
	assert.NoError(t, err)
}

func TestProcess_PromptCarriesContextAndQuestion(t *testing.T) {
	fx := newChatFixture(t, "承知しました")
	fx.store.AppendWithID("d1", "メッシュ素材の椅子が快適", nil)

	fx.service.Process(context.Background(), model.UserMessage{Content: "椅子が欲しい"})

	require.Len(t, fx.responder.prompts, 1)
	prompt := fx.responder.prompts[0]
	assert.Contains(t, prompt, "メッシュ素材の椅子が快適", "retrieved context goes into the prompt")
	assert.Contains(t, prompt, "ユーザーの質問：椅子が欲しい")
	assert.True(t, strings.HasSuffix(prompt, "回答："))
}

func TestProcess_EmptyContentIsAnEmptyQuestion(t *testing.T) {
	fx := newChatFixture(t, "何かお手伝いできますか？")

	got := fx.service.Process(context.Background(), model.UserMessage{Type: model.MessageTypeMessage})

	require.Len(t, fx.responder.prompts, 1)
	assert.Contains(t, fx.responder.prompts[0], "ユーザーの質問：\n")
	assert.Equal(t, "何かお手伝いできますか？", got.Content)
}

func TestProcess_PersistsTurnAndActivity(t *testing.T) {
	fx := newChatFixture(t, "おすすめはこちらです")

	before := time.Now()
	fx.service.Process(context.Background(), model.UserMessage{Content: "おすすめは？"})

	turns := fx.store.DocumentsByType("conversation")
	require.Len(t, turns, 1)
	assert.Contains(t, turns[0].Text, "質問: おすすめは？")
	assert.Contains(t, turns[0].Text, "回答: おすすめはこちらです")

	raw, ok := fx.activity.Get(LastActivityKey)
	require.True(t, ok, "the turn must stamp last activity")
	stamp, ok := raw.(time.Time)
	require.True(t, ok)
	assert.False(t, stamp.Before(before))
}

func TestProcess_DegradedAnswerIsPersistedLikeAnyOther(t *testing.T) {
	// A responder that degrades (pkg/llm/safegen) still returns plain text;
	// the pipeline must not treat it specially.
	fx := newChatFixture(t, "申し訳ありません。応答がタイムアウトしました。もう一度お試しください。")

	got := fx.service.Process(context.Background(), model.UserMessage{Content: "椅子は？"})

	assert.Equal(t, model.MessageTypeResponse, got.Type)
	turns := fx.store.DocumentsByType("conversation")
	require.Len(t, turns, 1)
	assert.Contains(t, turns[0].Text, "タイムアウト")
}
