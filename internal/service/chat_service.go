package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-partner-be/internal/constant"
	"ai-partner-be/internal/model"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/events"
	"ai-partner-be/pkg/knowledge"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/patrickmn/go-cache"
)

// LastActivityKey is where the pipeline records the time of the most recent
// user turn. The silence trigger reads it.
const LastActivityKey = "last_interaction"

// Responder produces answer text for a prompt and never fails; degraded
// answers are ordinary strings (see pkg/llm/safegen).
type Responder interface {
	Generate(ctx context.Context, prompt string) string
}

// Broadcaster is the hub surface the services need.
type Broadcaster interface {
	Broadcast(v interface{})
	BroadcastRaw(data []byte)
	ClientCount() int
}

// IChatService runs one conversation turn.
type IChatService interface {
	Process(ctx context.Context, msg model.UserMessage) model.ChatMessage
}

type chatService struct {
	store     *knowledge.Store
	responder Responder
	publisher message.Publisher
	activity  *cache.Cache
	logger    logger.ILogger
	stepDelay time.Duration
}

func NewChatService(
	store *knowledge.Store,
	responder Responder,
	publisher message.Publisher,
	activity *cache.Cache,
	log logger.ILogger,
	stepDelay time.Duration,
) IChatService {
	return &chatService{
		store:     store,
		responder: responder,
		publisher: publisher,
		activity:  activity,
		logger:    log,
		stepDelay: stepDelay,
	}
}

// Process runs the fixed five-step pipeline for one user turn. No step is
// retried or cancellable once started; every failure path degrades to a
// textual answer that is persisted and delivered like any other.
func (cs *chatService) Process(ctx context.Context, msg model.UserMessage) model.ChatMessage {
	// 1. received: only the content matters; a missing key is an empty
	// question, not an error.
	userInput := msg.Content

	cs.logger.Info("ChatService", "Processing user message", map[string]interface{}{
		"content_length": len(userInput),
	})

	// 2. analyzing
	cs.publishStep(model.StepAnalyzing, "テキスト解析中...")
	cs.pause()

	// 3. searching: read failure inside the store already degrades to "".
	cs.publishStep(model.StepSearching, "データ検索中...")
	contextText := cs.store.Search(userInput, 3)
	cs.pause()

	// 4. generating
	cs.publishStep(model.StepGenerating, "回答生成中...")
	prompt := fmt.Sprintf(constant.PartnerPromptTemplate, contextText, userInput)
	responseText := cs.responder.Generate(ctx, prompt)
	cs.pause()

	// 5. persisted: best effort, logged inside the store on failure.
	cs.store.AppendConversation(userInput, responseText)

	cs.activity.Set(LastActivityKey, time.Now(), cache.NoExpiration)

	// 6. responded
	return model.ChatMessage{
		Type:      model.MessageTypeResponse,
		Role:      constant.AIRole,
		Content:   responseText,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func (cs *chatService) publishStep(step, text string) {
	evt := model.ThinkingEvent{
		Type:    model.MessageTypeThinking,
		Step:    step,
		Message: text,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		cs.logger.Error("ChatService", "Progress event marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := cs.publisher.Publish(events.TopicChatProgress, message.NewMessage(watermill.NewUUID(), data)); err != nil {
		cs.logger.Error("ChatService", "Progress event publish failed", map[string]interface{}{
			"step":  step,
			"error": err.Error(),
		})
	}
}

// pause is the cosmetic per-step delay the UI expects between thinking
// events. Zero in tests.
func (cs *chatService) pause() {
	if cs.stepDelay > 0 {
		time.Sleep(cs.stepDelay)
	}
}
