package service

import (
	"context"
	"fmt"
	"time"

	"ai-partner-be/internal/model"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/events"
	pktNats "ai-partner-be/pkg/nats"

	"github.com/patrickmn/go-cache"
)

// TriggerService announces unsolicited messages to all connected clients:
// greetings, summaries, purchase notices. It does not schedule anything
// itself; cadence belongs to external producers publishing on the NATS
// trigger lane (extension point).
type TriggerService struct {
	hub          Broadcaster
	subscriber   *pktNats.Subscriber
	activity     *cache.Cache
	silenceAfter time.Duration
	logger       logger.ILogger
}

func NewTriggerService(
	hub Broadcaster,
	sub *pktNats.Subscriber,
	activity *cache.Cache,
	silenceAfter time.Duration,
	log logger.ILogger,
) *TriggerService {
	if silenceAfter <= 0 {
		silenceAfter = 72 * time.Hour
	}
	return &TriggerService{
		hub:          hub,
		subscriber:   sub,
		activity:     activity,
		silenceAfter: silenceAfter,
		logger:       log,
	}
}

// SendTrigger broadcasts one trigger message to every connected client.
func (ts *TriggerService) SendTrigger(triggerType, content string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	msg := model.TriggerMessage{
		Type:        model.MessageTypeTrigger,
		TriggerType: triggerType,
		Content:     content,
		Timestamp:   time.Now().Format(time.RFC3339),
		Metadata:    metadata,
	}
	ts.hub.Broadcast(msg)
	ts.logger.Info("TriggerService", "Trigger sent", map[string]interface{}{
		"trigger_type": triggerType,
		"content":      content,
	})
}

// MorningGreeting announces the daily greeting.
func (ts *TriggerService) MorningGreeting() {
	ts.SendTrigger(events.TriggerMorning, "おはようございます！今日の体調はどうですか？", nil)
}

// SilenceCheck nudges the user when no turn has been processed within the
// silence window. A recent interaction suppresses it.
func (ts *TriggerService) SilenceCheck() {
	if v, ok := ts.activity.Get(LastActivityKey); ok {
		if last, ok := v.(time.Time); ok && time.Since(last) < ts.silenceAfter {
			return
		}
	}
	ts.SendTrigger(events.TriggerSilence, "最近相談がないですね。何か困ってることはありませんか？", nil)
}

// WeeklySummary announces the weekly spending check.
func (ts *TriggerService) WeeklySummary() {
	ts.SendTrigger(events.TriggerWeekly, "今週の支出、確認しましたか？食費が多めですね。", nil)
}

// PurchaseNotice announces a purchase extracted from email.
func (ts *TriggerService) PurchaseNotice(order model.Order) {
	content := fmt.Sprintf("新しい購入を確認しました：%s（%s）", order.Product, order.Price)
	ts.SendTrigger(events.TriggerPurchase, content, map[string]any{
		"product": order.Product,
		"price":   order.Price,
		"date":    order.Date,
		"source":  order.Source,
	})
}

// Start subscribes to externally produced trigger events and forwards each
// one to the clients. Without a NATS connection the announcer still works
// for in-process calls; only the external lane is disabled.
func (ts *TriggerService) Start() error {
	if ts.subscriber == nil {
		ts.logger.Warn("TriggerService", "No NATS subscriber, external trigger lane disabled", nil)
		return nil
	}
	return ts.subscriber.Subscribe("triggers.>", "trigger-announcer", func(ctx context.Context, evt events.Event) error {
		content, _ := evt.Payload()["content"].(string)
		metadata := make(map[string]any, len(evt.Payload()))
		for k, v := range evt.Payload() {
			if k != "content" {
				metadata[k] = v
			}
		}
		ts.SendTrigger(evt.EventType(), content, metadata)
		return nil
	})
}
