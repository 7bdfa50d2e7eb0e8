package service

import (
	"context"

	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// ProgressForwarder relays pipeline progress events from the in-process bus
// to every connected websocket client. Keeps the pipeline unaware of the
// transport.
type ProgressForwarder struct {
	subscriber message.Subscriber
	hub        Broadcaster
	logger     logger.ILogger
}

func NewProgressForwarder(sub message.Subscriber, hub Broadcaster, log logger.ILogger) *ProgressForwarder {
	return &ProgressForwarder{
		subscriber: sub,
		hub:        hub,
		logger:     log,
	}
}

// Start subscribes to the progress topic and forwards until ctx is done.
func (f *ProgressForwarder) Start(ctx context.Context) error {
	ch, err := f.subscriber.Subscribe(ctx, events.TopicChatProgress)
	if err != nil {
		return err
	}

	go func() {
		for msg := range ch {
			f.hub.BroadcastRaw(msg.Payload)
			msg.Ack()
		}
		f.logger.Info("ProgressForwarder", "Progress subscription closed", nil)
	}()
	return nil
}
