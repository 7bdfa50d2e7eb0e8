package events

import "time"

// Watermill topic carrying pipeline progress events to the websocket hub.
const TopicChatProgress = "chat.progress"

// Trigger types delivered to clients as unsolicited messages.
const (
	TriggerMorning  = "morning"
	TriggerSilence  = "silence"
	TriggerWeekly   = "weekly"
	TriggerPurchase = "purchase"
	TriggerAlert    = "alert"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "trigger.morning").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used across the trigger lane.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
