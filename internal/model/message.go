package model

// Message type discriminators shared between server and UI.
const (
	MessageTypeMessage  = "message"
	MessageTypeThinking = "thinking"
	MessageTypeTrigger  = "trigger"
	MessageTypeResponse = "response"
)

// UserMessage is an inbound chat message from a client.
// A missing "content" key deserializes to the empty string and is processed
// as-is rather than rejected.
type UserMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatMessage is the final answer delivered for one conversation turn.
type ChatMessage struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ThinkingEvent is an ephemeral progress event broadcast while a turn is
// being processed. Never persisted.
type ThinkingEvent struct {
	Type    string `json:"type"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Pipeline steps, in the order clients observe them.
const (
	StepAnalyzing  = "analyzing"
	StepSearching  = "searching"
	StepGenerating = "generating"
)

// TriggerMessage is an unsolicited server-to-client message (greeting,
// weekly summary, purchase notice).
type TriggerMessage struct {
	Type        string         `json:"type"`
	TriggerType string         `json:"trigger_type"`
	Content     string         `json:"content"`
	Timestamp   string         `json:"timestamp"`
	Metadata    map[string]any `json:"metadata"`
}
