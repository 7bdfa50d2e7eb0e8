package dto

// ChatRequest is the request/response equivalent of a websocket chat message.
// Content is intentionally allowed to be empty: the pipeline treats a missing
// content as an empty question, not an error.
type ChatRequest struct {
	Type      string `json:"type" validate:"required,oneof=message"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type ChatResponse struct {
	Type      string `json:"type"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
}
