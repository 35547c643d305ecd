package webui

import "time"

// Message type constants for the WebSocket event stream.
const (
	// MessageTypeGenerationStarted indicates a generation began.
	MessageTypeGenerationStarted = "generation_started"

	// MessageTypeGenerationCompleted indicates a generation finished.
	MessageTypeGenerationCompleted = "generation_completed"

	// MessageTypeError indicates a server-side error message.
	MessageTypeError = "error"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	// Type identifies the message kind (use MessageType* constants)
	Type string `json:"type"`

	// Timestamp is when the message was created
	Timestamp time.Time `json:"timestamp"`

	// Data contains the type-specific payload
	Data interface{} `json:"data,omitempty"`
}

// NewWSMessage creates a message with the current timestamp.
func NewWSMessage(msgType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// GenerationStartedData is the payload for generation_started messages.
type GenerationStartedData struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

// GenerationCompletedData is the payload for generation_completed messages.
// The image itself is never broadcast, only the outcome.
type GenerationCompletedData struct {
	ID         string `json:"id"`
	Prompt     string `json:"prompt"`
	Quality    string `json:"quality"`
	Steps      int    `json:"steps"`
	DurationMS int64  `json:"duration_ms"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Batch      bool   `json:"batch"`
}
