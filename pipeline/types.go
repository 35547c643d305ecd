package pipeline

import "time"

// GenerateRequest is a single-image generation request as received from the
// transport layer. Quality, Width, and Height are optional; zero values are
// filled from configuration defaults.
type GenerateRequest struct {
	Prompt  string
	Quality string
	Width   int
	Height  int
}

// GenerateResult is the response envelope for a successful single generation.
// It is assembled once and never mutated; the image exists only as the
// base64-encoded payload, nothing is persisted server-side.
type GenerateResult struct {
	Image          string // base64-encoded PNG
	Prompt         string // the original (trimmed) prompt
	EnhancedPrompt string // the prompt actually sent to the model
	Width          int
	Height         int
	Steps          int
	Quality        string
}

// BatchRequest is a multi-prompt generation request.
type BatchRequest struct {
	Prompts []string
}

// BatchItem pairs an input prompt with its generated image.
type BatchItem struct {
	Prompt string
	Image  string // base64-encoded PNG
}

// BatchResult holds the per-prompt results of a batch request, in the same
// order as the input prompts.
type BatchResult struct {
	Results []BatchItem
}

// Record describes one completed generation attempt (successful or not).
// Observers receive it for history persistence, metrics, and live updates.
type Record struct {
	ID             string
	Prompt         string
	EnhancedPrompt string
	Quality        string
	Width          int
	Height         int
	Steps          int
	Duration       time.Duration
	Status         string // "success" or "error"
	ErrorMessage   string
	Batch          bool
	CreatedAt      time.Time
}

// Record status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Observer receives generation lifecycle notifications. Implementations must
// not block: they run on the request path.
type Observer interface {
	// GenerationStarted is called when a generation begins.
	GenerationStarted(id, prompt string)
	// GenerationCompleted is called when a generation finishes, with the
	// outcome in the record.
	GenerationCompleted(rec Record)
}
