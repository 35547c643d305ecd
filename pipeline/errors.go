// Package pipeline implements the generation request orchestration layer:
// quality resolution, prompt enhancement, lazy model acquisition, and the
// single and batch generation paths.
package pipeline

import "errors"

// Sentinel errors for pipeline operations.
// These are the orchestration layer's error taxonomy; the transport layer
// maps them to response status codes.
var (
	// ErrInvalidInput indicates a malformed or out-of-policy request
	// (empty prompt, missing or oversized batch list). No model resource
	// is touched when this is returned.
	ErrInvalidInput = errors.New("pipeline: invalid input")

	// ErrInitializationFailed indicates the model runtime could not be
	// constructed. Fatal for the current request; a later request retries
	// construction.
	ErrInitializationFailed = errors.New("pipeline: model initialization failed")

	// ErrGenerationFailed indicates the enhancer, model, or encoder failed
	// while processing an otherwise valid request. The pipeline does not
	// retry; retries are a caller concern.
	ErrGenerationFailed = errors.New("pipeline: generation failed")
)
