// Package sdruntime provides Stable Diffusion image generation capabilities.
package sdruntime

import "errors"

// Sentinel errors for SD runtime operations.
// These are domain-specific errors that provide clear failure modes.
var (
	// Model-related errors
	ErrModelNotFound   = errors.New("sdruntime: model file not found")
	ErrModelLoadFailed = errors.New("sdruntime: failed to load model")

	// Generation errors
	ErrGenerationFailed  = errors.New("sdruntime: image generation failed")
	ErrGenerationTimeout = errors.New("sdruntime: image generation timed out")

	// Input validation errors
	ErrInvalidPrompt = errors.New("sdruntime: invalid prompt")
	ErrInvalidParams = errors.New("sdruntime: invalid generation parameters")

	// Runtime lifecycle errors
	ErrRuntimeClosed = errors.New("sdruntime: runtime is closed")
)
