package sdruntime

import (
	"fmt"
	"strings"
)

// ValidatePrompt validates a prompt string for image generation.
// Returns an error if the prompt is invalid.
// This is a pure function with no side effects.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt cannot be empty", ErrInvalidPrompt)
	}

	// Null bytes are rejected for C interop safety
	if strings.ContainsRune(prompt, '\x00') {
		return fmt.Errorf("%w: prompt contains null bytes", ErrInvalidPrompt)
	}

	if len(prompt) > MaxPromptLength {
		return fmt.Errorf("%w: prompt length %d exceeds maximum %d",
			ErrInvalidPrompt, len(prompt), MaxPromptLength)
	}

	return nil
}

// SanitizePrompt cleans a prompt by trimming whitespace.
// This is a pure function that transforms input to output.
func SanitizePrompt(prompt string) string {
	return strings.TrimSpace(prompt)
}

// Quality-tier style suffixes appended by EnhancePrompt.
const (
	highQualitySuffix   = "masterpiece, best quality, highly detailed, sharp focus, 8k resolution"
	mediumQualitySuffix = "high quality, detailed, sharp focus"
	lowQualitySuffix    = "good quality"
)

// EnhancePrompt appends quality-tier style keywords to a prompt to steer the
// model toward better output. Unrecognized quality labels use the medium
// suffix. Deterministic: the same (prompt, quality) pair always yields the
// same enhanced text.
// This is a pure function with no side effects.
func EnhancePrompt(prompt, quality string) string {
	prompt = SanitizePrompt(prompt)
	if prompt == "" {
		return prompt
	}

	var suffix string
	switch strings.ToLower(quality) {
	case "high":
		suffix = highQualitySuffix
	case "low":
		suffix = lowQualitySuffix
	default:
		suffix = mediumQualitySuffix
	}

	return prompt + ", " + suffix
}
