package core

import (
	"fmt"
)

// ConfigError represents a configuration-related error with actionable instructions.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // Actionable instruction for resolution
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeMissingModel     = "MISSING_MODEL"
	ErrCodeInvalidPort      = "INVALID_PORT"
	ErrCodeInvalidValue     = "INVALID_CONFIG_VALUE"
	ErrCodeQualityFile      = "QUALITY_FILE_UNREADABLE"
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
)

// ErrMissingModel returns an error for a missing model configuration.
func ErrMissingModel() *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingModel,
		Message: "No model configured",
		Action:  "Set SD_MODEL_PATH to a local model file, or SD_MODEL_URL to a downloadable model",
	}
}

// ErrInvalidPort returns an error for an out-of-range listen port.
func ErrInvalidPort(port int) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidPort,
		Message: fmt.Sprintf("Invalid PORT value %d", port),
		Action:  "Set PORT to a value between 1 and 65535",
	}
}

// ErrInvalidConfigValue returns an error for a configuration value that
// failed validation.
func ErrInvalidConfigValue(name, value string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid configuration value for %s: %s", name, value),
		Action:  fmt.Sprintf("Check %s in your .env file", name),
	}
}

// ErrQualityFileUnreadable returns an error for an unreadable or malformed
// quality-tier override file.
func ErrQualityFileUnreadable(path string, cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeQualityFile,
		Message: fmt.Sprintf("Cannot read quality profile file %s: %v", path, cause),
		Action:  "Fix or remove QUALITY_PROFILE_FILE",
	}
}

// ErrModelUnavailable returns an error when the model file cannot be made
// available locally.
func ErrModelUnavailable(path string, cause error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeModelUnavailable,
		Message: fmt.Sprintf("Model file %s is not available: %v", path, cause),
		Action:  "Verify SD_MODEL_PATH, or set SD_MODEL_URL so the model can be downloaded",
	}
}

// IsConfigError checks if an error is a ConfigError and returns it if so.
func IsConfigError(err error) (*ConfigError, bool) {
	if configErr, ok := err.(*ConfigError); ok {
		return configErr, true
	}
	return nil, false
}
