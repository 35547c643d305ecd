// Package core provides configuration loading, validation, and shared
// utilities for the text-to-image generation service.
package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all process-wide configuration for the service.
// Values are loaded from environment variables with sensible defaults;
// the per-tier step table can additionally be overridden by a YAML file.
type Config struct {
	// Model configuration
	ModelPath   string // Path to the SD model file (required unless ModelURL is set)
	ModelURL    string // Optional download URL used when the model file is missing
	ModelSHA256 string // Optional expected SHA256 checksum for the model file
	ModelsDir   string // Directory where model files are stored
	OutputsDir  string // Scratch directory prepared before the runtime starts

	// Generation defaults
	DefaultWidth         int     // Default image width when a request omits it
	DefaultHeight        int     // Default image height when a request omits it
	DefaultGuidanceScale float64 // Default CFG scale passed to the runtime

	// Quality tier step counts
	HighQualitySteps   int
	MediumQualitySteps int
	LowQualitySteps    int

	// Request policy
	MaxBatchSize      int           // Maximum prompts accepted in one batch request
	MaxRequestBytes   int64         // Maximum request payload size in bytes
	GenerationTimeout time.Duration // Per-request generation timeout

	// HTTP server
	Host string
	Port int

	// Prompt enhancer
	EnhancerBackend string // "heuristic" (default) or "openai"
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string

	// Storage
	DatabasePath   string
	MigrationsPath string

	// Logging
	LogFile string
	DevMode bool
}

// Default configuration values.
// Step counts match the quality tiers exposed in the UI
// (high=50, medium=30, low=20).
const (
	DefaultHighQualitySteps   = 50
	DefaultMediumQualitySteps = 30
	DefaultLowQualitySteps    = 20

	DefaultWidthValue    = 768
	DefaultHeightValue   = 768
	DefaultGuidanceValue = 7.5

	DefaultMaxBatchSize    = 5
	DefaultMaxRequestBytes = 16 << 20 // 16 MiB

	DefaultPort           = 8080
	DefaultTimeoutSeconds = 300
)

// LoadConfig loads configuration from environment variables.
// Returns a ConfigError when a required value is missing or invalid.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ModelPath:   os.Getenv("SD_MODEL_PATH"),
		ModelURL:    os.Getenv("SD_MODEL_URL"),
		ModelSHA256: os.Getenv("SD_MODEL_SHA256"),
		ModelsDir:   GetEnvOrDefault("MODELS_DIR", "models"),
		OutputsDir:  GetEnvOrDefault("OUTPUTS_DIR", "outputs"),

		DefaultWidth:         ParseIntEnv("DEFAULT_WIDTH", DefaultWidthValue),
		DefaultHeight:        ParseIntEnv("DEFAULT_HEIGHT", DefaultHeightValue),
		DefaultGuidanceScale: ParseFloat64Env("DEFAULT_GUIDANCE_SCALE", DefaultGuidanceValue),

		HighQualitySteps:   ParseIntEnv("HIGH_QUALITY_STEPS", DefaultHighQualitySteps),
		MediumQualitySteps: ParseIntEnv("MEDIUM_QUALITY_STEPS", DefaultMediumQualitySteps),
		LowQualitySteps:    ParseIntEnv("LOW_QUALITY_STEPS", DefaultLowQualitySteps),

		MaxBatchSize:      ParseIntEnv("MAX_BATCH_SIZE", DefaultMaxBatchSize),
		MaxRequestBytes:   ParseInt64Env("MAX_REQUEST_BYTES", DefaultMaxRequestBytes),
		GenerationTimeout: ParseDurationEnv("GENERATION_TIMEOUT_SECONDS", DefaultTimeoutSeconds),

		Host: GetEnvOrDefault("HOST", "0.0.0.0"),
		Port: ParseIntEnv("PORT", DefaultPort),

		EnhancerBackend: GetEnvOrDefault("ENHANCER_BACKEND", "heuristic"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_API_BASE_URL"),
		OpenAIModel:     GetEnvOrDefault("OPENAI_ENHANCER_MODEL", "gpt-4o-mini"),

		DatabasePath:   GetEnvOrDefault("DATABASE_PATH", "data/history.db"),
		MigrationsPath: GetEnvOrDefault("MIGRATIONS_PATH", "file://db/migrations"),

		LogFile: GetEnvOrDefault("LOG_FILE", "imagegen.log"),
		DevMode: ParseBoolEnv("DEV_MODE", false),
	}

	if path := os.Getenv("QUALITY_PROFILE_FILE"); path != "" {
		if err := cfg.applyQualityFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// qualityFile is the YAML shape of an optional quality-tier override file.
type qualityFile struct {
	HighSteps     int     `yaml:"high_steps"`
	MediumSteps   int     `yaml:"medium_steps"`
	LowSteps      int     `yaml:"low_steps"`
	GuidanceScale float64 `yaml:"guidance_scale"`
}

// applyQualityFile overlays per-tier step counts from a YAML file.
// Zero values in the file leave the existing configuration untouched.
func (c *Config) applyQualityFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ErrQualityFileUnreadable(path, err)
	}

	var qf qualityFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return ErrQualityFileUnreadable(path, err)
	}

	if qf.HighSteps > 0 {
		c.HighQualitySteps = qf.HighSteps
	}
	if qf.MediumSteps > 0 {
		c.MediumQualitySteps = qf.MediumSteps
	}
	if qf.LowSteps > 0 {
		c.LowQualitySteps = qf.LowSteps
	}
	if qf.GuidanceScale > 0 {
		c.DefaultGuidanceScale = qf.GuidanceScale
	}
	return nil
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	if c.ModelPath == "" && c.ModelURL == "" {
		return ErrMissingModel()
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort(c.Port)
	}
	if c.DefaultWidth <= 0 || c.DefaultHeight <= 0 {
		return ErrInvalidConfigValue("DEFAULT_WIDTH/DEFAULT_HEIGHT",
			fmt.Sprintf("%dx%d", c.DefaultWidth, c.DefaultHeight))
	}
	if c.HighQualitySteps <= 0 || c.MediumQualitySteps <= 0 || c.LowQualitySteps <= 0 {
		return ErrInvalidConfigValue("quality steps",
			fmt.Sprintf("high=%d medium=%d low=%d",
				c.HighQualitySteps, c.MediumQualitySteps, c.LowQualitySteps))
	}
	if c.MaxBatchSize < 1 {
		return ErrInvalidConfigValue("MAX_BATCH_SIZE", fmt.Sprintf("%d", c.MaxBatchSize))
	}
	return nil
}

// Addr returns the host:port address the HTTP server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
