// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Model settings
	ModelPath   string // Serialized model artifact location
	BlendWeight float64
	Threshold   float64 // High-severity risk threshold

	// Feedback log
	FeedbackPath string

	// Alerting
	AlertSinkURL string // Webhook receiving high/critical assessments (optional)
	AlertTimeout time.Duration

	// Streaming feed
	StreamURL           string // WebSocket payment feed (optional; HTTP-only if not set)
	StreamMaxReconnects int

	// Observability
	OTLPEndpoint string // OTLP gRPC collector (optional, tracing disabled if not set)
}

const (
	DefaultPort          = "8080"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultModelPath     = "data/model.json"
	DefaultFeedbackPath  = "data/feedback.jsonl"
	DefaultThreshold     = 0.7
	DefaultBlendWeight   = 0.5
	DefaultAlertTimeout  = 5 * time.Second
	DefaultMaxReconnects = 5
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:         os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		ModelPath:           getEnv("MODEL_PATH", DefaultModelPath),
		BlendWeight:         getEnvFloat("BLEND_WEIGHT", DefaultBlendWeight),
		Threshold:           getEnvFloat("RISK_THRESHOLD", DefaultThreshold),
		FeedbackPath:        getEnv("FEEDBACK_PATH", DefaultFeedbackPath),
		AlertSinkURL:        os.Getenv("ALERT_SINK_URL"),
		AlertTimeout:        time.Duration(getEnvInt64("ALERT_TIMEOUT_SECONDS", 5)) * time.Second,
		StreamURL:           os.Getenv("WS_URL"),
		StreamMaxReconnects: int(getEnvInt64("STREAM_MAX_RECONNECTS", DefaultMaxReconnects)),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are in range
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("RISK_THRESHOLD must be in [0,1], got %v", c.Threshold)
	}
	if c.BlendWeight < 0 || c.BlendWeight > 1 {
		return fmt.Errorf("BLEND_WEIGHT must be in [0,1], got %v", c.BlendWeight)
	}
	if c.AlertTimeout <= 0 {
		return fmt.Errorf("ALERT_TIMEOUT_SECONDS must be positive")
	}
	if c.StreamMaxReconnects <= 0 {
		return fmt.Errorf("STREAM_MAX_RECONNECTS must be positive")
	}
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
