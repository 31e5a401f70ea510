/**
 * Configuration for the result-screen OCR worker
 *
 * Loads configuration from environment variables, optionally seeded from .env
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// OCR backends
const (
	BackendTesseract = "tesseract"
	BackendCommand   = "command"
)

// Config holds worker configuration
type Config struct {
	// Batch input and output
	InputDir   string
	OutputPath string

	// OCR adapter configuration
	OCRBackend   string
	OCRCommand   string
	OCRLanguages []string
	OCRTimeout   time.Duration

	// Literal prefix that marks the level fragment
	LevelMarker string

	// Optional PostgreSQL sink
	DatabaseURL string

	// Redis configuration (queue mode and run status)
	RedisURL  string
	QueueName string

	LogLevel string
}

// LoadConfig loads configuration from environment variables, applies
// overrides in order, then validates the result.
func LoadConfig(overrides ...func(*Config)) (*Config, error) {
	cfg := fromEnv()
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// fromEnv reads the environment without validating
func fromEnv() *Config {
	return &Config{
		InputDir:     getEnvOrDefault("INPUT_DIR", "images/v2"),
		OutputPath:   getEnvOrDefault("OUTPUT_PATH", "output.csv"),
		OCRBackend:   getEnvOrDefault("OCR_BACKEND", BackendTesseract),
		OCRCommand:   getEnvOrDefault("OCR_COMMAND", ""),
		OCRLanguages: getEnvAsListOrDefault("OCR_LANGUAGES", []string{"jpn", "eng"}),
		OCRTimeout:   time.Duration(getEnvAsIntOrDefault("OCR_TIMEOUT_MS", 60000)) * time.Millisecond,
		LevelMarker:  getEnvOrDefault("LEVEL_MARKER", "楽曲LV."),
		DatabaseURL:  getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:     getEnvOrDefault("REDIS_URL", ""),
		QueueName:    getEnvOrDefault("QUEUE_NAME", "resultocr:batches"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("INPUT_DIR is required")
	}

	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}

	switch c.OCRBackend {
	case BackendTesseract:
	case BackendCommand:
		if c.OCRCommand == "" {
			return fmt.Errorf("OCR_COMMAND is required when OCR_BACKEND=%s", BackendCommand)
		}
	default:
		return fmt.Errorf("OCR_BACKEND must be %q or %q, got %q", BackendTesseract, BackendCommand, c.OCRBackend)
	}

	if c.OCRTimeout < 0 {
		return fmt.Errorf("OCR_TIMEOUT_MS must not be negative, got %v", c.OCRTimeout)
	}

	if c.LevelMarker == "" {
		return fmt.Errorf("LEVEL_MARKER is required")
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault splits a comma separated variable, dropping blanks
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
