// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	Port                  int
	RequestTimeoutSeconds int

	// Azure Blob Storage credentials
	AzureConnectionString string
	AzureAccountKey       string

	// S3 credentials
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Endpoint         string // Optional custom endpoint

	// GCS credentials
	GoogleServiceAccountJSON string

	// Extraction options
	DefaultExpiryDays int
	ProbeConcurrency  int
	ProbeTempDir      string // Empty means os.TempDir()

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load reads configuration from environment variables. A .env file in the
// working directory, if present, is loaded first without overriding
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AzureConnectionString: os.Getenv("AZURE_STORAGE_CONNECTION_STRING"),
		AzureAccountKey:       os.Getenv("AZURE_ACCOUNT_KEY"),

		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWSRegion:          getEnvString("AWS_REGION", "us-east-1"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),

		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),

		ProbeTempDir: os.Getenv("PROBE_TEMP_DIR"),
		LogLevel:     getEnvString("LOG_LEVEL", "info"),
		LogFormat:    getEnvString("LOG_FORMAT", "text"),
	}

	cfg.Port = getEnvInt("PORT", 8000)
	cfg.RequestTimeoutSeconds = getEnvInt("REQUEST_TIMEOUT_SECONDS", 300)
	cfg.DefaultExpiryDays = getEnvInt("DEFAULT_EXPIRY_DAYS", 7)
	cfg.ProbeConcurrency = getEnvInt("PROBE_CONCURRENCY", 1)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
//
// Storage credentials are not required here. A missing credential is
// reported on the request that selects that backend.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}

	if c.DefaultExpiryDays < 1 {
		return fmt.Errorf("DEFAULT_EXPIRY_DAYS must be at least 1")
	}

	if c.ProbeConcurrency < 1 {
		return fmt.Errorf("PROBE_CONCURRENCY must be at least 1")
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT: %s (must be 'text' or 'json')", c.LogFormat)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// AzureConfigured reports whether both Azure credentials are present.
func (c *Config) AzureConfigured() bool {
	return c.AzureConnectionString != "" && c.AzureAccountKey != ""
}

// S3Configured reports whether both AWS credentials are present.
func (c *Config) S3Configured() bool {
	return c.AWSAccessKeyID != "" && c.AWSSecretAccessKey != ""
}

// GCSConfigured reports whether a service account is present.
func (c *Config) GCSConfigured() bool {
	return c.GoogleServiceAccountJSON != ""
}

// GetRequestTimeout returns the per-request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL: %s", c.LogLevel)
	}
	return level, nil
}

// getEnvString gets a string from environment variable with a default value.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer from environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
