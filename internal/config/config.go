// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

// Config holds all application configuration.
type Config struct {
	// BackendURL is the base URL of the tutor backend.
	BackendURL string

	// APIKey authenticates against the backend, when it requires one.
	APIKey string

	// Model is the tutor model requested for every question.
	Model string

	// AutoSpeak controls whether answers are read aloud automatically.
	AutoSpeak bool

	// VoiceID and SpeechRate shape synthesized speech. SpeechRate 1.0 is
	// normal speed.
	VoiceID    string
	SpeechRate float64

	// CartesiaAPIKey enables voice input and output. Empty disables both.
	CartesiaAPIKey string

	// DBPath locates the session database. Empty keeps sessions in memory
	// for the lifetime of the process.
	DBPath string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the
// environment. Environment variables win over the file.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env vars are enough.
	_ = godotenv.Load()

	cfg := &Config{
		BackendURL:     getEnv("TUTOR_BACKEND_URL", "http://localhost:8000"),
		APIKey:         getEnv("TUTOR_API_KEY", ""),
		Model:          getEnv("TUTOR_MODEL", types.DefaultModel),
		AutoSpeak:      getEnvBool("TUTOR_AUTO_SPEAK", true),
		VoiceID:        getEnv("TUTOR_VOICE_ID", ""),
		SpeechRate:     getEnvFloat("TUTOR_SPEECH_RATE", 1.0),
		CartesiaAPIKey: getEnv("CARTESIA_API_KEY", ""),
		DBPath:         getEnv("TUTOR_DB_PATH", "./data/tutor.db"),
		LogLevel:       getEnv("TUTOR_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration constraints.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("TUTOR_BACKEND_URL cannot be empty")
	}
	switch c.Model {
	case types.ModelGeminiFlash, types.ModelGeminiPro:
	default:
		return fmt.Errorf("TUTOR_MODEL %q is not a known model", c.Model)
	}
	if c.SpeechRate <= 0 || c.SpeechRate > 4 {
		return fmt.Errorf("TUTOR_SPEECH_RATE must be in (0, 4], got %v", c.SpeechRate)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("TUTOR_LOG_LEVEL %q is not a known level", c.LogLevel)
	}
	return nil
}

// VoiceEnabled reports whether voice features can be offered at all.
func (c *Config) VoiceEnabled() bool {
	return c.CartesiaAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
