// Package config loads runtime configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the daemon needs to run. Every field maps to
// one environment variable; unset optional integrations stay zero and
// the daemon degrades (deterministic chat path, in-memory storage).
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// RedisURL selects the durable kv backend. Empty means the
	// process-local map, which loses everything on restart.
	RedisURL string

	// OpenAIAPIKey enables the LLM reasoning path. Empty means every
	// message resolves deterministically.
	OpenAIAPIKey string
	// OpenAIBaseURL points at an OpenAI-compatible endpoint. Empty uses
	// the official API.
	OpenAIBaseURL string
	// Model is the chat model name.
	Model string
	// MaxToolSteps caps completion rounds per message. Zero selects the
	// built-in default.
	MaxToolSteps int

	// OAuth client registrations.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	YandexClientID     string
	YandexClientSecret string
	YandexRedirectURI  string

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string
	// LogFormat is "json" or "text".
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	// Ignore a missing .env; that is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("MARTIN_ADDR", ":3001"),
		RedisURL:      os.Getenv("REDIS_URL"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:         getEnv("MARTIN_MODEL", "gpt-4o-mini"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3001/api/auth/google/callback"),
		YandexClientID:     os.Getenv("YANDEX_CLIENT_ID"),
		YandexClientSecret: os.Getenv("YANDEX_CLIENT_SECRET"),
		YandexRedirectURI:  getEnv("YANDEX_REDIRECT_URI", "http://localhost:3001/api/auth/yandex/callback"),

		LogLevel:  getEnv("MARTIN_LOG_LEVEL", "info"),
		LogFormat: getEnv("MARTIN_LOG_FORMAT", "json"),
	}

	if raw := os.Getenv("MARTIN_MAX_TOOL_STEPS"); raw != "" {
		steps, err := strconv.Atoi(raw)
		if err != nil || steps < 1 {
			return nil, fmt.Errorf("invalid MARTIN_MAX_TOOL_STEPS %q", raw)
		}
		cfg.MaxToolSteps = steps
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
