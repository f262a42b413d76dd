package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/martinhq/martin/pkg/martin/assistant"
	"github.com/martinhq/martin/pkg/martin/config"
	"github.com/martinhq/martin/pkg/martin/kv"
	"github.com/martinhq/martin/pkg/martin/llm"
	"github.com/martinhq/martin/pkg/martin/oauth"
	"github.com/martinhq/martin/pkg/martin/reminders"
	"github.com/martinhq/martin/pkg/martin/tasks"
	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools"
)

// app is the assembled service: stores, tools, assistant, providers.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	env       *tools.Env
	assistant *assistant.Assistant
	reminders *reminders.Store
	google    *oauth.GoogleProvider
	yandex    *oauth.YandexProvider

	redis *kv.Redis // nil on the in-memory fallback
}

func newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose, cfg.LogLevel == "debug":
		level = slog.LevelDebug
	case cfg.LogLevel == "warn":
		level = slog.LevelWarn
	case cfg.LogLevel == "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}

// buildApp loads config and wires the service. Optional integrations
// that are not configured (Redis, OpenAI, OAuth clients) degrade with a
// logged warning instead of failing startup.
func buildApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger := newLogger(cfg, verbose)

	a := &app{cfg: cfg, logger: logger}

	// ── Storage ──
	var backend kv.Store
	if cfg.RedisURL != "" {
		redis, err := kv.NewRedis(cfg.RedisURL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = redis.Ping(ctx)
			cancel()
		}
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory storage; tokens and tasks will not survive restarts",
				"error", err)
		} else {
			logger.Info("redis storage connected")
			a.redis = redis
			backend = redis
		}
	}
	if backend == nil {
		if cfg.RedisURL == "" {
			logger.Warn("no REDIS_URL configured, using in-memory storage; tokens and tasks will not survive restarts")
		}
		backend = kv.NewMemory()
	}

	// ── Stores and tools ──
	a.env = &tools.Env{
		Tokens: tokens.New(backend, logger),
		Tasks:  tasks.New(backend, logger),
		Logger: logger,
	}
	a.reminders = reminders.New(backend, logger)
	registry := tools.NewRegistry()

	// ── LLM reasoning (optional) ──
	var reasoner llm.Reasoner
	if cfg.OpenAIAPIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		client := openai.NewClientWithConfig(clientCfg)
		reasoner = llm.NewOpenAIReasoner(client, cfg.Model, cfg.MaxToolSteps, registry, a.env, logger)
		logger.Info("llm reasoning enabled", "model", cfg.Model)
	} else {
		logger.Info("no OPENAI_API_KEY configured, using deterministic resolution only")
	}

	a.assistant = assistant.New(assistant.Config{
		Reasoner:  reasoner,
		Registry:  registry,
		Env:       a.env,
		Reminders: a.reminders,
		Logger:    logger,
	})

	// ── OAuth providers ──
	a.google = oauth.NewGoogle(oauth.ClientConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
	})
	a.yandex = oauth.NewYandex(oauth.ClientConfig{
		ClientID:     cfg.YandexClientID,
		ClientSecret: cfg.YandexClientSecret,
		RedirectURI:  cfg.YandexRedirectURI,
	})
	if !a.google.Config().Configured() {
		logger.Warn("Google OAuth client not configured, connect flow disabled")
	}
	if !a.yandex.Config().Configured() {
		logger.Warn("Yandex OAuth client not configured, connect flow disabled")
	}

	return a, nil
}

// close releases backend connections.
func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("redis close failed", "error", err)
		}
	}
}
