// Package server exposes the assistant over HTTP for the Mini-App
// frontend: chat, token management, todos, mail, calendar, and the
// OAuth connect flow.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/martinhq/martin/pkg/martin/assistant"
	"github.com/martinhq/martin/pkg/martin/oauth"
	"github.com/martinhq/martin/pkg/martin/reminders"
	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools"
)

// Config wires a Server.
type Config struct {
	Addr      string
	Assistant *assistant.Assistant
	Env       *tools.Env
	Reminders *reminders.Store
	Google    *oauth.GoogleProvider
	Yandex    *oauth.YandexProvider
	Logger    *slog.Logger
}

// Server is the HTTP front of the assistant.
type Server struct {
	assistant  *assistant.Assistant
	env        *tools.Env
	reminders  *reminders.Store
	google     *oauth.GoogleProvider
	yandex     *oauth.YandexProvider
	logger     *slog.Logger
	httpServer *http.Server
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		assistant: cfg.Assistant,
		env:       cfg.Env,
		reminders: cfg.Reminders,
		google:    cfg.Google,
		yandex:    cfg.Yandex,
		logger:    cfg.Logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/api/tokens", s.handleTokens)
	mux.HandleFunc("/api/tokens/check", s.handleTokensCheck)
	mux.HandleFunc("/api/todos", s.handleTodos)
	mux.HandleFunc("/api/gmail/read", s.handleGmailRead)
	mux.HandleFunc("/api/gmail/send", s.handleGmailSend)
	mux.HandleFunc("/api/calendar", s.handleCalendar)
	mux.HandleFunc("/api/auth/google", s.handleAuthStart(s.googleProvider()))
	mux.HandleFunc("/api/auth/google/callback", s.handleAuthCallback(s.googleProvider(), tokens.ProviderGoogle))
	mux.HandleFunc("/api/auth/yandex", s.handleAuthStart(s.yandexProvider()))
	mux.HandleFunc("/api/auth/yandex/callback", s.handleAuthCallback(s.yandexProvider(), tokens.ProviderYandex))
}

// Handler returns the route tree. Test hook.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving and blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
