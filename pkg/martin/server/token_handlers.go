package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/martinhq/martin/pkg/martin/tokens"
)

func parseProvider(raw string) (tokens.Provider, bool) {
	switch raw {
	case string(tokens.ProviderGoogle):
		return tokens.ProviderGoogle, true
	case string(tokens.ProviderYandex):
		return tokens.ProviderYandex, true
	default:
		return "", false
	}
}

// handleTokens serves the credential CRUD surface. Unlike chat, this
// endpoint uses conventional status codes; a storage outage is a 503 so
// the client can retry, never a silent "not connected".
func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getTokens(w, r)
	case http.MethodPost:
		s.saveTokens(w, r)
	case http.MethodDelete:
		s.deleteTokens(w, r)
	default:
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) getTokens(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	provider, ok := parseProvider(r.URL.Query().Get("provider"))
	if userID == "" || !ok {
		errorJSON(w, http.StatusBadRequest, "userId and provider are required")
		return
	}

	cred, err := s.env.Tokens.Get(r.Context(), userID, provider)
	if err != nil {
		s.logger.Error("token lookup failed", "user_id", userID, "error", err)
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if cred == nil {
		writeJSON(w, http.StatusOK, map[string]any{"connected": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": true,
		"tokens":    cred,
	})
}

type saveTokensRequest struct {
	UserID   string            `json:"userId"`
	Provider string            `json:"provider"`
	Tokens   tokens.Credential `json:"tokens"`
}

func (s *Server) saveTokens(w http.ResponseWriter, r *http.Request) {
	var req saveTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	provider, ok := parseProvider(req.Provider)
	if req.UserID == "" || !ok {
		errorJSON(w, http.StatusBadRequest, "userId and provider are required")
		return
	}

	if err := s.env.Tokens.Save(r.Context(), req.UserID, provider, req.Tokens); err != nil {
		s.logger.Error("token save failed", "user_id", req.UserID, "error", err)
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) deleteTokens(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	provider, ok := parseProvider(r.URL.Query().Get("provider"))
	if userID == "" || !ok {
		errorJSON(w, http.StatusBadRequest, "userId and provider are required")
		return
	}

	if err := s.env.Tokens.Disconnect(r.Context(), userID, provider); err != nil {
		if errors.Is(err, tokens.ErrStoreUnavailable) {
			errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		errorJSON(w, http.StatusInternalServerError, "disconnect failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type checkTokensRequest struct {
	UserID string `json:"userId"`
}

// handleTokensCheck reports connection status for both providers at
// once; the Mini-App settings screen polls this.
func (s *Server) handleTokensCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req checkTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		errorJSON(w, http.StatusBadRequest, "userId is required")
		return
	}

	google, err := s.env.Tokens.IsConnected(r.Context(), req.UserID, tokens.ProviderGoogle)
	if err != nil {
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	yandex, err := s.env.Tokens.IsConnected(r.Context(), req.UserID, tokens.ProviderYandex)
	if err != nil {
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"google": google,
		"yandex": yandex,
	})
}
