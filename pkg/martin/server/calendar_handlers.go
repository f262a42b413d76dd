package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools/calendar"
)

// handleCalendar lists the coming month's events on GET and creates an
// event on POST.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listEvents(w, r)
	case http.MethodPost:
		s.createEvent(w, r)
	default:
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) googleCred(w http.ResponseWriter, r *http.Request, userID string) *tokens.Credential {
	cred, err := s.env.Tokens.Get(r.Context(), userID, tokens.ProviderGoogle)
	if err != nil {
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return nil
	}
	if cred == nil {
		errorJSON(w, http.StatusUnauthorized, "Google account is not connected")
		return nil
	}
	return cred
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		errorJSON(w, http.StatusBadRequest, "userId is required")
		return
	}
	cred := s.googleCred(w, r, userID)
	if cred == nil {
		return
	}

	now := time.Now()
	client := s.env.Calendar(cred.AccessToken)
	resp, err := client.ListEvents(r.Context(), now, now.AddDate(0, 0, 30), 20)
	if err != nil {
		s.logger.Error("calendar list failed", "user_id", userID, "error", err)
		errorJSON(w, http.StatusBadGateway, "calendar request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": resp.Items})
}

type createEventRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	StartTime   string `json:"startTime"` // RFC 3339
	EndTime     string `json:"endTime"`   // RFC 3339
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Title == "" || req.StartTime == "" || req.EndTime == "" {
		errorJSON(w, http.StatusBadRequest, "userId, title, startTime and endTime are required")
		return
	}
	cred := s.googleCred(w, r, req.UserID)
	if cred == nil {
		return
	}

	client := s.env.Calendar(cred.AccessToken)
	created, err := client.CreateEvent(r.Context(), &calendar.Event{
		Summary:     req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       &calendar.EventDateTime{DateTime: req.StartTime},
		End:         &calendar.EventDateTime{DateTime: req.EndTime},
	})
	if err != nil {
		s.logger.Error("calendar create failed", "user_id", req.UserID, "error", err)
		errorJSON(w, http.StatusBadGateway, "calendar request failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"event": created})
}
