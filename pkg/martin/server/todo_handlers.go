package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/martinhq/martin/pkg/martin/tasks"
)

// handleTodos serves the todo list CRUD the Mini-App home screen uses.
// A GET for a user with no stored tasks answers with the demo list so
// the screen is never empty on first open.
func (s *Server) handleTodos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTodos(w, r)
	case http.MethodPost:
		s.createTodo(w, r)
	case http.MethodPatch:
		s.updateTodo(w, r)
	case http.MethodDelete:
		s.deleteTodo(w, r)
	default:
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		errorJSON(w, http.StatusBadRequest, "userId is required")
		return
	}

	list, err := s.env.Tasks.List(r.Context(), userID)
	if err != nil {
		s.logger.Error("todo list failed", "user_id", userID, "error", err)
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if len(list) == 0 {
		list = tasks.DemoList()
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": list})
}

type createTodoRequest struct {
	UserID  string `json:"userId"`
	Title   string `json:"title"`
	DueDate string `json:"dueDate,omitempty"` // RFC 3339
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.Title == "" {
		errorJSON(w, http.StatusBadRequest, "userId and title are required")
		return
	}

	var due *time.Time
	if req.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			errorJSON(w, http.StatusBadRequest, "invalid dueDate")
			return
		}
		due = &parsed
	}

	task, err := s.env.Tasks.Add(r.Context(), req.UserID, req.Title, due)
	if err != nil {
		s.logger.Error("todo create failed", "user_id", req.UserID, "error", err)
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"todo": task})
}

type updateTodoRequest struct {
	UserID    string  `json:"userId"`
	ID        string  `json:"id"`
	Completed *bool   `json:"completed,omitempty"`
	Title     *string `json:"title,omitempty"`
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	var req updateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ID == "" {
		errorJSON(w, http.StatusBadRequest, "userId and id are required")
		return
	}

	task, err := s.env.Tasks.Update(r.Context(), req.UserID, req.ID, req.Completed, req.Title)
	if err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "todo not found")
			return
		}
		s.logger.Error("todo update failed", "user_id", req.UserID, "error", err)
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"todo": task})
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	id := r.URL.Query().Get("id")
	if userID == "" || id == "" {
		errorJSON(w, http.StatusBadRequest, "userId and id are required")
		return
	}

	if err := s.env.Tasks.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, tasks.ErrNotFound) {
			errorJSON(w, http.StatusNotFound, "todo not found")
			return
		}
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
