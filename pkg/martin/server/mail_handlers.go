package server

import (
	"encoding/json"
	"net/http"

	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools/gmail"
)

type gmailReadRequest struct {
	UserID     string `json:"userId"`
	Query      string `json:"query,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
}

// handleGmailRead lists inbox messages. The default query hides
// promotions and social mail and keeps only unread.
func (s *Server) handleGmailRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req gmailReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		errorJSON(w, http.StatusBadRequest, "userId is required")
		return
	}

	cred, err := s.env.Tokens.Get(r.Context(), req.UserID, tokens.ProviderGoogle)
	if err != nil {
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if cred == nil {
		errorJSON(w, http.StatusUnauthorized, "Google account is not connected")
		return
	}

	query := req.Query
	if query == "" {
		query = gmail.DefaultQuery
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	client := s.env.Gmail(cred.AccessToken)
	list, err := client.ListMessages(r.Context(), query, maxResults)
	if err != nil {
		s.logger.Error("gmail list failed", "user_id", req.UserID, "error", err)
		errorJSON(w, http.StatusBadGateway, "gmail request failed")
		return
	}

	emails := []map[string]any{}
	for _, ref := range list.Messages {
		msg, err := client.GetMessage(r.Context(), ref.ID, "full")
		if err != nil {
			continue
		}
		body := gmail.GetMessageBody(msg)
		if runes := []rune(body); len(runes) > 500 {
			body = string(runes[:500])
		}
		emails = append(emails, map[string]any{
			"id":          msg.ID,
			"from":        gmail.GetHeader(msg, "From"),
			"subject":     gmail.GetHeader(msg, "Subject"),
			"date":        gmail.GetHeader(msg, "Date"),
			"snippet":     msg.Snippet,
			"body":        body,
			"labels":      msg.LabelIDs,
			"isSpam":      gmail.HasLabel(msg, "SPAM"),
			"isImportant": gmail.HasLabel(msg, "IMPORTANT"),
			"isUnread":    gmail.HasLabel(msg, "UNREAD"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"emails": emails,
		"total":  len(list.Messages),
	})
}

type gmailSendRequest struct {
	UserID  string `json:"userId"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Cc      string `json:"cc,omitempty"`
	Bcc     string `json:"bcc,omitempty"`
	ReplyTo string `json:"replyTo,omitempty"`
}

func (s *Server) handleGmailSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		errorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req gmailSendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.To == "" || req.Subject == "" || req.Body == "" {
		errorJSON(w, http.StatusBadRequest, "userId, to, subject and body are required")
		return
	}

	cred, err := s.env.Tokens.Get(r.Context(), req.UserID, tokens.ProviderGoogle)
	if err != nil {
		errorJSON(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	if cred == nil {
		errorJSON(w, http.StatusUnauthorized, "Google account is not connected")
		return
	}

	client := s.env.Gmail(cred.AccessToken)
	resp, err := client.Send(r.Context(), gmail.OutgoingMessage{
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		ReplyTo: req.ReplyTo,
	})
	if err != nil {
		s.logger.Error("gmail send failed", "user_id", req.UserID, "error", err)
		errorJSON(w, http.StatusBadGateway, "gmail send failed")
		return
	}

	s.logger.Info("email sent", "user_id", req.UserID, "message_id", resp.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"messageId": resp.ID,
	})
}
