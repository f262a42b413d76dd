package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools/gmail"
)

// ReadEmailsArgs contains arguments for reading the inbox.
type ReadEmailsArgs struct {
	Query      string `json:"query,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// EmailSummary is one inbox entry with its headers resolved.
type EmailSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Unread  bool   `json:"unread"`
}

// ReadEmailsResult contains the result of reading the inbox.
type ReadEmailsResult struct {
	Success bool           `json:"success"`
	Emails  []EmailSummary `json:"emails"`
	Total   int            `json:"total"`
	Query   string         `json:"query"`
	Error   string         `json:"error,omitempty"`
}

func (r *ReadEmailsResult) Tool() string { return "read_emails" }
func (r *ReadEmailsResult) Ok() bool     { return r.Success }

func readEmailsDefinition() Definition {
	return Definition{
		Name:        "read_emails",
		Description: "Прочитать входящие письма пользователя из Gmail. По умолчанию показывает непрочитанные без рассылок.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Поисковый запрос Gmail, если нужен нестандартный фильтр",
				},
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Сколько писем вернуть (по умолчанию 5)",
				},
			},
		},
		Handler: readEmails,
	}
}

func readEmails(ctx context.Context, env *Env, userID string, raw json.RawMessage) (Result, error) {
	var args ReadEmailsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return &ReadEmailsResult{Error: err.Error()}, nil
	}

	query := args.Query
	if query == "" {
		query = gmail.DefaultQuery
	}
	maxResults := args.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 5
	}

	cred, err := env.Tokens.Get(ctx, userID, tokens.ProviderGoogle)
	if err != nil {
		return &ReadEmailsResult{Error: fmt.Sprintf("token lookup failed: %v", err)}, nil
	}
	if cred == nil {
		return &ReadEmailsResult{Error: "Gmail is not connected"}, nil
	}

	client := env.Gmail(cred.AccessToken)
	list, err := client.ListMessages(ctx, query, maxResults)
	if err != nil {
		return &ReadEmailsResult{Error: fmt.Sprintf("failed to list messages: %v", err)}, nil
	}

	result := &ReadEmailsResult{
		Success: true,
		Emails:  []EmailSummary{},
		Total:   list.ResultSizeEstimate,
		Query:   query,
	}
	for _, ref := range list.Messages {
		msg, err := client.GetMessage(ctx, ref.ID, "metadata")
		if err != nil {
			env.logger().Warn("skipping unreadable message", "message_id", ref.ID, "error", err)
			continue
		}
		result.Emails = append(result.Emails, EmailSummary{
			ID:      msg.ID,
			From:    gmail.GetHeader(msg, "From"),
			Subject: gmail.GetHeader(msg, "Subject"),
			Snippet: msg.Snippet,
			Date:    gmail.GetHeader(msg, "Date"),
			Unread:  gmail.HasLabel(msg, "UNREAD"),
		})
	}
	return result, nil
}

// DraftArgs contains arguments for composing an email draft.
type DraftArgs struct {
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Topic   string `json:"topic"`
	Tone    string `json:"tone,omitempty"` // "formal" or "casual"
}

// DraftResult contains a composed draft. The draft stays local: nothing
// is sent until the user confirms with send_email.
type DraftResult struct {
	Success bool   `json:"success"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Error   string `json:"error,omitempty"`
}

func (r *DraftResult) Tool() string { return "generate_email_draft" }
func (r *DraftResult) Ok() bool     { return r.Success }

func generateEmailDraftDefinition() Definition {
	return Definition{
		Name:        "generate_email_draft",
		Description: "Составить черновик письма. Ничего не отправляет: для отправки нужен отдельный вызов send_email после подтверждения пользователя.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"to": map[string]any{
					"type":        "string",
					"description": "Адресат, если известен",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "Тема письма",
				},
				"topic": map[string]any{
					"type":        "string",
					"description": "О чём письмо",
				},
				"tone": map[string]any{
					"type":        "string",
					"description": "Тональность: formal или casual",
				},
			},
			"required": []string{"topic"},
		},
		Handler: generateEmailDraft,
	}
}

func generateEmailDraft(ctx context.Context, env *Env, userID string, raw json.RawMessage) (Result, error) {
	var args DraftArgs
	if err := decodeArgs(raw, &args); err != nil {
		return &DraftResult{Error: err.Error()}, nil
	}

	topic := strings.TrimSpace(args.Topic)
	if topic == "" {
		return &DraftResult{Error: "topic is required"}, nil
	}

	subject := args.Subject
	if subject == "" {
		subject = topic
	}

	greeting := "Здравствуйте!"
	signoff := "С уважением"
	if args.Tone == "casual" {
		greeting = "Привет!"
		signoff = "Хорошего дня"
	}
	body := fmt.Sprintf("%s\n\n%s\n\n%s", greeting, topic, signoff)

	return &DraftResult{
		Success: true,
		To:      args.To,
		Subject: subject,
		Body:    body,
	}, nil
}

// SendEmailArgs contains arguments for sending a message.
type SendEmailArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Cc      string `json:"cc,omitempty"`
	Bcc     string `json:"bcc,omitempty"`
	ReplyTo string `json:"reply_to,omitempty"`
}

// SendResult contains the result of sending a message.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	To        string `json:"to,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (r *SendResult) Tool() string { return "send_email" }
func (r *SendResult) Ok() bool     { return r.Success }

func sendEmailDefinition() Definition {
	return Definition{
		Name:        "send_email",
		Description: "Отправить письмо через Gmail. Вызывай только после явного подтверждения пользователя.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"to": map[string]any{
					"type":        "string",
					"description": "Адрес получателя",
				},
				"subject": map[string]any{
					"type":        "string",
					"description": "Тема письма",
				},
				"body": map[string]any{
					"type":        "string",
					"description": "Текст письма",
				},
				"cc": map[string]any{
					"type":        "string",
					"description": "Копия",
				},
				"bcc": map[string]any{
					"type":        "string",
					"description": "Скрытая копия",
				},
				"reply_to": map[string]any{
					"type":        "string",
					"description": "ID письма, на которое это ответ",
				},
			},
			"required": []string{"to", "subject", "body"},
		},
		Handler: sendEmail,
	}
}

func sendEmail(ctx context.Context, env *Env, userID string, raw json.RawMessage) (Result, error) {
	var args SendEmailArgs
	if err := decodeArgs(raw, &args); err != nil {
		return &SendResult{Error: err.Error()}, nil
	}
	if args.To == "" || args.Subject == "" || args.Body == "" {
		return &SendResult{Error: "to, subject and body are required"}, nil
	}

	cred, err := env.Tokens.Get(ctx, userID, tokens.ProviderGoogle)
	if err != nil {
		return &SendResult{Error: fmt.Sprintf("token lookup failed: %v", err)}, nil
	}
	if cred == nil {
		return &SendResult{Error: "Gmail is not connected"}, nil
	}

	client := env.Gmail(cred.AccessToken)
	resp, err := client.Send(ctx, gmail.OutgoingMessage{
		To:      args.To,
		Subject: args.Subject,
		Body:    args.Body,
		Cc:      args.Cc,
		Bcc:     args.Bcc,
		ReplyTo: args.ReplyTo,
	})
	if err != nil {
		return &SendResult{Error: fmt.Sprintf("failed to send: %v", err)}, nil
	}

	env.logger().Info("email sent", "user_id", userID, "message_id", resp.ID)
	return &SendResult{Success: true, MessageID: resp.ID, To: args.To, Subject: args.Subject}, nil
}
