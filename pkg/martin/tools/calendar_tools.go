package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools/calendar"
)

// CreateEventArgs contains arguments for creating a calendar event.
type CreateEventArgs struct {
	Title       string `json:"title"`
	Start       string `json:"start"` // RFC 3339
	End         string `json:"end"`   // RFC 3339
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// CreateEventResult contains the result of creating a calendar event.
type CreateEventResult struct {
	Success  bool   `json:"success"`
	EventID  string `json:"event_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Location string `json:"location,omitempty"`
	Link     string `json:"link,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (r *CreateEventResult) Tool() string { return "create_calendar_event" }
func (r *CreateEventResult) Ok() bool     { return r.Success }

func createCalendarEventDefinition() Definition {
	return Definition{
		Name:        "create_calendar_event",
		Description: "Создать событие в Google Календаре пользователя: встречу, бронь времени или напоминание со временем.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "Название события",
				},
				"start": map[string]any{
					"type":        "string",
					"description": "Начало события в формате RFC 3339",
				},
				"end": map[string]any{
					"type":        "string",
					"description": "Конец события в формате RFC 3339",
				},
				"location": map[string]any{
					"type":        "string",
					"description": "Место проведения, если названо",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Описание события",
				},
			},
			"required": []string{"title", "start", "end"},
		},
		Handler: createCalendarEvent,
	}
}

func createCalendarEvent(ctx context.Context, env *Env, userID string, raw json.RawMessage) (Result, error) {
	var args CreateEventArgs
	if err := decodeArgs(raw, &args); err != nil {
		return &CreateEventResult{Error: err.Error()}, nil
	}
	if args.Title == "" || args.Start == "" || args.End == "" {
		return &CreateEventResult{Error: "title, start and end are required"}, nil
	}

	start, err := time.Parse(time.RFC3339, args.Start)
	if err != nil {
		return &CreateEventResult{Error: fmt.Sprintf("invalid start: %v", err)}, nil
	}
	end, err := time.Parse(time.RFC3339, args.End)
	if err != nil {
		return &CreateEventResult{Error: fmt.Sprintf("invalid end: %v", err)}, nil
	}
	if !end.After(start) {
		return &CreateEventResult{Error: "end must be after start"}, nil
	}

	cred, err := env.Tokens.Get(ctx, userID, tokens.ProviderGoogle)
	if err != nil {
		return &CreateEventResult{Error: fmt.Sprintf("token lookup failed: %v", err)}, nil
	}
	if cred == nil {
		return &CreateEventResult{Error: "Google Calendar is not connected"}, nil
	}

	client := env.Calendar(cred.AccessToken)
	created, err := client.CreateEvent(ctx, &calendar.Event{
		Summary:     args.Title,
		Description: args.Description,
		Location:    args.Location,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	})
	if err != nil {
		return &CreateEventResult{Error: fmt.Sprintf("failed to create event: %v", err)}, nil
	}

	env.logger().Info("calendar event created",
		"user_id", userID, "event_id", created.ID, "title", args.Title)
	return &CreateEventResult{
		Success:  true,
		EventID:  created.ID,
		Title:    args.Title,
		Start:    start.Format(time.RFC3339),
		End:      end.Format(time.RFC3339),
		Location: args.Location,
		Link:     created.HTMLLink,
	}, nil
}

// CheckConflictsArgs contains arguments for checking a time window.
type CheckConflictsArgs struct {
	Start string `json:"start"` // RFC 3339
	End   string `json:"end"`   // RFC 3339
}

// ConflictingEvent describes one event overlapping the checked window.
type ConflictingEvent struct {
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ConflictResult contains the result of checking a time window.
// Checked is false when the calendar could not actually be consulted;
// the window is then reported as free.
type ConflictResult struct {
	Success      bool               `json:"success"`
	Checked      bool               `json:"checked"`
	HasConflicts bool               `json:"has_conflicts"`
	Conflicts    []ConflictingEvent `json:"conflicts,omitempty"`
	Message      string             `json:"message,omitempty"`
	Error        string             `json:"error,omitempty"`
}

func (r *ConflictResult) Tool() string { return "check_time_conflicts" }
func (r *ConflictResult) Ok() bool     { return r.Success }

func checkTimeConflictsDefinition() Definition {
	return Definition{
		Name:        "check_time_conflicts",
		Description: "Проверить, свободно ли время в календаре пользователя, перед созданием события.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start": map[string]any{
					"type":        "string",
					"description": "Начало окна в формате RFC 3339",
				},
				"end": map[string]any{
					"type":        "string",
					"description": "Конец окна в формате RFC 3339",
				},
			},
			"required": []string{"start", "end"},
		},
		Handler: checkTimeConflicts,
	}
}

func checkTimeConflicts(ctx context.Context, env *Env, userID string, raw json.RawMessage) (Result, error) {
	var args CheckConflictsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return &ConflictResult{Error: err.Error()}, nil
	}

	start, err := time.Parse(time.RFC3339, args.Start)
	if err != nil {
		return &ConflictResult{Error: fmt.Sprintf("invalid start: %v", err)}, nil
	}
	end, err := time.Parse(time.RFC3339, args.End)
	if err != nil {
		return &ConflictResult{Error: fmt.Sprintf("invalid end: %v", err)}, nil
	}

	cred, err := env.Tokens.Get(ctx, userID, tokens.ProviderGoogle)
	if err != nil {
		return &ConflictResult{Error: fmt.Sprintf("token lookup failed: %v", err)}, nil
	}
	if cred == nil {
		// No calendar to consult; treat the window as free.
		return &ConflictResult{
			Success: true,
			Checked: false,
			Message: "Календарь не подключен, считаю время свободным.",
		}, nil
	}

	client := env.Calendar(cred.AccessToken)
	resp, err := client.ListEvents(ctx, start, end, 50)
	if err != nil {
		return &ConflictResult{Error: fmt.Sprintf("failed to list events: %v", err)}, nil
	}

	result := &ConflictResult{Success: true, Checked: true}
	for i := range resp.Items {
		ev := &resp.Items[i]
		if ev.Status == "cancelled" || !calendar.Overlaps(ev, start, end) {
			continue
		}
		result.Conflicts = append(result.Conflicts, ConflictingEvent{
			Title: ev.Summary,
			Start: ev.Start.DateTime,
			End:   ev.End.DateTime,
		})
	}
	result.HasConflicts = len(result.Conflicts) > 0
	return result, nil
}
