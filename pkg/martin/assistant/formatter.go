package assistant

import (
	"time"

	"github.com/martinhq/martin/pkg/martin/tools"
)

// BuildEnvelope assembles the reply envelope from the reasoning text and
// the executed tool calls. Structured fields come from the first
// successful tool result of each kind; only when no tool produced any
// structured output does the classifier/extractor fallback re-read the
// original message. Tool results therefore always win over the regex
// fallback.
func BuildEnvelope(text string, invocations []tools.Invocation, message string, now time.Time) *Envelope {
	env := &Envelope{Text: text}

	for _, inv := range invocations {
		if inv.Result == nil || !inv.Result.Ok() {
			continue
		}
		switch res := inv.Result.(type) {
		case *tools.CreateEventResult:
			if len(env.Events) == 0 {
				env.Events = append(env.Events, EventCard{
					ID:        res.EventID,
					Title:     res.Title,
					StartTime: res.Start,
					EndTime:   res.End,
					Location:  res.Location,
				})
			}
		case *tools.CreateTaskResult:
			if len(env.Todos) == 0 {
				env.Todos = append(env.Todos, TodoCard{
					ID:        res.Task.ID,
					Text:      res.Task.Text,
					Completed: res.Task.Completed,
				})
				env.TodoTitle = res.Task.Text
			}
		case *tools.DraftResult:
			if env.EmailDraft == nil {
				env.EmailDraft = &DraftCard{
					To:      res.To,
					Subject: res.Subject,
					Body:    res.Body,
				}
			}
		case *tools.ReadEmailsResult:
			env.EmailsAnalyzed = true
		}
	}

	if len(env.Events) == 0 && len(env.Todos) == 0 && env.EmailDraft == nil {
		fallbackFill(env, message, now)
	}
	return env
}

// fallbackFill populates structured fields from the deterministic
// classifier and slot extractors when the reasoning step produced text
// but no actionable tool call.
func fallbackFill(env *Envelope, message string, now time.Time) {
	switch Classify(message) {
	case IntentCreateTaskAndEvent:
		task := ExtractTaskText(message)
		env.Todos = []TodoCard{{ID: "1", Text: task, Completed: false}}
		env.TodoTitle = task
		env.Events = []EventCard{eventFromSlots(message, now)}
	case IntentCreateTask:
		task := ExtractTaskText(message)
		env.Todos = []TodoCard{{ID: "1", Text: task, Completed: false}}
		env.TodoTitle = task
	case IntentCreateEvent:
		env.Events = []EventCard{eventFromSlots(message, now)}
	}
}

func eventFromSlots(message string, now time.Time) EventCard {
	tr := ExtractTime(message, now)
	return EventCard{
		ID:        "1",
		Title:     ExtractEventTitle(message),
		StartTime: tr.Start.Format(time.RFC3339),
		EndTime:   tr.End.Format(time.RFC3339),
		Location:  ExtractLocation(message),
	}
}
