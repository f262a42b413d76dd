// Package assistant turns free-text user messages into reply envelopes.
// Two resolution strategies exist: an LLM reasoning loop with tools, and
// a deterministic classifier/extractor path used when no model is
// configured or the model call fails. The two paths intentionally
// diverge: the deterministic path never checks calendar conflicts.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/martinhq/martin/pkg/martin/llm"
	"github.com/martinhq/martin/pkg/martin/reminders"
	"github.com/martinhq/martin/pkg/martin/tasks"
	"github.com/martinhq/martin/pkg/martin/tools"
)

// Assistant resolves user messages into envelopes.
type Assistant struct {
	reasoner  llm.Reasoner
	registry  *tools.Registry
	env       *tools.Env
	reminders *reminders.Store
	logger    *slog.Logger
	clock     func() time.Time
}

// Config wires an Assistant. Reasoner and Reminders may be nil: without
// a reasoner every message takes the deterministic path, and without a
// reminder store reminders are acknowledged but not delivered.
type Config struct {
	Reasoner  llm.Reasoner
	Registry  *tools.Registry
	Env       *tools.Env
	Reminders *reminders.Store
	Logger    *slog.Logger
	Clock     func() time.Time
}

// New creates an Assistant.
func New(cfg Config) *Assistant {
	a := &Assistant{
		reasoner:  cfg.Reasoner,
		registry:  cfg.Registry,
		env:       cfg.Env,
		reminders: cfg.Reminders,
		logger:    cfg.Logger,
		clock:     cfg.Clock,
	}
	if a.registry == nil {
		a.registry = tools.NewRegistry()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	return a
}

// Handle resolves one user message. It always returns an envelope:
// failures become apologetic text, never an error.
func (a *Assistant) Handle(ctx context.Context, userID string, history []llm.Message, message string) *Envelope {
	if a.reasoner != nil {
		res, err := a.reasoner.Respond(ctx, userID, history, message)
		if err == nil {
			return BuildEnvelope(res.Text, res.Invocations, message, a.clock())
		}
		a.logger.Warn("reasoning failed, falling back to local resolution",
			"user_id", userID, "error", err)
	}
	return a.resolveLocally(ctx, userID, message)
}

var reReminderTail = regexp.MustCompile(`(?i)напомн.*`)

// resolveLocally handles a message with the classifier and slot
// extractors alone.
func (a *Assistant) resolveLocally(ctx context.Context, userID, message string) *Envelope {
	now := a.clock()

	switch Classify(message) {
	case IntentCreateTaskAndEvent:
		taskText := ExtractTaskText(message)
		tr := ExtractTime(message, now)
		title := ExtractEventTitle(message)
		location := ExtractLocation(message)

		todo := a.persistTask(ctx, userID, taskText)
		event := a.bookEvent(ctx, userID, title, tr, location)

		return &Envelope{
			Text: fmt.Sprintf("✅ Добавил задачу %q и заблокировал %s для %q. Готово!",
				taskText, FormatTimeRange(tr), title),
			Todos:     []TodoCard{todo},
			TodoTitle: taskText,
			Events:    []EventCard{event},
		}

	case IntentCreateTask:
		taskText := ExtractTaskText(message)
		todo := a.persistTask(ctx, userID, taskText)
		return &Envelope{
			Text:      fmt.Sprintf("✅ Добавил задачу %q. Что еще?", taskText),
			Todos:     []TodoCard{todo},
			TodoTitle: taskText,
		}

	case IntentShowTasks:
		return a.showTasks(ctx, userID)

	case IntentCreateEvent:
		tr := ExtractTime(message, now)
		title := ExtractEventTitle(message)
		location := ExtractLocation(message)
		event := a.bookEvent(ctx, userID, title, tr, location)
		return &Envelope{
			Text: fmt.Sprintf("✅ Заблокировал %s для %q. Событие в календаре!",
				FormatTimeRange(tr), title),
			Events: []EventCard{event},
		}

	case IntentCreateReminder:
		return a.createReminder(ctx, userID, message, now)

	case IntentSendEmail:
		return &Envelope{
			Text: "Чтобы отправить письмо, скажите кому, тему и текст — я подготовлю черновик для подтверждения.",
		}

	case IntentCheckEmail:
		return a.checkEmail(ctx, userID, message)

	default:
		return &Envelope{
			Text: "Я могу помочь с задачами, календарем и напоминаниями. Что вам нужно?",
		}
	}
}

// persistTask saves the task best-effort: the UI card is shown even if
// the store write fails, matching the always-answer chat contract.
func (a *Assistant) persistTask(ctx context.Context, userID, text string) TodoCard {
	if a.env != nil && a.env.Tasks != nil {
		task, err := a.env.Tasks.Add(ctx, userID, text, nil)
		if err == nil {
			return TodoCard{ID: task.ID, Text: task.Text, Completed: task.Completed}
		}
		a.logger.Error("task save failed", "user_id", userID, "error", err)
	}
	return TodoCard{ID: "1", Text: text, Completed: false}
}

// bookEvent attempts a real calendar write and falls back to a local
// card when the calendar is unavailable. No conflict check happens on
// this path.
func (a *Assistant) bookEvent(ctx context.Context, userID, title string, tr TimeRange, location string) EventCard {
	args, err := json.Marshal(tools.CreateEventArgs{
		Title:    title,
		Start:    tr.Start.Format(time.RFC3339),
		End:      tr.End.Format(time.RFC3339),
		Location: location,
	})
	if err == nil {
		res := a.registry.Execute(ctx, a.env, userID, "create_calendar_event", args)
		if created, ok := res.(*tools.CreateEventResult); ok && created.Success {
			return EventCard{
				ID:        created.EventID,
				Title:     created.Title,
				StartTime: created.Start,
				EndTime:   created.End,
				Location:  created.Location,
			}
		}
		a.logger.Info("calendar write skipped", "user_id", userID)
	}
	return EventCard{
		ID:        "1",
		Title:     title,
		StartTime: tr.Start.Format(time.RFC3339),
		EndTime:   tr.End.Format(time.RFC3339),
		Location:  location,
	}
}

func (a *Assistant) showTasks(ctx context.Context, userID string) *Envelope {
	env := &Envelope{Text: "Вот ваш список дел:", TodoTitle: "Мои задачи"}

	var list []tasks.Task
	if a.env != nil && a.env.Tasks != nil {
		stored, err := a.env.Tasks.List(ctx, userID)
		if err != nil {
			a.logger.Error("task list failed", "user_id", userID, "error", err)
		} else {
			list = stored
		}
	}
	if len(list) == 0 {
		list = tasks.DemoList()
	}
	for _, t := range list {
		env.Todos = append(env.Todos, TodoCard{ID: t.ID, Text: t.Text, Completed: t.Completed})
	}
	return env
}

func (a *Assistant) createReminder(ctx context.Context, userID, message string, now time.Time) *Envelope {
	tr := ExtractTime(message, now)
	if !tr.Found {
		return &Envelope{
			Text: "Во сколько вам напомнить? Укажите время (например: 10:00, 15:30)",
		}
	}

	text := strings.TrimSpace(reReminderTail.ReplaceAllString(message, ""))
	if text == "" {
		text = "Важное дело"
	}

	if a.reminders != nil {
		if _, err := a.reminders.Schedule(ctx, userID, text, tr.Start); err != nil {
			a.logger.Error("reminder scheduling failed", "user_id", userID, "error", err)
		}
	}

	return &Envelope{
		Text: "✅ Напоминание установлено. Вы получите уведомление!",
		Events: []EventCard{{
			ID:        "1",
			Title:     "🔔 Напоминание: " + text,
			StartTime: tr.Start.Format(time.RFC3339),
			EndTime:   tr.End.Format(time.RFC3339),
		}},
	}
}

var reUnreadHint = regexp.MustCompile(`непрочитан|нов|unread`)

func (a *Assistant) checkEmail(ctx context.Context, userID, message string) *Envelope {
	res := a.registry.Execute(ctx, a.env, userID, "read_emails", nil)
	read, ok := res.(*tools.ReadEmailsResult)
	if !ok || !read.Success {
		return &Envelope{
			Text: "Почта не подключена. Подключите аккаунт Google в настройках, и я смогу проверять письма.",
		}
	}

	env := &Envelope{EmailsAnalyzed: true}
	if len(read.Emails) == 0 {
		env.Text = "У вас нет писем. Папка \"Входящие\" пуста."
		return env
	}

	unread := 0
	for _, e := range read.Emails {
		if e.Unread {
			unread++
		}
	}
	if reUnreadHint.MatchString(strings.ToLower(message)) {
		env.Text = fmt.Sprintf("Найдено %d непрочитанных писем:", unread)
	} else {
		env.Text = fmt.Sprintf("Последние письма (%d непрочитанных):", unread)
	}
	return env
}
