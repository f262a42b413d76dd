package assistant

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/martinhq/martin/pkg/martin/kv"
	"github.com/martinhq/martin/pkg/martin/llm"
	"github.com/martinhq/martin/pkg/martin/reminders"
	"github.com/martinhq/martin/pkg/martin/tasks"
	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools"
)

type stubReasoner struct {
	result *llm.ReasoningResult
	err    error
	calls  int
}

func (s *stubReasoner) Respond(ctx context.Context, userID string, history []llm.Message, message string) (*llm.ReasoningResult, error) {
	s.calls++
	return s.result, s.err
}

func newTestAssistant(t *testing.T, reasoner llm.Reasoner) (*Assistant, *tools.Env, *reminders.Store) {
	t.Helper()
	backend := kv.NewMemory()
	logger := slog.New(slog.DiscardHandler)
	env := &tools.Env{
		Tokens: tokens.New(backend, logger),
		Tasks:  tasks.New(backend, logger),
		Logger: logger,
	}
	rem := reminders.New(backend, logger)
	a := New(Config{
		Reasoner:  reasoner,
		Env:       env,
		Reminders: rem,
		Logger:    logger,
		Clock:     func() time.Time { return refNow },
	})
	return a, env, rem
}

// Combined add-task-and-block-time command, resolved without a model.
func TestHandleCombinedIntentEndToEnd(t *testing.T) {
	a, env, _ := newTestAssistant(t, nil)

	got := a.Handle(context.Background(), "u1", nil,
		"Добавь задачу: забрать посылку и заблокировать 21:00-22:00 для чтения в библиотеке")

	if len(got.Todos) != 1 || got.Todos[0].Text != "забрать посылку" || got.Todos[0].Completed {
		t.Errorf("todos = %+v", got.Todos)
	}
	if len(got.Events) != 1 {
		t.Fatalf("events = %+v", got.Events)
	}
	ev := got.Events[0]
	if ev.Title != "Чтение в библиотеке" || ev.Location != "Библиотека" {
		t.Errorf("event = %+v", ev)
	}
	start, err := time.Parse(time.RFC3339, ev.StartTime)
	if err != nil || start.Hour() != 21 {
		t.Errorf("startTime = %q", ev.StartTime)
	}
	end, _ := time.Parse(time.RFC3339, ev.EndTime)
	if end.Hour() != 22 {
		t.Errorf("endTime = %q", ev.EndTime)
	}

	// The task write is real, not just a card.
	list, _ := env.Tasks.List(context.Background(), "u1")
	if len(list) != 1 || list[0].Text != "забрать посылку" {
		t.Errorf("persisted tasks = %+v", list)
	}
}

func TestHandleCombinedIntentAlwaysYieldsBothCards(t *testing.T) {
	a, _, _ := newTestAssistant(t, nil)

	messages := []string{
		"добавь задачу написать отчет и заблокируй вечер",
		"Добавь задачу: убраться и забронируй 10:00",
	}
	for _, msg := range messages {
		got := a.Handle(context.Background(), "u1", nil, msg)
		if len(got.Todos) == 0 {
			t.Errorf("%q: no todos", msg)
		}
		if len(got.Events) == 0 || got.Events[0].StartTime == "" {
			t.Errorf("%q: missing event start, envelope %+v", msg, got)
		}
	}
}

func TestHandleShowTasksDemoList(t *testing.T) {
	a, _, _ := newTestAssistant(t, nil)

	got := a.Handle(context.Background(), "u1", nil, "Покажи список дел")
	if got.Text != "Вот ваш список дел:" {
		t.Errorf("text = %q", got.Text)
	}
	demo := tasks.DemoList()
	if len(got.Todos) != len(demo) {
		t.Fatalf("todos = %+v", got.Todos)
	}
	if got.Todos[0].Text != demo[0].Text || !got.Todos[0].Completed {
		t.Errorf("first demo todo = %+v", got.Todos[0])
	}
}

func TestHandleShowTasksPrefersStoredList(t *testing.T) {
	a, env, _ := newTestAssistant(t, nil)
	env.Tasks.Add(context.Background(), "u1", "своя задача", nil)

	got := a.Handle(context.Background(), "u1", nil, "покажи список дел")
	if len(got.Todos) != 1 || got.Todos[0].Text != "своя задача" {
		t.Errorf("todos = %+v", got.Todos)
	}
}

func TestHandleReminderWithoutTimeAsks(t *testing.T) {
	a, _, rem := newTestAssistant(t, nil)

	got := a.Handle(context.Background(), "u1", nil, "напомни полить цветы")
	if got.Text != "Во сколько вам напомнить? Укажите время (например: 10:00, 15:30)" {
		t.Errorf("text = %q", got.Text)
	}
	if len(got.Events) != 0 {
		t.Errorf("events = %+v", got.Events)
	}
	pending, _ := rem.ListPending(context.Background(), "u1")
	if len(pending) != 0 {
		t.Errorf("reminder scheduled without a time: %+v", pending)
	}
}

func TestHandleReminderSchedules(t *testing.T) {
	a, _, rem := newTestAssistant(t, nil)

	got := a.Handle(context.Background(), "u1", nil, "полить цветы, напомни в 15:30")
	if got.Text != "✅ Напоминание установлено. Вы получите уведомление!" {
		t.Errorf("text = %q", got.Text)
	}
	pending, _ := rem.ListPending(context.Background(), "u1")
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].At.Hour() != 15 || pending[0].At.Minute() != 30 {
		t.Errorf("reminder at %v", pending[0].At)
	}
}

func TestHandleGeneral(t *testing.T) {
	a, _, _ := newTestAssistant(t, nil)

	got := a.Handle(context.Background(), "u1", nil, "как дела?")
	if got.Text != "Я могу помочь с задачами, календарем и напоминаниями. Что вам нужно?" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestHandleUsesReasonerWhenConfigured(t *testing.T) {
	reasoner := &stubReasoner{result: &llm.ReasoningResult{Text: "Привет!"}}
	a, _, _ := newTestAssistant(t, reasoner)

	got := a.Handle(context.Background(), "u1", nil, "привет")
	if reasoner.calls != 1 {
		t.Errorf("reasoner calls = %d", reasoner.calls)
	}
	if got.Text != "Привет!" {
		t.Errorf("text = %q", got.Text)
	}
}

func TestHandleFallsBackWhenReasonerFails(t *testing.T) {
	reasoner := &stubReasoner{err: errors.New("model unavailable")}
	a, _, _ := newTestAssistant(t, reasoner)

	got := a.Handle(context.Background(), "u1", nil, "добавь задачу купить молоко")
	if len(got.Todos) != 1 || got.Todos[0].Text != "купить молоко" {
		t.Errorf("fallback envelope = %+v", got)
	}
}

func TestHandleCheckEmailNotConnected(t *testing.T) {
	a, _, _ := newTestAssistant(t, nil)

	got := a.Handle(context.Background(), "u1", nil, "проверь почту")
	if got.EmailsAnalyzed {
		t.Error("emails reported analyzed without a connected account")
	}
	if got.Text == "" {
		t.Error("empty text")
	}
}
