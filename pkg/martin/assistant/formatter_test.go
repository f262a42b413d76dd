package assistant

import (
	"testing"
	"time"

	"github.com/martinhq/martin/pkg/martin/tasks"
	"github.com/martinhq/martin/pkg/martin/tools"
)

func taskInvocation(id, text string) tools.Invocation {
	return tools.Invocation{
		Tool: "create_task",
		Result: &tools.CreateTaskResult{
			Success: true,
			Task:    &tasks.Task{ID: id, Text: text},
		},
	}
}

// A successful tool result must win over the regex fallback even when
// the original message would extract something else.
func TestBuildEnvelopeToolResultWins(t *testing.T) {
	msg := "добавь задачу: купить хлеб"
	env := BuildEnvelope("готово", []tools.Invocation{
		taskInvocation("t-42", "купить молоко"),
	}, msg, refNow)

	if len(env.Todos) != 1 || env.Todos[0].Text != "купить молоко" || env.Todos[0].ID != "t-42" {
		t.Errorf("todos = %+v, want the tool result, not the extracted text", env.Todos)
	}
	if env.TodoTitle != "купить молоко" {
		t.Errorf("todoTitle = %q", env.TodoTitle)
	}
}

func TestBuildEnvelopeFirstSuccessfulResultOfEachKind(t *testing.T) {
	env := BuildEnvelope("", []tools.Invocation{
		{Tool: "create_task", Result: &tools.CreateTaskResult{Error: "store down"}},
		taskInvocation("t-1", "первая"),
		taskInvocation("t-2", "вторая"),
	}, "добавь задачу", refNow)

	if len(env.Todos) != 1 || env.Todos[0].ID != "t-1" {
		t.Errorf("todos = %+v, want only the first successful result", env.Todos)
	}
}

func TestBuildEnvelopeFallbackWhenNoToolResults(t *testing.T) {
	msg := "Добавь задачу: забрать посылку и заблокировать 21:00-22:00 для чтения в библиотеке"
	env := BuildEnvelope("сделал", nil, msg, refNow)

	if len(env.Todos) != 1 || env.Todos[0].Text != "забрать посылку" || env.Todos[0].Completed {
		t.Errorf("todos = %+v", env.Todos)
	}
	if len(env.Events) != 1 {
		t.Fatalf("events = %+v", env.Events)
	}
	ev := env.Events[0]
	if ev.Title != "Чтение в библиотеке" || ev.Location != "Библиотека" {
		t.Errorf("event = %+v", ev)
	}
	start, err := time.Parse(time.RFC3339, ev.StartTime)
	if err != nil || start.Hour() != 21 || start.Minute() != 0 {
		t.Errorf("startTime = %q", ev.StartTime)
	}
	end, err := time.Parse(time.RFC3339, ev.EndTime)
	if err != nil || end.Hour() != 22 {
		t.Errorf("endTime = %q", ev.EndTime)
	}
}

func TestBuildEnvelopePlainTextOnly(t *testing.T) {
	env := BuildEnvelope("Привет!", nil, "как дела?", refNow)
	if env.Text != "Привет!" {
		t.Errorf("text = %q", env.Text)
	}
	if env.Todos != nil || env.Events != nil || env.EmailDraft != nil {
		t.Errorf("unexpected structured fields: %+v", env)
	}
}

func TestBuildEnvelopeEmailResults(t *testing.T) {
	env := BuildEnvelope("вот письма", []tools.Invocation{
		{Tool: "read_emails", Result: &tools.ReadEmailsResult{Success: true}},
		{Tool: "generate_email_draft", Result: &tools.DraftResult{
			Success: true,
			To:      "ivan@example.com",
			Subject: "Отчёт",
			Body:    "Добрый день!",
		}},
	}, "проверь почту и подготовь ответ", refNow)

	if !env.EmailsAnalyzed {
		t.Error("emailsAnalyzed not set")
	}
	if env.EmailDraft == nil || env.EmailDraft.Subject != "Отчёт" {
		t.Errorf("emailDraft = %+v", env.EmailDraft)
	}
}
