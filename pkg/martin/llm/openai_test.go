package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/martinhq/martin/pkg/martin/kv"
	"github.com/martinhq/martin/pkg/martin/tasks"
	"github.com/martinhq/martin/pkg/martin/tokens"
	"github.com/martinhq/martin/pkg/martin/tools"
)

// scriptedClient returns canned completions in order and records the
// requests it saw.
type scriptedClient struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (c *scriptedClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return openai.ChatCompletionResponse{}, context.Canceled
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: content,
			},
		}},
	}
}

func toolCallResponse(id, name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   id,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      name,
						Arguments: args,
					},
				}},
			},
		}},
	}
}

func testReasoner(t *testing.T, client chatCompleter) (*OpenAIReasoner, *tools.Env) {
	t.Helper()
	backend := kv.NewMemory()
	logger := slog.New(slog.DiscardHandler)
	env := &tools.Env{
		Tokens: tokens.New(backend, logger),
		Tasks:  tasks.New(backend, logger),
		Logger: logger,
	}
	return newReasoner(client, "gpt-4o-mini", 0, tools.NewRegistry(), env, logger), env
}

func TestRespondPlainReply(t *testing.T) {
	client := &scriptedClient{responses: []openai.ChatCompletionResponse{
		textResponse("Привет! Чем помочь?"),
	}}
	r, _ := testReasoner(t, client)

	res, err := r.Respond(context.Background(), "u1", nil, "привет")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if res.Text != "Привет! Чем помочь?" {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.Invocations) != 0 {
		t.Errorf("unexpected invocations: %+v", res.Invocations)
	}

	req := client.requests[0]
	if req.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Error("first message is not the system prompt")
	}
	if len(req.Tools) != 6 {
		t.Errorf("tool count = %d, want 6", len(req.Tools))
	}
}

func TestRespondExecutesToolAndFeedsResultBack(t *testing.T) {
	client := &scriptedClient{responses: []openai.ChatCompletionResponse{
		toolCallResponse("call-1", "create_task", `{"text":"купить молоко"}`),
		textResponse("✅ Добавил задачу: купить молоко"),
	}}
	r, env := testReasoner(t, client)

	res, err := r.Respond(context.Background(), "u1", nil, "добавь задачу купить молоко")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if len(res.Invocations) != 1 || res.Invocations[0].Tool != "create_task" {
		t.Fatalf("invocations = %+v", res.Invocations)
	}
	if !res.Invocations[0].Result.Ok() {
		t.Error("tool result not ok")
	}

	list, _ := env.Tasks.List(context.Background(), "u1")
	if len(list) != 1 {
		t.Errorf("task not persisted, list = %+v", list)
	}

	// Second request must carry the assistant tool-call turn plus a
	// tool-role message tied to it.
	second := client.requests[1]
	last := second.Messages[len(second.Messages)-1]
	if last.Role != openai.ChatMessageRoleTool || last.ToolCallID != "call-1" {
		t.Errorf("tool result message wrong: %+v", last)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(last.Content), &decoded); err != nil {
		t.Fatalf("tool result payload is not JSON: %v", err)
	}
	if decoded["success"] != true {
		t.Errorf("tool payload = %v", decoded)
	}
}

func TestRespondHistoryPrecedesMessage(t *testing.T) {
	client := &scriptedClient{responses: []openai.ChatCompletionResponse{
		textResponse("ок"),
	}}
	r, _ := testReasoner(t, client)

	history := []Message{
		{Role: "user", Content: "привет"},
		{Role: "assistant", Content: "Привет!"},
	}
	if _, err := r.Respond(context.Background(), "u1", history, "как дела?"); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	msgs := client.requests[0].Messages
	if len(msgs) != 4 {
		t.Fatalf("message count = %d", len(msgs))
	}
	if msgs[1].Content != "привет" || msgs[2].Content != "Привет!" || msgs[3].Content != "как дела?" {
		t.Errorf("message order wrong: %+v", msgs)
	}
}

func TestRespondStepLimit(t *testing.T) {
	// The model keeps asking for tools forever; the loop must stop.
	var responses []openai.ChatCompletionResponse
	for i := 0; i < DefaultMaxSteps+1; i++ {
		responses = append(responses,
			toolCallResponse("call-n", "create_task", `{"text":"x"}`))
	}
	client := &scriptedClient{responses: responses}
	r, _ := testReasoner(t, client)

	if _, err := r.Respond(context.Background(), "u1", nil, "зациклись"); err == nil {
		t.Fatal("expected step-limit error")
	}
	if len(client.requests) != DefaultMaxSteps {
		t.Errorf("completion rounds = %d, want %d", len(client.requests), DefaultMaxSteps)
	}
}
