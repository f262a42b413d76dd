package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/martinhq/martin/pkg/martin/tools"
)

// DefaultMaxSteps bounds how many completion rounds one message may
// consume. Each round can carry several tool calls.
const DefaultMaxSteps = 6

const systemPromptTemplate = `Ты — Мартин, личный ассистент в Telegram. Ты помогаешь с задачами, календарём и почтой. Отвечай кратко и по-русски.

Сейчас %s.

Правила:
- Перед созданием события в календаре проверяй занятость через check_time_conflicts и предупреждай о пересечениях.
- Никогда не вызывай send_email без явного подтверждения пользователя; сначала покажи черновик.
- Если для действия не хватает данных (например, времени напоминания), задай уточняющий вопрос вместо вызова инструмента.
- Если аккаунт не подключён, скажи об этом и предложи подключить его в настройках.`

// chatCompleter is the slice of the OpenAI client the reasoner uses.
// *openai.Client satisfies it; tests substitute a scripted fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIReasoner resolves messages with an OpenAI-compatible chat model
// and a bounded tool-execution loop.
type OpenAIReasoner struct {
	client   chatCompleter
	model    string
	maxSteps int
	registry *tools.Registry
	env      *tools.Env
	logger   *slog.Logger
	clock    func() time.Time
}

// NewOpenAIReasoner builds a reasoner. maxSteps <= 0 selects
// DefaultMaxSteps.
func NewOpenAIReasoner(client *openai.Client, model string, maxSteps int, registry *tools.Registry, env *tools.Env, logger *slog.Logger) *OpenAIReasoner {
	return newReasoner(client, model, maxSteps, registry, env, logger)
}

func newReasoner(client chatCompleter, model string, maxSteps int, registry *tools.Registry, env *tools.Env, logger *slog.Logger) *OpenAIReasoner {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIReasoner{
		client:   client,
		model:    model,
		maxSteps: maxSteps,
		registry: registry,
		env:      env,
		logger:   logger,
		clock:    time.Now,
	}
}

// Respond runs the reasoning loop for one user message.
func (r *OpenAIReasoner) Respond(ctx context.Context, userID string, history []Message, message string) (*ReasoningResult, error) {
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: fmt.Sprintf(systemPromptTemplate, r.clock().Format("Monday, 2 January 2006, 15:04 (MST)")),
	}}
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	result := &ReasoningResult{}
	for step := 0; step < r.maxSteps; step++ {
		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    r.model,
			Messages: messages,
			Tools:    r.openAITools(),
		})
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("chat completion returned no choices")
		}
		choice := resp.Choices[0].Message

		if len(choice.ToolCalls) == 0 {
			result.Text = choice.Content
			return result, nil
		}

		messages = append(messages, choice)
		for _, call := range choice.ToolCalls {
			args := json.RawMessage(call.Function.Arguments)
			res := r.registry.Execute(ctx, r.env, userID, call.Function.Name, args)
			result.Invocations = append(result.Invocations, tools.Invocation{
				Tool:   call.Function.Name,
				Args:   args,
				Result: res,
			})
			r.logger.Info("tool executed",
				"user_id", userID, "tool", call.Function.Name, "ok", res.Ok())

			payload, err := json.Marshal(res)
			if err != nil {
				payload = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Content:    string(payload),
			})
		}
	}

	return nil, fmt.Errorf("no final reply after %d reasoning steps", r.maxSteps)
}

func (r *OpenAIReasoner) openAITools() []openai.Tool {
	defs := r.registry.Definitions()
	out := make([]openai.Tool, 0, len(defs))
	for _, def := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.Parameters,
			},
		})
	}
	return out
}
