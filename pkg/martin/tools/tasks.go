package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/martinhq/martin/pkg/martin/tasks"
)

// CreateTaskArgs contains arguments for creating a todo item.
type CreateTaskArgs struct {
	Text    string `json:"text"`
	DueDate string `json:"due_date,omitempty"` // RFC 3339, optional
}

// CreateTaskResult contains the result of creating a todo item.
type CreateTaskResult struct {
	Success bool        `json:"success"`
	Task    *tasks.Task `json:"task,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (r *CreateTaskResult) Tool() string { return "create_task" }
func (r *CreateTaskResult) Ok() bool     { return r.Success }

func createTaskDefinition() Definition {
	return Definition{
		Name:        "create_task",
		Description: "Создать задачу в списке дел пользователя. Используй, когда пользователь просит добавить задачу или дело.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "Текст задачи",
				},
				"due_date": map[string]any{
					"type":        "string",
					"description": "Срок выполнения в формате RFC 3339, если назван",
				},
			},
			"required": []string{"text"},
		},
		Handler: createTask,
	}
}

func createTask(ctx context.Context, env *Env, userID string, raw json.RawMessage) (Result, error) {
	var args CreateTaskArgs
	if err := decodeArgs(raw, &args); err != nil {
		return &CreateTaskResult{Error: err.Error()}, nil
	}

	text := strings.TrimSpace(args.Text)
	if text == "" {
		return &CreateTaskResult{Error: "task text is required"}, nil
	}

	var due *time.Time
	if args.DueDate != "" {
		parsed, err := time.Parse(time.RFC3339, args.DueDate)
		if err != nil {
			return &CreateTaskResult{Error: fmt.Sprintf("invalid due_date: %v", err)}, nil
		}
		due = &parsed
	}

	task, err := env.Tasks.Add(ctx, userID, text, due)
	if err != nil {
		return &CreateTaskResult{Error: fmt.Sprintf("failed to save task: %v", err)}, nil
	}

	env.logger().Info("task created", "user_id", userID, "task_id", task.ID)
	return &CreateTaskResult{Success: true, Task: task}, nil
}
