// Package tools implements the assistant's action tools: task creation,
// calendar scheduling, conflict checks, and email operations. Every tool
// takes typed arguments, never panics, and reports failures inside its
// result rather than through the error return, so a reasoning loop can
// always relay the outcome back to the model.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/martinhq/martin/pkg/martin/tasks"
	"github.com/martinhq/martin/pkg/martin/tokens"
)

// Result is the outcome of one tool execution. Ok reports whether the
// tool did what was asked; failed results still marshal cleanly so the
// model sees what went wrong.
type Result interface {
	Tool() string
	Ok() bool
}

// Invocation records one executed tool call.
type Invocation struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args"`
	Result Result          `json:"result"`
}

// Handler executes a tool for a user with raw JSON arguments.
type Handler func(ctx context.Context, env *Env, userID string, args json.RawMessage) (Result, error)

// Definition describes a tool to the model.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Handler     Handler
}

// Env carries the stores and clients tools need. Clock is injectable
// for tests and defaults to time.Now.
type Env struct {
	Tokens *tokens.Store
	Tasks  *tasks.Store
	Clock  func() time.Time
	Logger *slog.Logger

	// GmailFactory and CalendarFactory build API clients from an access
	// token. Tests swap these for clients pointed at httptest servers.
	GmailFactory    func(accessToken string) GmailAPI
	CalendarFactory func(accessToken string) CalendarAPI
}

func (e *Env) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Registry holds the tool set exposed to the reasoning loop.
type Registry struct {
	defs  []Definition
	index map[string]int
}

// NewRegistry builds the default registry with all six assistant tools.
func NewRegistry() *Registry {
	r := &Registry{index: make(map[string]int)}
	r.Register(createTaskDefinition())
	r.Register(createCalendarEventDefinition())
	r.Register(checkTimeConflictsDefinition())
	r.Register(readEmailsDefinition())
	r.Register(generateEmailDraftDefinition())
	r.Register(sendEmailDefinition())
	return r
}

// Register adds a tool definition. Later registrations with the same
// name replace earlier ones.
func (r *Registry) Register(def Definition) {
	if i, ok := r.index[def.Name]; ok {
		r.defs[i] = def
		return
	}
	r.index[def.Name] = len(r.defs)
	r.defs = append(r.defs, def)
}

// Definitions returns the registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	return r.defs
}

// Execute runs the named tool. Unknown tool names and argument decode
// failures come back as a ToolError result, not an error, so the caller
// can feed them to the model like any other outcome.
func (r *Registry) Execute(ctx context.Context, env *Env, userID, name string, args json.RawMessage) Result {
	i, ok := r.index[name]
	if !ok {
		return &ToolError{Name: name, Message: fmt.Sprintf("unknown tool %q", name)}
	}

	res, err := r.defs[i].Handler(ctx, env, userID, args)
	if err != nil {
		env.logger().Error("tool execution failed", "tool", name, "error", err)
		return &ToolError{Name: name, Message: err.Error()}
	}
	return res
}

// ToolError is the result of a tool that could not run at all.
type ToolError struct {
	Name    string `json:"tool"`
	Message string `json:"error"`
}

func (e *ToolError) Tool() string { return e.Name }
func (e *ToolError) Ok() bool     { return false }

// decodeArgs unmarshals raw tool arguments into a typed struct.
func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding arguments: %w", err)
	}
	return nil
}
