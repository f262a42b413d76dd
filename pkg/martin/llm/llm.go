// Package llm resolves user messages into replies and tool calls.
package llm

import (
	"context"

	"github.com/martinhq/martin/pkg/martin/tools"
)

// Message is one turn of prior conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ReasoningResult is the outcome of one reasoning turn: the reply text
// plus every tool call the model made along the way.
type ReasoningResult struct {
	Text        string
	Invocations []tools.Invocation
}

// Reasoner turns a user message into a reply, possibly executing tools.
type Reasoner interface {
	Respond(ctx context.Context, userID string, history []Message, message string) (*ReasoningResult, error)
}
