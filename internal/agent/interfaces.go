package agent

import (
	"context"

	"github.com/vampirenirmal/outliner/internal/schema"
)

// Transport sends one chat completion and returns the assistant text.
// Streamed deltas are already concatenated.
type Transport interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message   { return Message{Role: RoleUser, Content: content} }

// CallSettings are the effective sampling settings of one call.
type CallSettings struct {
	Model            string   `json:"model"`
	Temperature      float64  `json:"temperature"`
	MaxTokens        int      `json:"max_tokens"`
	Stream           bool     `json:"stream"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
}

type Request struct {
	Messages       []Message
	Settings       CallSettings
	ResponseFormat *schema.ResponseFormat
}
