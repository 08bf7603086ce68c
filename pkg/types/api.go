package types

import (
	"errors"
	"fmt"
)

// Roles accepted in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrNoMessages is returned when a chat request carries an empty conversation.
var ErrNoMessages = errors.New("chat request requires at least one message")

// Message is a single conversation turn. Order is meaningful.
type Message struct {
	// Role of the author: system, user or assistant.
	// example: user
	Role string `json:"role" example:"user"`
	// Text content of the turn.
	// example: What is the capital of Japan?
	Content string `json:"content" example:"What is the capital of Japan?"`
}

// ChatRequest is the payload for POST /v1/chat/completions.
type ChatRequest struct {
	// Model identifier or path. If empty, the server default is used.
	// example: qwen2-7b-instruct
	Model string `json:"model" example:"qwen2-7b-instruct"`
	// Ordered conversation turns. Must be non-empty.
	Messages []Message `json:"messages"`
	// Sampling temperature in [0,2] (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature" example:"0.7"`
	// Nucleus sampling probability in [0,1].
	// example: 0.8
	TopP float64 `json:"top_p" example:"0.8"`
	// Maximum number of new tokens to generate. Must be positive.
	// example: 200
	MaxTokens int `json:"max_tokens" example:"200"`
	// If true, the server streams deltas as SSE events instead of one JSON body.
	// example: false
	Stream bool `json:"stream,omitempty" example:"false"`
}

// Validate checks the request invariants locally, before any network I/O.
func (r ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return ErrNoMessages
	}
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return fmt.Errorf("message %d: unknown role %q", i, m.Role)
		}
	}
	if r.Temperature < 0 || r.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0,2]", r.Temperature)
	}
	if r.TopP < 0 || r.TopP > 1 {
		return fmt.Errorf("top_p %v out of range [0,1]", r.TopP)
	}
	if r.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", r.MaxTokens)
	}
	return nil
}

// ChatResponse is the parsed view of a completion response. The server owns
// the schema; fields not modeled here survive only in the raw body.
type ChatResponse struct {
	ID      string   `json:"id,omitempty"`
	Object  string   `json:"object,omitempty"`
	Created int64    `json:"created,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one generated continuation.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// Usage reports token accounting for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatStreamChunk is one SSE event of a streaming completion.
type ChatStreamChunk struct {
	ID      string         `json:"id,omitempty"`
	Object  string         `json:"object,omitempty"`
	Created int64          `json:"created,omitempty"`
	Model   string         `json:"model,omitempty"`
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice carries a delta instead of a full message.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Delta is the incremental part of a streamed message.
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ModelsResponse wraps the list returned by GET /v1/models.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
