// Package responder produces canned chat completions for the mock daemon.
// It stands in for a real inference backend during development and tests.
package responder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"chatctl/pkg/types"
)

// Responder serves deterministic completions from a fixed model catalog.
type Responder struct {
	models       []types.Model
	defaultModel string
	reply        func(req types.ChatRequest) string
	chunkDelay   time.Duration
	seq          atomic.Uint64
	now          func() time.Time
}

// Option adjusts responder construction.
type Option func(*Responder)

// WithCannedReply makes every completion return the given text.
func WithCannedReply(text string) Option {
	return func(r *Responder) { r.reply = func(types.ChatRequest) string { return text } }
}

// WithReplyFunc supplies a custom reply generator.
func WithReplyFunc(fn func(req types.ChatRequest) string) Option {
	return func(r *Responder) { r.reply = fn }
}

// WithChunkDelay sets the pause between streamed chunks.
func WithChunkDelay(d time.Duration) Option {
	return func(r *Responder) { r.chunkDelay = d }
}

// New builds a responder over the given catalog. defaultModel is used when a
// request omits the model field; it may be empty when models is empty (any
// requested model is then accepted verbatim).
func New(models []types.Model, defaultModel string, opts ...Option) *Responder {
	r := &Responder{
		models:       append([]types.Model(nil), models...),
		defaultModel: defaultModel,
		chunkDelay:   10 * time.Millisecond,
		now:          time.Now,
	}
	r.reply = echoReply
	for _, o := range opts {
		o(r)
	}
	return r
}

// echoReply answers with the last user turn so round trips are checkable.
func echoReply(req types.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == types.RoleUser {
			return "You said: " + req.Messages[i].Content
		}
	}
	return "Hello from the mock model."
}

// ListModels returns the catalog.
func (r *Responder) ListModels() []types.Model {
	return append([]types.Model(nil), r.models...)
}

// Ready reports whether the responder can serve. Always true; the mock has
// nothing to warm up.
func (r *Responder) Ready() bool { return true }

// resolveModel applies the default and checks the catalog.
func (r *Responder) resolveModel(requested string) (string, error) {
	id := requested
	if id == "" {
		id = r.defaultModel
	}
	if len(r.models) == 0 {
		if id == "" {
			return "", ErrModelNotFound("(unspecified)")
		}
		return id, nil
	}
	for _, m := range r.models {
		if m.ID == id {
			return id, nil
		}
	}
	if id == "" {
		id = "(unspecified)"
	}
	return "", ErrModelNotFound(id)
}

// Complete produces one blocking completion.
func (r *Responder) Complete(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	model, err := r.resolveModel(req.Model)
	if err != nil {
		return types.ChatResponse{}, err
	}
	text := truncateTokens(r.reply(req), req.MaxTokens)
	prompt := 0
	for _, m := range req.Messages {
		prompt += len(strings.Fields(m.Content))
	}
	completion := len(strings.Fields(text))
	return types.ChatResponse{
		ID:      fmt.Sprintf("chatcmpl-mock-%d", r.seq.Add(1)),
		Object:  "chat.completion",
		Created: r.now().Unix(),
		Model:   model,
		Choices: []types.Choice{{
			Index:        0,
			Message:      types.Message{Role: types.RoleAssistant, Content: text},
			FinishReason: "stop",
		}},
		Usage: &types.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: prompt + completion},
	}, nil
}

// Stream writes the completion as SSE events: a role delta, one content delta
// per word, a finish event, then [DONE]. flush may be nil.
func (r *Responder) Stream(ctx context.Context, req types.ChatRequest, w io.Writer, flush func()) error {
	model, err := r.resolveModel(req.Model)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("chatcmpl-mock-%d", r.seq.Add(1))
	created := r.now().Unix()
	text := truncateTokens(r.reply(req), req.MaxTokens)

	emit := func(c types.ChatStreamChunk) error {
		b, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
			return err
		}
		if flush != nil {
			flush()
		}
		return nil
	}
	chunk := func(delta types.Delta, finish *string) types.ChatStreamChunk {
		return types.ChatStreamChunk{
			ID: id, Object: "chat.completion.chunk", Created: created, Model: model,
			Choices: []types.StreamChoice{{Index: 0, Delta: delta, FinishReason: finish}},
		}
	}

	if err := emit(chunk(types.Delta{Role: types.RoleAssistant}, nil)); err != nil {
		return err
	}
	words := strings.Fields(text)
	for i, word := range words {
		piece := word
		if i < len(words)-1 {
			piece += " "
		}
		if err := emit(chunk(types.Delta{Content: piece}, nil)); err != nil {
			return err
		}
		if r.chunkDelay > 0 {
			select {
			case <-time.After(r.chunkDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	stop := "stop"
	if err := emit(chunk(types.Delta{}, &stop)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}

// truncateTokens caps text at max whitespace-separated tokens (max <= 0 keeps all).
func truncateTokens(text string, max int) string {
	if max <= 0 {
		return text
	}
	fields := strings.Fields(text)
	if len(fields) <= max {
		return text
	}
	return strings.Join(fields[:max], " ")
}
