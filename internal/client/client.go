// Package client implements a single-attempt HTTP client for
// OpenAI-compatible chat completion servers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chatctl/pkg/types"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	modelsPath          = "/v1/models"
)

// DefaultTimeout bounds a blocking completion request end to end.
const DefaultTimeout = 2 * time.Minute

// Client talks to one chat completion server. It performs exactly one HTTP
// attempt per call: no retries, no caching, no partial results.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithTimeout overrides the request timeout for blocking calls.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger installs a structured logger. Default is a no-op logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the server at baseURL (scheme://host:port).
// token may be empty for servers that do not enforce auth.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ChatRaw sends one completion request and returns the response body
// unmodified on any 2xx status. A non-2xx status yields an *APIError with
// the status code and body verbatim; connection, DNS and timeout failures
// surface as wrapped transport errors. Invalid requests fail before any
// network I/O.
func (c *Client) ChatRaw(ctx context.Context, req types.ChatRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Stream = false
	resp, err := c.post(ctx, chatCompletionsPath, req, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return c.readChecked(resp)
}

// Chat is ChatRaw plus a typed view of the body.
func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	raw, err := c.ChatRaw(ctx, req)
	if err != nil {
		return nil, err
	}
	var out types.ChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// Models fetches the server's model list.
func (c *Client) Models(ctx context.Context) ([]types.Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(httpReq)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := c.readChecked(resp)
	if err != nil {
		return nil, err
	}
	var out types.ModelsResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Data, nil
}

// post builds and sends a JSON POST. When doer is nil the default client
// (with its timeout) is used; streaming passes its own.
func (c *Client) post(ctx context.Context, path string, payload any, doer *http.Client) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.setHeaders(httpReq)
	if doer == nil {
		doer = c.http
	}
	start := time.Now()
	resp, err := doer.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("dur", time.Since(start)).Msg("request done")
	return resp, nil
}

func (c *Client) setHeaders(r *http.Request) {
	r.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// readChecked drains the body and maps non-2xx statuses to *APIError.
func (c *Client) readChecked(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Body: raw}
	}
	return raw, nil
}
