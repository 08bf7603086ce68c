package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chatctl/pkg/types"
)

// ChatStream sends a streaming completion request and invokes fn for every
// SSE data event until the server signals [DONE] or the stream ends. The
// request timeout does not apply; cancel via ctx instead. fn returning an
// error aborts the stream and surfaces that error.
func (c *Client) ChatStream(ctx context.Context, req types.ChatRequest, fn func(types.ChatStreamChunk) error) error {
	if err := req.Validate(); err != nil {
		return err
	}
	req.Stream = true
	// No client timeout on streams; the context carries the deadline.
	streamClient := &http.Client{Transport: c.http.Transport}
	resp, err := c.post(ctx, chatCompletionsPath, req, streamClient)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{Status: resp.StatusCode, Body: raw}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		var chunk types.ChatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
