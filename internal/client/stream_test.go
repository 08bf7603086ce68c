package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatctl/pkg/types"
)

func sseHandler(t *testing.T, events ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type=%q", r.Header.Get("Content-Type"))
		}
		if err := jsonDecode(r, &req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !req.Stream {
			t.Errorf("stream flag not set")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		f, _ := w.(http.Flusher)
		for _, ev := range events {
			fmt.Fprintf(w, "data: %s\n\n", ev)
			if f != nil {
				f.Flush()
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func TestChatStreamDeltas(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"choices":[{"index":0,"delta":{"role":"assistant","content":"To"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"kyo"}}]}`,
	))
	defer srv.Close()

	var sb strings.Builder
	err := New(srv.URL, "tok").ChatStream(context.Background(), validReq(), func(c types.ChatStreamChunk) error {
		for _, ch := range c.Choices {
			sb.WriteString(ch.Delta.Content)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sb.String() != "Tokyo" {
		t.Fatalf("got %q", sb.String())
	}
}

func TestChatStreamCallbackErrorAborts(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		`{"choices":[{"index":0,"delta":{"content":"a"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"b"}}]}`,
	))
	defer srv.Close()

	boom := errors.New("boom")
	calls := 0
	err := New(srv.URL, "tok").ChatStream(context.Background(), validReq(), func(types.ChatStreamChunk) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback called %d times", calls)
	}
}

func TestChatStreamNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").ChatStream(context.Background(), validReq(), func(types.ChatStreamChunk) error { return nil })
	ae, ok := AsAPIError(err)
	if !ok || ae.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
	if string(ae.Body) != "loading" {
		t.Fatalf("body=%s", ae.Body)
	}
}

func TestChatStreamValidatesFirst(t *testing.T) {
	req := validReq()
	req.Messages = nil
	err := New("http://127.0.0.1:0", "tok").ChatStream(context.Background(), req, func(types.ChatStreamChunk) error { return nil })
	if !errors.Is(err, types.ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}
