package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kdsk0521/lorekeeper/llm"
)

func TestChatReturnsTextAndUsage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{
  "choices": [{"message": {"content": "the docks at midnight"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", 5*time.Second)
	res, err := c.Chat(context.Background(), llm.Request{
		Model:    "test-model",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if res.Text != "the docks at midnight" {
		t.Fatalf("Text = %q", res.Text)
	}
	if res.Usage.TotalTokens != 20 {
		t.Fatalf("TotalTokens = %d, want 20", res.Usage.TotalTokens)
	}
}

func TestChatRetriesWithoutResponseFormat(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		if _, hasFormat := body["response_format"]; hasFormat {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "response_format is not supported", "type": "invalid_request_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": "{\"ok\": true}"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", 5*time.Second)
	res, err := c.Chat(context.Background(), llm.Request{
		Model:     "test-model",
		Messages:  []llm.Message{{Role: "user", Content: "classify"}},
		ForceJSON: true,
	})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if res.Text != `{"ok": true}` {
		t.Fatalf("Text = %q", res.Text)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want retry without response_format", got)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "auth_error"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-bad", 5*time.Second)
	_, err := c.Chat(context.Background(), llm.Request{
		Model:    "test-model",
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatalf("Chat() error = nil, want auth failure")
	}
}
