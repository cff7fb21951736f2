package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cliq_go/internal/domain"

	"github.com/goccy/go-json"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "gen-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(b)
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL:          url,
		APIKey:           "sk-test",
		Model:            "test-model",
		Timeout:          2 * time.Second,
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
	})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestClient_CompleteWithSystem(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply("  {\"agent_message\":\"hi\"}  ")))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	reply, err := c.CompleteWithSystem(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("CompleteWithSystem failed: %v", err)
	}
	if reply != `{"agent_message":"hi"}` {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Messages[0].Role != "system" || got.Messages[1].Content != "user prompt" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestClient_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatReply("   ")))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).CompleteWithSystem(context.Background(), "s", "u")
	var upErr *domain.UpstreamError
	if !errors.As(err, &upErr) || upErr.IsRetriable() {
		t.Errorf("expected fatal upstream error, got %v", err)
	}
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	for i := 0; i < 2; i++ {
		_, err := c.CompleteWithSystem(context.Background(), "s", "u")
		if err == nil || !domain.IsRetriable(err) {
			t.Fatalf("call %d: expected retriable error, got %v", i, err)
		}
	}

	_, err := c.CompleteWithSystem(context.Background(), "s", "u")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable once open, got %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hits = %d, want 2 (breaker should short-circuit)", hits.Load())
	}
}

func TestClient_ClientErrorIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).CompleteWithSystem(context.Background(), "s", "u")
	if err == nil || domain.IsRetriable(err) {
		t.Errorf("expected non-retriable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "openrouter complete") {
		t.Errorf("error should name the service: %v", err)
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{Model: "m"})
	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected ConfigError, got %v", err)
	}
}
