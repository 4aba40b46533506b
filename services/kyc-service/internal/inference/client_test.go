package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newChatServer(t *testing.T, content string, totalTokens int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			t.Errorf("Authorization = %q, want Bearer token", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("messages = %d, want system + user", len(req.Messages))
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
			"usage": map[string]any{"total_tokens": totalTokens},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCompleteRoundTrip(t *testing.T) {
	srv := newChatServer(t, `{"ok": true}`, 120)
	defer srv.Close()

	c := NewGroqClient(Config{Endpoint: srv.URL, APIKey: "test-key", DailyTokenLimit: 1000})
	resp, err := c.Complete(context.Background(), Request{
		System:   "system prompt",
		User:     "user prompt",
		Model:    "llama-3.1-70b-versatile",
		JSONMode: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != `{"ok": true}` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.TokensUsed != 120 {
		t.Errorf("tokens = %d, want 120", resp.TokensUsed)
	}

	usage := c.Usage()
	if usage.DailyTokenUsage != 120 || usage.RequestsToday != 1 {
		t.Errorf("usage = %+v", usage)
	}
	if usage.TokensRemaining != 880 {
		t.Errorf("remaining = %d, want 880", usage.TokensRemaining)
	}
}

func TestCompleteMissingKey(t *testing.T) {
	c := NewGroqClient(Config{Endpoint: "http://localhost:1"})
	if _, err := c.Complete(context.Background(), Request{Model: "m"}); err == nil {
		t.Fatal("want error without an API key")
	}
}

func TestCompleteDailyLimit(t *testing.T) {
	srv := newChatServer(t, "ok", 50)
	defer srv.Close()

	c := NewGroqClient(Config{Endpoint: srv.URL, APIKey: "test-key", DailyTokenLimit: 40})
	if _, err := c.Complete(context.Background(), Request{Model: "m"}); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := c.Complete(context.Background(), Request{Model: "m"}); err == nil {
		t.Fatal("want error once the daily token budget is spent")
	}

	usage := c.Usage()
	if usage.TokensRemaining != 0 {
		t.Errorf("remaining = %d, want 0", usage.TokensRemaining)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGroqClient(Config{Endpoint: srv.URL, APIKey: "test-key"})
	_, err := c.Complete(context.Background(), Request{Model: "m"})
	if err == nil {
		t.Fatal("want error on non-200 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error %q should carry the upstream status", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewGroqClient(Config{Endpoint: srv.URL, APIKey: "test-key"})
	if _, err := c.Complete(context.Background(), Request{Model: "m"}); err == nil {
		t.Fatal("want error when the completion has no choices")
	}
}
