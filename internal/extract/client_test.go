package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClaudeClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "key" {
			t.Errorf("expected api key header, got %q", r.Header.Get("x-api-key"))
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Model != "claude-test" || len(req.Messages) != 1 || req.Messages[0].Content != "prompt" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"alpha, "},{"type":"text","text":"beta"}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("key", "claude-test")
	c.endpoint = srv.URL
	defer c.Close()

	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "alpha, beta" {
		t.Errorf("expected %q, got %q", "alpha, beta", got)
	}
	if c.Model() != "claude-test" {
		t.Errorf("unexpected model %q", c.Model())
	}
}

func TestClaudeClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tc := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"type":"x","message":"y"}}`, tc.status)
		}))
		c := NewClaudeClient("key", "m")
		c.endpoint = srv.URL

		_, err := c.Generate(context.Background(), "p")
		srv.Close()
		if err == nil {
			t.Errorf("status %d: expected error", tc.status)
			continue
		}
		if IsRetryable(err) != tc.retryable {
			t.Errorf("status %d: expected retryable=%v, got %v (%v)", tc.status, tc.retryable, IsRetryable(err), err)
		}
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"gamma, delta"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL+"/v1", "gpt-test")
	got, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "gamma, delta" {
		t.Errorf("expected %q, got %q", "gamma, delta", got)
	}
	if c.Model() != "gpt-test" {
		t.Errorf("unexpected model %q", c.Model())
	}
}

func TestOpenAIClient_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", srv.URL+"/v1", "gpt-test")
	_, err := c.Generate(context.Background(), "prompt")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
