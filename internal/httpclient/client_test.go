package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/torosent/llmload/internal/auth"
	"github.com/torosent/llmload/internal/config"
)

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.URL = url
	cfg.Prompt = "Say hello"
	cfg.Model = "test-model"
	cfg.Temperature = 0.2
	cfg.MaxTokens = 16
	return &cfg
}

func TestBuildRequestPayload(t *testing.T) {
	builder, err := NewRequestBuilder(testConfig("http://example.com/v1/chat/completions"), nil)
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}

	req, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if req.Method != http.MethodPost {
		t.Fatalf("expected method POST, got %s", req.Method)
	}
	if req.URL.String() != "http://example.com/v1/chat/completions" {
		t.Fatalf("unexpected URL %s", req.URL.String())
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", req.Header.Get("Content-Type"))
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatalf("unexpected Authorization header %q", req.Header.Get("Authorization"))
	}

	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(bodyBytes, &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", payload["model"])
	}
	if payload["temperature"] != 0.2 {
		t.Errorf("temperature = %v, want 0.2", payload["temperature"])
	}
	if payload["max_tokens"] != float64(16) {
		t.Errorf("max_tokens = %v, want 16", payload["max_tokens"])
	}
	if payload["stream"] != false {
		t.Errorf("stream = %v, want false", payload["stream"])
	}
	messages, ok := payload["messages"].([]interface{})
	if !ok || len(messages) != 1 {
		t.Fatalf("messages = %v, want one message", payload["messages"])
	}
	msg := messages[0].(map[string]interface{})
	if msg["role"] != "user" || msg["content"] != "Say hello" {
		t.Errorf("message = %v, want user/Say hello", msg)
	}
	if req.ContentLength != int64(len(bodyBytes)) {
		t.Errorf("ContentLength = %d, want %d", req.ContentLength, len(bodyBytes))
	}
}

func TestBuildRequestHeadersAndAuth(t *testing.T) {
	cfg := testConfig("http://example.com/v1/chat/completions")
	cfg.Headers = map[string]string{"x-team": "perf"}

	builder, err := NewRequestBuilder(cfg, auth.FromAPIKey("sk-123"))
	if err != nil {
		t.Fatalf("NewRequestBuilder() error = %v", err)
	}

	first, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if first.Header.Get("X-Team") != "perf" {
		t.Errorf("X-Team = %q, want perf", first.Header.Get("X-Team"))
	}
	if first.Header.Get("Authorization") != "Bearer sk-123" {
		t.Errorf("Authorization = %q, want Bearer sk-123", first.Header.Get("Authorization"))
	}
	a, b := first.Header.Get(RequestIDHeader), second.Header.Get(RequestIDHeader)
	if a == "" || b == "" || a == b {
		t.Errorf("request ids %q and %q should be set and distinct", a, b)
	}
}

func TestBuildRequestRejectsBadHeader(t *testing.T) {
	cfg := testConfig("http://example.com")
	cfg.Headers = map[string]string{"X-Bad": "a\r\nInjected: 1"}
	if _, err := NewRequestBuilder(cfg, nil); err == nil {
		t.Fatal("NewRequestBuilder() expected error for header value with CRLF")
	}
}

func TestNewRequestBuilderRequiresURL(t *testing.T) {
	if _, err := NewRequestBuilder(testConfig("  "), nil); err == nil {
		t.Fatal("NewRequestBuilder() expected error for empty URL")
	}
	if _, err := NewRequestBuilder(nil, nil); err == nil {
		t.Fatal("NewRequestBuilder(nil) expected error")
	}
}

func TestNewClientTimeout(t *testing.T) {
	client := NewClient(2*time.Second, 8)
	if client.Timeout != 2*time.Second {
		t.Fatalf("Timeout = %s, want 2s", client.Timeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport type = %T", client.Transport)
	}
	if transport.MaxIdleConnsPerHost != 8 {
		t.Errorf("MaxIdleConnsPerHost = %d, want 8", transport.MaxIdleConnsPerHost)
	}
	if NewClient(-1, 0).Timeout != 0 {
		t.Error("negative timeout should clamp to 0")
	}
}
