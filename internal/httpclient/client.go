package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/torosent/llmload/internal/auth"
	"github.com/torosent/llmload/internal/config"
	"github.com/torosent/llmload/internal/tracing"
)

// RequestIDHeader carries a per-request UUID for server-side log correlation.
const RequestIDHeader = "X-Request-ID"

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the non-streaming chat completion payload.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Stream      bool      `json:"stream"`
}

// RequestBuilder produces identical chat completion requests. The payload is
// encoded once and shared by every request.
type RequestBuilder struct {
	target       string
	model        string
	headers      http.Header
	payload      []byte
	authProvider auth.Provider
	propagate    bool
}

// NewRequestBuilder encodes the payload described by cfg. provider may be nil.
func NewRequestBuilder(cfg *config.Config, provider auth.Provider) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.URL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	payload, err := json.Marshal(ChatRequest{
		Model:       cfg.Model,
		Messages:    []Message{{Role: "user", Content: cfg.Prompt}},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}

	return &RequestBuilder{
		target:       target,
		model:        cfg.Model,
		headers:      headers,
		payload:      payload,
		authProvider: provider,
	}, nil
}

// WithTracePropagation toggles W3C trace context injection.
func (b *RequestBuilder) WithTracePropagation(enabled bool) *RequestBuilder {
	b.propagate = enabled
	return b
}

// Target returns the endpoint URL.
func (b *RequestBuilder) Target() string { return b.target }

// Payload returns a copy of the encoded request body.
func (b *RequestBuilder) Payload() []byte {
	return append([]byte(nil), b.payload...)
}

// Build returns a new POST request bound to ctx.
func (b *RequestBuilder) Build(ctx context.Context) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.target, bytes.NewReader(b.payload))
	if err != nil {
		return nil, err
	}
	req.Header = b.headers.Clone()
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if b.authProvider != nil {
		if err := b.authProvider.InjectHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("auth provider inject header: %w", err)
		}
	}
	if b.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}
	return req, nil
}

// NewClient returns an HTTP client tuned for a single target host with up to
// maxConns concurrent connections.
func NewClient(timeout time.Duration, maxConns int) *http.Client {
	if timeout < 0 {
		timeout = 0
	}
	if maxConns < 1 {
		maxConns = 1
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
