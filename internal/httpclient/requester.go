package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/llmload/internal/extractor"
	"github.com/torosent/llmload/internal/runner"
	"github.com/torosent/llmload/internal/tracing"
)

// maxBodyReadSize bounds how much of a response body is read.
const maxBodyReadSize = 4 * 1024 * 1024

// bodyTooLargeMessage is the transport message for a 2xx body over maxBodyReadSize.
const bodyTooLargeMessage = "response body exceeds 4 MiB limit"

// ChatRequester sends one chat completion per Dispatch and turns the result
// into a runner.Outcome. It implements runner.Dispatcher.
type ChatRequester struct {
	client      *http.Client
	builder     *RequestBuilder
	contentPath string
	tracer      trace.Tracer
}

// NewChatRequester creates a requester. tracer may be nil.
func NewChatRequester(client *http.Client, builder *RequestBuilder, contentPath string, tracer trace.Tracer) *ChatRequester {
	if client == nil {
		client = http.DefaultClient
	}
	return &ChatRequester{
		client:      client,
		builder:     builder,
		contentPath: contentPath,
		tracer:      tracer,
	}
}

// Dispatch performs exactly one request. Every failure is reported in the
// returned Outcome; Dispatch itself never fails or panics.
func (r *ChatRequester) Dispatch(ctx context.Context, requestID int) (outcome runner.Outcome) {
	var span trace.Span
	if r.tracer != nil {
		target, model := "", ""
		if r.builder != nil {
			target, model = r.builder.target, r.builder.model
		}
		ctx, span = tracing.StartRequestSpan(ctx, r.tracer, requestID, target, model)
	}

	statusCode := 0
	defer func() {
		if rec := recover(); rec != nil {
			outcome = runner.Failed(requestID, &runner.TransportError{Message: fmt.Sprintf("panic: %v", rec)})
		}
		if span != nil {
			var attrs []attribute.KeyValue
			if statusCode > 0 {
				attrs = append(attrs, tracing.AttrStatusCode.Int(statusCode))
			}
			if outcome.Success() {
				attrs = append(attrs, tracing.AttrTokens.Int(outcome.Tokens))
			}
			tracing.EndSpan(span, outcome.Err, attrs...)
		}
	}()

	if r.builder == nil {
		return runner.Failed(requestID, &runner.TransportError{Message: "request builder is not configured"})
	}
	req, err := r.builder.Build(ctx)
	if err != nil {
		return runner.Failed(requestID, &runner.TransportError{Message: err.Error()})
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return runner.Failed(requestID, &runner.TransportError{Message: err.Error()})
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize+1))
	_ = resp.Body.Close()
	latency := time.Since(start)
	statusCode = resp.StatusCode

	if readErr != nil {
		return runner.Failed(requestID, &runner.TransportError{Message: "read response body: " + readErr.Error()})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return runner.Failed(requestID, runner.NewHTTPError(resp.StatusCode, string(body)))
	}

	if len(body) > maxBodyReadSize {
		return runner.Failed(requestID, &runner.TransportError{Message: bodyTooLargeMessage})
	}

	text, err := extractor.Content(body, r.contentPath)
	if err != nil {
		return runner.Failed(requestID, &runner.TransportError{Message: "malformed response: " + err.Error()})
	}
	if latency <= 0 {
		latency = time.Nanosecond
	}
	return runner.Succeeded(requestID, latency, extractor.CountTokens(text))
}
