package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys set on dispatch spans.
const (
	AttrRequestID  = attribute.Key("llmload.request_id")
	AttrModel      = attribute.Key("llmload.model")
	AttrTokens     = attribute.Key("llmload.tokens")
	AttrStatusCode = attribute.Key("http.response.status_code")
	AttrMethod     = attribute.Key("http.request.method")
	AttrURL        = attribute.Key("url.full")
)

// StartRequestSpan starts the client span for one chat completion call.
func StartRequestSpan(ctx context.Context, tracer trace.Tracer, requestID int, target, model string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "chat.completions",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		AttrRequestID.Int(requestID),
		AttrMethod.String(http.MethodPost),
		AttrURL.String(target),
	)
	if model != "" {
		span.SetAttributes(AttrModel.String(model))
	}
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
