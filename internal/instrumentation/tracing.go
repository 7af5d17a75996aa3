package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for every span of this module.
const TracerName = "github.com/teemow/gsuiteadmin"

// Span attribute keys.
const (
	SpanAttrTool          = "mcp.tool"
	SpanAttrInvocationID  = "mcp.invocation_id"
	SpanAttrAccountDomain = "mcp.account_domain"
	SpanAttrAttempt       = "mcp.attempt"
	SpanAttrErrorKind     = "mcp.error_kind"
	SpanAttrErrorReason   = "mcp.error_reason"
	SpanAttrRetryDelayMs  = "mcp.retry_delay_ms"

	SpanAttrService   = "google.service"
	SpanAttrOperation = "google.operation"
)

// EventRetryScheduled marks a backoff sleep on the tool span.
const EventRetryScheduled = "retry_scheduled"

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartToolSpan starts the server span that covers one dispatched tool
// call, from lookup to the recorded outcome. The caller ends it.
func StartToolSpan(ctx context.Context, tool, invocationID string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrTool, tool)}
	if invocationID != "" {
		attrs = append(attrs, attribute.String(SpanAttrInvocationID, invocationID))
	}
	return tracer().Start(ctx, "tool."+tool,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// SetSpanAccount tags span with the domain of the acting account. The
// address itself never reaches a trace.
func SetSpanAccount(span trace.Span, account string) {
	if account == "" {
		return
	}
	span.SetAttributes(attribute.String(SpanAttrAccountDomain, AccountDomain(account)))
}

// StartAttemptSpan starts a child span for one attempt of a tool handler.
func StartAttemptSpan(ctx context.Context, tool string, attempt int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "attempt."+tool,
		trace.WithAttributes(
			attribute.String(SpanAttrTool, tool),
			attribute.Int(SpanAttrAttempt, attempt),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartGoogleAPISpan starts a client span for one Admin SDK request, named
// google.<service>.<operation>.
func StartGoogleAPISpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "google."+service+"."+operation,
		trace.WithAttributes(
			attribute.String(SpanAttrService, service),
			attribute.String(SpanAttrOperation, operation),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// AddRetryEvent records on the span in ctx that attempt failed with kind
// and the next one starts after delay.
func AddRetryEvent(ctx context.Context, attempt int, kind string, delay time.Duration) {
	trace.SpanFromContext(ctx).AddEvent(EventRetryScheduled, trace.WithAttributes(
		attribute.Int(SpanAttrAttempt, attempt),
		attribute.String(SpanAttrErrorKind, kind),
		attribute.Int64(SpanAttrRetryDelayMs, delay.Milliseconds()),
	))
}

// SetSpanError records err on span and marks it failed. A nil err is ignored.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanFailure is SetSpanError for a classified failure.
func SetSpanFailure(span trace.Span, kind, reason string, err error) {
	attrs := []attribute.KeyValue{attribute.String(SpanAttrErrorKind, kind)}
	if reason != "" {
		attrs = append(attrs, attribute.String(SpanAttrErrorReason, reason))
	}
	span.SetAttributes(attrs...)
	SetSpanError(span, err)
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
