package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// ToolInvocation captures one dispatched tool call for audit logging.
//
// # Privacy Considerations
//
// Account is the admin email the call was made as and is PII. LogAttrs
// replaces it with its domain; LogAuditAttrs keeps it for compliance logs.
type ToolInvocation struct {
	Tool         string
	InvocationID string
	Account      string
	Category     string

	// Outcome
	StartTime time.Time
	Duration  time.Duration
	Attempts  int
	Success   bool
	ErrorKind string
	Reason    string
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// AccountDomain returns the domain of the admin account for lower-cardinality logging.
func (ti *ToolInvocation) AccountDomain() string {
	return AccountDomain(ti.Account)
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) commonAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.InvocationID != "" {
		attrs = append(attrs, slog.String("invocation_id", ti.InvocationID))
	}
	if ti.Category != "" {
		attrs = append(attrs, slog.String("category", ti.Category))
	}
	if ti.Attempts > 0 {
		attrs = append(attrs, slog.Int("attempts", ti.Attempts))
	}
	if ti.ErrorKind != "" {
		attrs = append(attrs, slog.String("error_kind", ti.ErrorKind))
	}
	if ti.Reason != "" {
		attrs = append(attrs, slog.String("reason", ti.Reason))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	return attrs
}

// LogAttrs returns cardinality-controlled attributes: the account is reduced
// to its domain.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := ti.commonAttrs()
	attrs = append(attrs, slog.String("account_domain", ti.AccountDomain()))
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// LogAuditAttrs returns attributes for full audit logging, including the
// admin account email.
//
// # Security Warning
//
// Ensure audit logs are stored with appropriate access controls.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := ti.commonAttrs()
	attrs = append(attrs, slog.String("account", ti.Account))
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
func NewToolInvocation(tool, invocationID string) *ToolInvocation {
	return &ToolInvocation{
		Tool:         tool,
		InvocationID: invocationID,
		StartTime:    time.Now(),
	}
}

// WithAccount sets the admin account.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithCategory sets the tool category (users, groups, ...).
func (ti *ToolInvocation) WithCategory(category string) *ToolInvocation {
	ti.Category = category
	return ti
}

// WithAttempts records how many upstream attempts were made.
func (ti *ToolInvocation) WithAttempts(n int) *ToolInvocation {
	ti.Attempts = n
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = true
	return ti
}

// CompleteWithError marks the invocation as failed. kind and reason come
// from the classified failure; message must not contain token material.
func (ti *ToolInvocation) CompleteWithError(kind, reason, message string) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = false
	ti.ErrorKind = kind
	ti.Reason = reason
	ti.Error = message
	return ti
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger that anonymizes accounts.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:  logger,
		enabled: true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// SetIncludePII sets whether to include full email addresses in audit logs.
func (al *AuditLogger) SetIncludePII(include bool) {
	al.includePII = include
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs a dispatched tool call. A nil AuditLogger is a no-op.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ti.LogAuditAttrs()
	} else {
		attrs = ti.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
