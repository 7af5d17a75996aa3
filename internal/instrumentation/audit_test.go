package instrumentation

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newJSONLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func attrKeys(attrs []slog.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Key] = a.Value.String()
	}
	return out
}

func TestToolInvocation_Builder(t *testing.T) {
	ti := NewToolInvocation("admin_get_user", "inv-1").
		WithAccount("admin@example.com").
		WithCategory("users").
		WithAttempts(2)

	assert.Equal(t, "admin_get_user", ti.Tool)
	assert.Equal(t, "inv-1", ti.InvocationID)
	assert.Equal(t, "example.com", ti.AccountDomain())
	assert.False(t, ti.StartTime.IsZero())

	time.Sleep(time.Millisecond)
	ti.CompleteSuccess()
	assert.True(t, ti.Success)
	assert.Equal(t, StatusSuccess, ti.Status())
	assert.True(t, ti.Duration > 0)
}

func TestToolInvocation_CompleteWithError(t *testing.T) {
	ti := NewToolInvocation("admin_delete_user", "inv-2").
		CompleteWithError("Validation", "ConfirmationRequired", "admin_delete_user is destructive")

	assert.False(t, ti.Success)
	assert.Equal(t, StatusError, ti.Status())
	assert.Equal(t, "Validation", ti.ErrorKind)
	assert.Equal(t, "ConfirmationRequired", ti.Reason)
	assert.Equal(t, "admin_delete_user is destructive", ti.Error)
}

func TestToolInvocation_LogAttrs(t *testing.T) {
	ti := NewToolInvocation("admin_list_users", "inv-3").
		WithAccount("admin@example.com").
		WithCategory("users").
		WithAttempts(1).
		CompleteWithError("Upstream", "NotFound", "user not found")

	got := attrKeys(ti.LogAttrs())
	assert.Equal(t, "admin_list_users", got["tool"])
	assert.Equal(t, "inv-3", got["invocation_id"])
	assert.Equal(t, "users", got["category"])
	assert.Equal(t, "example.com", got["account_domain"])
	assert.Equal(t, "NotFound", got["reason"])
	assert.Equal(t, "user not found", got["error"])
	assert.NotContains(t, got, "account")
}

func TestToolInvocation_LogAttrs_MinimalFields(t *testing.T) {
	got := attrKeys(NewToolInvocation("admin_list_users", "").CompleteSuccess().LogAttrs())

	assert.Equal(t, "unknown", got["account_domain"])
	for _, absent := range []string{"invocation_id", "category", "attempts", "error_kind", "reason", "trace_id", "error"} {
		assert.NotContains(t, got, absent)
	}
}

func TestToolInvocation_LogAuditAttrs(t *testing.T) {
	ti := NewToolInvocation("admin_make_admin", "inv-4").
		WithAccount("admin@example.com").
		CompleteSuccess()

	got := attrKeys(ti.LogAuditAttrs())
	assert.Equal(t, "admin@example.com", got["account"])
	assert.NotContains(t, got, "account_domain")
}

func TestToolInvocation_WithSpanContext(t *testing.T) {
	ti := NewToolInvocation("admin_get_user", "inv-5").WithSpanContext(context.Background())
	assert.Empty(t, ti.TraceID)
	assert.Empty(t, ti.SpanID)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	ti = NewToolInvocation("admin_get_user", "inv-6").WithSpanContext(ctx)
	assert.Equal(t, span.SpanContext().TraceID().String(), ti.TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), ti.SpanID)
}

func TestAuditLogger_LogToolInvocation(t *testing.T) {
	tests := []struct {
		name        string
		includePII  bool
		success     bool
		wantMsg     string
		wantLevel   string
		wantAccount bool
	}{
		{name: "success anonymized", success: true, wantMsg: "tool_executed", wantLevel: "INFO"},
		{name: "failure anonymized", success: false, wantMsg: "tool_failed", wantLevel: "WARN"},
		{name: "success with PII", includePII: true, success: true, wantMsg: "tool_executed", wantLevel: "INFO", wantAccount: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLoggerWithConfig(newJSONLogger(&buf), AuditLoggingConfig{Enabled: true, IncludePII: tt.includePII})

			ti := NewToolInvocation("admin_get_user", "inv").WithAccount("admin@example.com")
			if tt.success {
				ti.CompleteSuccess()
			} else {
				ti.CompleteWithError("Upstream", "ServerError", "backend error")
			}
			al.LogToolInvocation(ti)

			lines := decodeLines(t, &buf)
			require.Len(t, lines, 1)
			assert.Equal(t, tt.wantMsg, lines[0]["msg"])
			assert.Equal(t, tt.wantLevel, lines[0]["level"])
			if tt.wantAccount {
				assert.Equal(t, "admin@example.com", lines[0]["account"])
			} else {
				assert.NotContains(t, lines[0], "account")
				assert.Equal(t, "example.com", lines[0]["account_domain"])
			}
		})
	}
}

func TestAuditLogger_DisabledAndNil(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(newJSONLogger(&buf))
	al.SetEnabled(false)
	al.LogToolInvocation(NewToolInvocation("admin_get_user", "inv").CompleteSuccess())
	assert.Empty(t, buf.String())

	al.SetEnabled(true)
	al.SetIncludePII(true)
	al.LogToolInvocation(NewToolInvocation("admin_get_user", "inv").WithAccount("a@example.com").CompleteSuccess())
	assert.Contains(t, buf.String(), `"account":"a@example.com"`)

	var nilLogger *AuditLogger
	assert.NotPanics(t, func() {
		nilLogger.LogToolInvocation(NewToolInvocation("admin_get_user", "inv").CompleteSuccess())
	})
}
