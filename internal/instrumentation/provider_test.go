package instrumentation

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name           string
		config         Config
		wantEnabled    bool
		wantPrometheus bool
		errContains    string
	}{
		{
			name:   "disabled",
			config: Config{Enabled: false},
		},
		{
			name:           "prometheus metrics",
			config:         Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
			wantEnabled:    true,
			wantPrometheus: true,
		},
		{
			name:        "stdout metrics and traces",
			config:      Config{Enabled: true, MetricsExporter: ExporterStdout, TracingExporter: ExporterStdout},
			wantEnabled: true,
		},
		{
			name:        "unsupported metrics exporter",
			config:      Config{Enabled: true, MetricsExporter: "statsd", TracingExporter: ExporterNone},
			errContains: "unsupported metrics exporter",
		},
		{
			name:        "unsupported tracing exporter",
			config:      Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: "jaeger"},
			errContains: "unsupported tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tt.config.ServiceName = "gsuiteadmin-test"
			tt.config.ServiceVersion = "1.0.0"
			tt.config.ConsoleWriter = io.Discard

			provider, err := NewProvider(ctx, tt.config)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, provider.Shutdown(ctx)) }()

			assert.Equal(t, tt.wantEnabled, provider.Enabled())
			assert.NotNil(t, provider.Metrics(), "metrics must be usable even when disabled")
			assert.NotNil(t, provider.Tracer("test"))
			assert.Equal(t, DefaultMetricsPath, provider.MetricsPath())
			if tt.wantPrometheus {
				assert.NotNil(t, provider.MetricsHandler())
			} else {
				assert.Nil(t, provider.MetricsHandler())
			}
		})
	}
}

func TestProvider_DisabledMetricsAreNoOps(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		provider.Metrics().RecordToolInvocation(context.Background(), "admin_get_user", StatusSuccess, "a@example.com", time.Millisecond)
	})
}

func TestProvider_PrometheusExposition(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
		MetricsPath:     "/internal/metrics",
	})
	require.NoError(t, err)
	defer func() { _ = provider.Shutdown(ctx) }()

	provider.Metrics().RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)

	rec := httptest.NewRecorder()
	provider.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oauth_token_refresh_total")
	assert.Equal(t, "/internal/metrics", provider.MetricsPath())
}

func TestProvider_ConsoleExportersUseWriter(t *testing.T) {
	var out bytes.Buffer
	ctx := context.Background()
	provider, err := NewProvider(ctx, Config{
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
		ConsoleWriter:     &out,
	})
	require.NoError(t, err)

	_, span := provider.Tracer("test").Start(ctx, "tool.admin_get_user")
	span.End()

	require.NoError(t, provider.Shutdown(ctx))
	assert.Contains(t, out.String(), "tool.admin_get_user")
}
