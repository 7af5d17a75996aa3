package instrumentation

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Exporter names accepted by METRICS_EXPORTER and TRACING_EXPORTER.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// Defaults applied by ConfigFromEnv and NewProvider.
const (
	DefaultServiceName       = "gsuiteadmin"
	DefaultMetricsPath       = "/metrics"
	DefaultMetricInterval    = 10 * time.Second
	DefaultTraceSamplingRate = 0.1
)

// Config holds the configuration for OpenTelemetry instrumentation.
type Config struct {
	ServiceName    string
	ServiceVersion string

	// InstanceID identifies this process in telemetry backends. Empty means
	// the hostname.
	InstanceID string

	// Enabled turns metrics, tracing and audit logging on as a whole.
	Enabled bool

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string

	// OTLPEndpoint is host:port of the OTLP/HTTP collector, without scheme.
	OTLPEndpoint string

	// OTLPInsecure disables TLS towards the collector. Spans carry tool
	// names and account domains, so keep this off outside development.
	OTLPInsecure bool

	TraceSamplingRate float64

	// MetricsPath is where the metrics server exposes Prometheus metrics.
	MetricsPath string

	// MetricInterval is the push interval of the otlp and stdout metric
	// exporters.
	MetricInterval time.Duration

	// AccountLabels adds the acting account as a metric label. It grows
	// series with every configured account.
	AccountLabels bool

	// ConsoleWriter receives the stdout exporters' output. Standard output
	// carries the MCP stdio transport, so nil means os.Stderr.
	ConsoleWriter io.Writer

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	Enabled bool

	// IncludePII keeps full admin addresses in audit records. Otherwise
	// only the account domain is written.
	IncludePII bool

	// LogLevel is the slog level of audit records: debug, info, warn or error.
	LogLevel string
}

// LookupFunc reads one environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// DefaultConfig returns the configuration described by the process
// environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv builds a Config from lookup. Unset, empty and unparsable
// values fall back to the defaults.
func ConfigFromEnv(lookup LookupFunc) Config {
	env := envReader(lookup)
	return Config{
		ServiceName:       env.str("OTEL_SERVICE_NAME", DefaultServiceName),
		ServiceVersion:    "unknown",
		InstanceID:        env.str("OTEL_SERVICE_INSTANCE_ID", ""),
		Enabled:           env.boolean("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:   env.str("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:   env.str("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:      env.str("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:      env.boolean("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate: env.float("OTEL_TRACES_SAMPLER_ARG", DefaultTraceSamplingRate),
		MetricsPath:       env.str("METRICS_PATH", DefaultMetricsPath),
		MetricInterval:    env.millis("OTEL_METRIC_EXPORT_INTERVAL", DefaultMetricInterval),
		AccountLabels:     env.boolean("METRICS_ACCOUNT_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    env.boolean("AUDIT_LOGGING_ENABLED", true),
			IncludePII: env.boolean("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   env.str("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case ExporterPrometheus, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("OTLP endpoint is required for the otlp metrics exporter; set OTEL_EXPORTER_OTLP_ENDPOINT")
		}
	default:
		return fmt.Errorf("unsupported metrics exporter %q (supported: prometheus, otlp, stdout)", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case ExporterNone, ExporterStdout:
	case ExporterOTLP:
		if c.OTLPEndpoint == "" {
			return fmt.Errorf("OTLP endpoint is required for the otlp tracing exporter; set OTEL_EXPORTER_OTLP_ENDPOINT")
		}
	default:
		return fmt.Errorf("unsupported tracing exporter %q (supported: otlp, stdout, none)", c.TracingExporter)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = DefaultMetricInterval
	}
	if c.ConsoleWriter == nil {
		c.ConsoleWriter = os.Stderr
	}
	return c
}

type envReader LookupFunc

func (e envReader) str(key, def string) string {
	if v, ok := e(key); ok && v != "" {
		return v
	}
	return def
}

func (e envReader) boolean(key string, def bool) bool {
	if v, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return v
	}
	return def
}

func (e envReader) float(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(e.str(key, ""), 64); err == nil {
		return v
	}
	return def
}

// millis reads an integer millisecond count, the unit of the OTEL_*
// interval variables.
func (e envReader) millis(key string, def time.Duration) time.Duration {
	if v, err := strconv.Atoi(e.str(key, "")); err == nil && v > 0 {
		return time.Duration(v) * time.Millisecond
	}
	return def
}
