// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the gsuiteadmin MCP server.
//
// # Metrics
//
// Metrics recorded by the dispatcher and the OAuth manager:
//
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: per tool and status
//   - dispatch_in_flight: tool calls currently being dispatched
//   - dispatch_retries_total, dispatch_errors_total: per tool and failure kind
//   - google_api_operations_total, google_api_operation_duration_seconds:
//     Admin SDK calls per service, operation and status
//   - oauth_auth_total, oauth_token_refresh_total: credential lifecycle results
//   - http_requests_total, http_request_duration_seconds: streamable HTTP transport
//
// The acting account is only a label when METRICS_ACCOUNT_LABELS is set.
// Spans and default log records carry the account's domain instead.
//
// # Tracing
//
// Every dispatch opens a tool.<name> server span, each handler attempt an
// attempt.<name> child, and each Admin SDK request a google.<service>.<op>
// client span. Backoff sleeps appear as retry_scheduled events on the tool
// span.
//
// # Configuration
//
// ConfigFromEnv reads:
//
//   - INSTRUMENTATION_ENABLED (default true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_SERVICE_NAME (default gsuiteadmin), OTEL_SERVICE_INSTANCE_ID
//   - OTEL_TRACES_SAMPLER_ARG (default 0.1)
//   - OTEL_METRIC_EXPORT_INTERVAL in milliseconds (default 10000)
//   - METRICS_PATH (default /metrics), METRICS_ACCOUNT_LABELS
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII, AUDIT_LOGGING_LEVEL
//
// The stdout exporters write to Config.ConsoleWriter, stderr by default,
// so they never interleave with the stdio transport.
//
// Prometheus metrics live in a registry owned by the Provider and are
// served by Provider.MetricsHandler:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//	mux.Handle(provider.MetricsPath(), provider.MetricsHandler())
package instrumentation
