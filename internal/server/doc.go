// Package server holds the shared runtime of the MCP server.
//
// ServerContext carries the OAuth manager, the configured admin accounts,
// instrumentation and a per-account cache of Admin SDK clients. A cached
// client embeds the access token it was built with and is rebuilt when the
// manager hands out a refreshed token.
//
// HTTPServer is the streamable HTTP transport. HealthChecker serves
// /healthz, /readyz and /healthz/detailed on the same listener, and
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
