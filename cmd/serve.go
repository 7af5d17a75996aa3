package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/logging"
	"github.com/teemow/gsuiteadmin/internal/resources"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/google_tools"
)

// Transport names accepted by --transport.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	transport        string
	httpAddr         string
	debug            bool
	readOnly         bool
	disableStreaming bool
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing the Google Workspace
Admin SDK as admin_* tools.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

Every tool call must pass user_id, the configured administrator account to
act as. Authorize accounts first with 'gsuiteadmin auth <email>'.

Safety:
  Destructive tools (deleting users, wiping devices, granting admin roles...)
  refuse to run unless the call sets confirm=true. With --read-only only
  tools without side effects are registered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyMetricsEnv(cmd, &opts.metrics)
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Register only tools without side effects")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port (streamable-http only). Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyMetricsEnv lets METRICS_ENABLED and METRICS_ADDR stand in for flags
// that were not set explicitly.
func applyMetricsEnv(cmd *cobra.Command, cfg *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				cfg.Enabled = enabled
			}
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.Addr = addr
		}
	}
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	a, err := loadApp(appOptions{debug: opts.debug, metrics: metrics})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("error closing credential store", logging.Err(err))
		}
	}()
	if a.accounts.Len() == 0 {
		return fmt.Errorf("no accounts configured in %s", a.settings.AccountsFile)
	}

	var audit *instrumentation.AuditLogger
	if provider.Enabled() && instrConfig.AuditLogging.Enabled {
		audit = instrumentation.NewAuditLoggerWithConfig(a.logger, instrConfig.AuditLogging)
	}

	serverContext := server.NewServerContext(shutdownCtx, a.manager, a.accounts,
		server.WithLogger(a.logger),
		server.WithMetrics(metrics),
		server.WithAuditLogger(audit),
	)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			a.logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv, dispatcher, err := buildMCPServer(a, serverContext, opts.readOnly)
	if err != nil {
		return err
	}

	a.logger.Info("MCP server configured",
		slog.String("transport", opts.transport),
		slog.Bool("read_only", opts.readOnly),
		slog.Int("tools", dispatcher.Registry().Len()),
		slog.Int("accounts", a.accounts.Len()))

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts, provider)
	}
}

// buildMCPServer registers the admin tools and the accounts resource and
// binds them to a new MCP server through the dispatcher.
func buildMCPServer(a *app, sc *server.ServerContext, readOnly bool) (*mcpserver.MCPServer, *dispatch.Dispatcher, error) {
	registry := dispatch.NewRegistry()
	if err := google_tools.RegisterAdminTools(registry, sc, readOnly); err != nil {
		return nil, nil, err
	}

	dispatcher := dispatch.NewDispatcher(registry, a.manager,
		dispatch.WithRetryPolicy(a.settings.Retry.Policy()),
		dispatch.WithCallTimeout(a.settings.Dispatch.CallTimeout),
		dispatch.WithRateLimit(a.settings.Dispatch.RatePerSecond, a.settings.Dispatch.RateBurst),
		dispatch.WithLogger(a.logger),
		dispatch.WithMetrics(sc.Metrics()),
		dispatch.WithAuditLogger(sc.AuditLogger()),
	)

	mcpSrv := mcpserver.NewMCPServer("gsuiteadmin", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	dispatch.Bind(mcpSrv, dispatcher)

	if err := resources.RegisterAccountResources(mcpSrv, sc); err != nil {
		return nil, nil, fmt.Errorf("failed to register account resources: %w", err)
	}
	return mcpSrv, dispatcher, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions, provider *instrumentation.Provider) error {
	logger := sc.Logger()

	var metricsServer *server.MetricsServer
	if opts.metrics.Enabled && provider.Enabled() && provider.MetricsHandler() == nil {
		logger.Info("metrics are pushed by the configured exporter; not starting the metrics server")
	}
	if opts.metrics.Enabled && provider.Enabled() && provider.MetricsHandler() != nil {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             opts.httpAddr,
		DisableStreaming: opts.disableStreaming,
		Health:           server.NewHealthChecker(sc),
		Logger:           logger,
		Metrics:          sc.Metrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
