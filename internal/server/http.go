package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gsuiteadmin/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is served.
const MCPEndpointPath = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	Addr             string
	DisableStreaming bool
	Health           *HealthChecker
	Logger           *slog.Logger

	// Metrics records every request served on the port. Nil disables it.
	Metrics *instrumentation.Metrics
}

// HTTPServer serves the MCP endpoint and the health endpoints on one port.
// It carries no inbound authentication: every tool call names the account
// it acts as, so the listener belongs on a trusted network.
type HTTPServer struct {
	config  HTTPServerConfig
	handler http.Handler

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewHTTPServer builds the streamable HTTP transport around mcpSrv.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpSrv == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if config.Addr == "" {
		return nil, fmt.Errorf("listen address is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpointPath)}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv, opts...)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, streamable)
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{config: config, handler: instrumentHTTP(mux, config.Metrics)}, nil
}

// knownRoutes bounds the path label of HTTP metrics.
var knownRoutes = map[string]bool{
	MCPEndpointPath:     true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
}

func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

func instrumentHTTP(next http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, routeLabel(r.URL.Path), m.Code, m.Duration)
	})
}

// Handler returns the server mux.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start listens and serves until Shutdown. It returns nil after a graceful
// shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	// No WriteTimeout: streamed responses stay open for the whole call.
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.config.Logger.Info("starting streamable HTTP server",
		slog.String("addr", ln.Addr().String()),
		slog.String("endpoint", MCPEndpointPath))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains open connections.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.config.Health != nil {
		s.config.Health.SetReady(false)
	}

	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the bound address once started, the configured one before.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}
