package server

import (
	"context"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/datatransfer"
	"github.com/teemow/gsuiteadmin/internal/directory"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/reports"
)

// ServerContext holds the shared dependencies of the MCP server: the OAuth
// manager, the configured accounts, instrumentation and per-account Admin
// SDK clients.
type ServerContext struct {
	ctx        context.Context
	cancel     context.CancelFunc
	manager    *google.Manager
	accounts   *config.Accounts
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	audit      *instrumentation.AuditLogger
	apiOptions []option.ClientOption

	directory *clientCache[*directory.Client]
	reports   *clientCache[*reports.Client]
	transfer  *clientCache[*datatransfer.Client]

	mu       sync.RWMutex
	shutdown bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ContextOption {
	return func(sc *ServerContext) {
		sc.logger = l
	}
}

// WithMetrics sets the metrics recorder. Nil disables metrics.
func WithMetrics(m *instrumentation.Metrics) ContextOption {
	return func(sc *ServerContext) {
		sc.metrics = m
	}
}

// WithAuditLogger sets the audit logger. Nil disables audit logging.
func WithAuditLogger(a *instrumentation.AuditLogger) ContextOption {
	return func(sc *ServerContext) {
		sc.audit = a
	}
}

// WithAPIOptions appends options to every Admin SDK client the context
// builds, for example an endpoint override in tests.
func WithAPIOptions(opts ...option.ClientOption) ContextOption {
	return func(sc *ServerContext) {
		sc.apiOptions = append(sc.apiOptions, opts...)
	}
}

// NewServerContext creates a new server context. manager may be nil for
// tools that never reach the OAuth manager directly.
func NewServerContext(ctx context.Context, manager *google.Manager, accounts *config.Accounts, opts ...ContextOption) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		manager:   manager,
		accounts:  accounts,
		logger:    slog.Default(),
		directory: newClientCache(directory.NewClient),
		reports:   newClientCache(reports.NewClient),
		transfer:  newClientCache(datatransfer.NewClient),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Manager returns the OAuth manager.
func (sc *ServerContext) Manager() *google.Manager {
	return sc.manager
}

// Accounts returns the configured accounts.
func (sc *ServerContext) Accounts() *config.Accounts {
	return sc.accounts
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, or nil when auditing is disabled.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

// Directory returns the Directory client for cred, building it when the
// account has no client yet or its access token changed.
func (sc *ServerContext) Directory(cred *google.Credential) (*directory.Client, error) {
	return sc.directory.get(sc.ctx, cred, sc.apiOptions)
}

// Reports returns the Reports client for cred.
func (sc *ServerContext) Reports(cred *google.Credential) (*reports.Client, error) {
	return sc.reports.get(sc.ctx, cred, sc.apiOptions)
}

// DataTransfer returns the Data Transfer client for cred.
func (sc *ServerContext) DataTransfer(cred *google.Credential) (*datatransfer.Client, error) {
	return sc.transfer.get(sc.ctx, cred, sc.apiOptions)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops every cached client.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	sc.directory.reset()
	sc.reports.reset()
	sc.transfer.reset()
	return nil
}

// clientCache keeps one API client per account. A client embeds a static
// access token, so an entry is rebuilt when the token changes.
type clientCache[T any] struct {
	build func(context.Context, *google.Credential, ...option.ClientOption) (T, error)

	mu      sync.Mutex
	entries map[string]cacheEntry[T]
}

type cacheEntry[T any] struct {
	accessToken string
	client      T
}

func newClientCache[T any](build func(context.Context, *google.Credential, ...option.ClientOption) (T, error)) *clientCache[T] {
	return &clientCache[T]{build: build, entries: make(map[string]cacheEntry[T])}
}

func (c *clientCache[T]) get(ctx context.Context, cred *google.Credential, opts []option.ClientOption) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[cred.Email]; ok && e.accessToken == cred.AccessToken {
		return e.client, nil
	}
	client, err := c.build(ctx, cred, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	c.entries[cred.Email] = cacheEntry[T]{accessToken: cred.AccessToken, client: client}
	return client, nil
}

func (c *clientCache[T]) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
