package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/logging"
	"github.com/teemow/gsuiteadmin/internal/retry"
)

// DefaultCallTimeout bounds a single attempt of an upstream call.
const DefaultCallTimeout = 30 * time.Second

// unknownToolLabel replaces unregistered tool names in metric labels.
const unknownToolLabel = "unknown"

// Dispatcher is the single entry point for tool calls.
type Dispatcher struct {
	registry    *Registry
	creds       google.CredentialProvider
	policy      retry.Policy
	callTimeout time.Duration
	limiters    *limiterSet
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	audit       *instrumentation.AuditLogger
	newID       func() string
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithCallTimeout bounds each attempt. Zero disables the bound.
func WithCallTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		d.callTimeout = t
	}
}

// WithRateLimit limits calls per account. A non-positive rate disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(d *Dispatcher) {
		if perSecond <= 0 {
			d.limiters = nil
			return
		}
		d.limiters = newLimiterSet(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithMetrics records dispatch metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithAuditLogger records an audit entry per dispatch.
func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(d *Dispatcher) {
		d.audit = a
	}
}

// NewDispatcher creates a Dispatcher for the tools in registry.
func NewDispatcher(registry *Registry, creds google.CredentialProvider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		creds:       creds,
		policy:      retry.DefaultPolicy(),
		callTimeout: DefaultCallTimeout,
		logger:      slog.Default(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher resolves tools from.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs tool with args. A returned error is a *failure.Error, or the
// context error when ctx was cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, tool string, args map[string]any) (*Result, error) {
	inv := &Invocation{
		ID:        d.newID(),
		Tool:      tool,
		Arguments: Arguments(args),
	}
	if inv.Arguments == nil {
		inv.Arguments = Arguments{}
	}

	start := time.Now()
	ctx, span := instrumentation.StartToolSpan(ctx, tool, inv.ID)
	defer span.End()

	d.metrics.IncrementInFlight(ctx)
	defer d.metrics.DecrementInFlight(ctx)

	desc, res, err := d.dispatch(ctx, inv)
	d.record(ctx, span, inv, desc, start, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, inv *Invocation) (*ToolDescriptor, *Result, error) {
	desc, ok := d.registry.Lookup(inv.Tool)
	if !ok {
		return nil, nil, failure.Validation(failure.ReasonUnknownTool, "", "unknown tool %q", inv.Tool)
	}

	if err := validateArguments(desc.Tool.InputSchema, inv.Arguments); err != nil {
		return desc, nil, err
	}

	userID := inv.Arguments.String(UserIDArg)
	if userID == "" {
		return desc, nil, failure.Validation(failure.ReasonMissingUserID, UserIDArg,
			"%s is required and must name the acting admin account", UserIDArg)
	}
	inv.UserID = userID
	instrumentation.SetSpanAccount(trace.SpanFromContext(ctx), userID)

	if desc.Confirm != nil && desc.Confirm(inv.Arguments) && !inv.Arguments.Bool(ConfirmArg, false) {
		return desc, nil, failure.Validation(failure.ReasonConfirmationRequired, ConfirmArg,
			"%s is destructive; set %s to true to proceed", inv.Tool, ConfirmArg)
	}

	cred, err := d.credential(ctx, desc, userID)
	if err != nil {
		return desc, nil, d.normalize(ctx, err)
	}

	if d.limiters != nil {
		if err := d.limiters.get(userID).Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return desc, nil, ctx.Err()
			}
			return desc, nil, failure.Wrap(err, failure.KindRateLimited, failure.ReasonRateLimitExceeded,
				"client-side rate limit for %s: %v", userID, err)
		}
	}

	res, err := d.execute(ctx, desc, inv, cred)
	if err != nil {
		return desc, nil, d.normalize(ctx, err)
	}
	return desc, res, nil
}

// credential returns a valid credential for userID that carries every scope
// the tool needs.
func (d *Dispatcher) credential(ctx context.Context, desc *ToolDescriptor, userID string) (*google.Credential, error) {
	cred, err := d.creds.GetValidCredential(ctx, userID)
	if err != nil {
		return nil, err
	}
	if missing := cred.MissingScopes(desc.RequiredScopes); len(missing) > 0 {
		return nil, failure.Authentication(failure.ReasonInsufficientScope,
			"account %s was not granted %s; re-authorize it with 'gsuiteadmin auth %s'",
			userID, strings.Join(missing, ", "), userID)
	}
	return cred, nil
}

// execute runs the handler under the retry policy, each attempt bounded by
// the call timeout. Retries re-fetch the credential because a backoff can
// outlast the refresh margin.
func (d *Dispatcher) execute(ctx context.Context, desc *ToolDescriptor, inv *Invocation, cred *google.Credential) (*Result, error) {
	policy := d.policy
	hook := policy.OnRetry
	policy.OnRetry = func(ctx context.Context, ev retry.Event) {
		d.metrics.RecordRetry(ctx, inv.Tool, ev.Err.Kind.String())
		instrumentation.AddRetryEvent(ctx, ev.Attempt, ev.Err.Kind.String(), ev.Delay)
		d.logger.Warn("retrying tool call",
			logging.Tool(inv.Tool),
			logging.Invocation(inv.ID),
			logging.Attempt(ev.Attempt),
			logging.Kind(ev.Err.Kind),
			logging.Delay(ev.Delay),
			logging.Err(ev.Err))
		if hook != nil {
			hook(ctx, ev)
		}
	}

	var res *Result
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		inv.Attempt = attempt
		if attempt > 1 {
			fresh, err := d.credential(ctx, desc, inv.UserID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return err
			}
			cred = fresh
		}

		attemptCtx, cancel := d.attemptContext(ctx)
		defer cancel()
		attemptCtx, span := instrumentation.StartAttemptSpan(attemptCtx, inv.Tool, attempt)
		defer span.End()

		r, err := desc.Handler.Execute(attemptCtx, inv, cred)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			classified := failure.Classify(err)
			instrumentation.SetSpanError(span, classified)
			return classified
		}
		if r == nil {
			r = &Result{}
		}
		res = r
		instrumentation.SetSpanSuccess(span)
		return nil
	})
	return res, err
}

func (d *Dispatcher) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.callTimeout)
}

// normalize guarantees the error leaving Dispatch is either the caller's
// context error or a *failure.Error.
func (d *Dispatcher) normalize(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctxErr
	}
	if fe, ok := failure.As(err); ok {
		return fe
	}
	classified := failure.Classify(err)
	if fe, ok := failure.As(classified); ok {
		return fe
	}
	return classified
}

func (d *Dispatcher) record(ctx context.Context, span trace.Span, inv *Invocation, desc *ToolDescriptor, start time.Time, err error) {
	duration := time.Since(start)

	toolLabel := inv.Tool
	category := ""
	if desc == nil {
		toolLabel = unknownToolLabel
	} else {
		category = desc.Category
	}

	audit := instrumentation.NewToolInvocation(inv.Tool, inv.ID).
		WithAccount(inv.UserID).
		WithCategory(category).
		WithAttempts(inv.Attempt).
		WithSpanContext(ctx)

	logger := d.logger.With(
		logging.Tool(inv.Tool),
		logging.Invocation(inv.ID),
		logging.UserHash(inv.UserID),
		slog.Duration("duration", duration),
	)

	if err == nil {
		instrumentation.SetSpanSuccess(span)
		d.metrics.RecordToolInvocation(ctx, toolLabel, instrumentation.StatusSuccess, inv.UserID, duration)
		d.audit.LogToolInvocation(audit.CompleteSuccess())
		logger.Debug("tool call succeeded", logging.Attempt(inv.Attempt))
		return
	}

	kind, reason := "Canceled", ""
	if fe, ok := failure.As(err); ok {
		kind, reason = fe.Kind.String(), string(fe.Reason)
	}
	instrumentation.SetSpanFailure(span, kind, reason, err)

	d.metrics.RecordToolInvocation(ctx, toolLabel, instrumentation.StatusError, inv.UserID, duration)
	d.metrics.RecordDispatchError(ctx, toolLabel, kind)
	d.audit.LogToolInvocation(audit.CompleteWithError(kind, reason, err.Error()))
	logger.Warn("tool call failed",
		slog.String(logging.KeyKind, kind),
		logging.Reason(reason),
		logging.Attempt(inv.Attempt),
		logging.Err(err))
}
