package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/semaphore"

	"github.com/teemow/gsuiteadmin/internal/credstore"
	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/logging"
)

// DefaultRefreshMargin is how long before expiry a token is refreshed.
const DefaultRefreshMargin = 60 * time.Second

// defaultTokenLifetime is assumed when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// Token endpoint answers meaning the refresh token itself is no longer
// usable. Only these delete the stored credential.
var (
	revokedTokenCodes   = []string{"invalid_grant"}
	revokedTokenMarkers = []string{"invalid_grant", "token has been expired or revoked"}
)

// Token endpoint error codes that reject the OAuth client. The stored
// credential stays valid once the client configuration is fixed.
var rejectedClientCodes = []string{"invalid_client", "unauthorized_client"}

// Manager owns the lifecycle of every account's TokenSet: authorization,
// refresh and revocation. It is the only writer of the credential store.
type Manager struct {
	conf       *oauth2.Config
	store      credstore.Store
	margin     time.Duration
	httpClient *http.Client
	revokeURL  string
	now        func() time.Time
	logger     *slog.Logger
	metrics    *instrumentation.Metrics

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRefreshMargin sets how early tokens are refreshed.
func WithRefreshMargin(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.margin = d
	}
}

// WithHTTPClient sets the client used for token and revocation requests.
func WithHTTPClient(c *http.Client) ManagerOption {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// WithRevokeURL overrides Google's revocation endpoint.
func WithRevokeURL(u string) ManagerOption {
	return func(m *Manager) {
		m.revokeURL = u
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics records authorization and refresh outcomes.
func WithMetrics(metrics *instrumentation.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a Manager for the given OAuth client and store.
func NewManager(conf *oauth2.Config, store credstore.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		conf:      conf,
		store:     store,
		margin:    DefaultRefreshMargin,
		revokeURL: RevokeURL,
		now:       time.Now,
		logger:    slog.Default(),
		locks:     make(map[string]*semaphore.Weighted),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.httpClient == nil {
		m.httpClient = defaultHTTPClient()
	}
	return m
}

// Store returns the underlying credential store.
func (m *Manager) Store() credstore.Store {
	return m.store
}

// GetValidCredential returns a credential for email whose access token stays
// valid for at least the refresh margin, refreshing it if needed.
//
// Errors are *failure.Error values: NotAuthenticated when nothing is stored,
// ReauthorizationRequired when the refresh token was rejected (the record is
// deleted), CorruptCredential when the record was undecodable (deleted) and
// Transient kinds when the token endpoint was unreachable. Cancellation of
// ctx is returned unchanged.
func (m *Manager) GetValidCredential(ctx context.Context, email string) (*Credential, error) {
	ts, err := m.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if ts.FreshFor(m.now(), m.margin) {
		return newCredential(email, ts), nil
	}
	return m.refresh(ctx, email)
}

func (m *Manager) load(ctx context.Context, email string) (*credstore.TokenSet, error) {
	ts, err := m.store.Load(ctx, email)
	if err == nil {
		return ts, nil
	}

	var corrupt *credstore.CorruptError
	switch {
	case errors.Is(err, credstore.ErrNotFound):
		return nil, failure.Authentication(failure.ReasonNotAuthenticated,
			"no stored credential for %s; run 'gsuiteadmin auth %s' to authorize the account", email, email)
	case errors.As(err, &corrupt):
		m.logger.Warn("deleting corrupt credential record", logging.UserHash(email), logging.Err(corrupt.Err))
		if derr := m.store.Delete(ctx, email); derr != nil {
			m.logger.Error("failed to delete corrupt credential record", logging.UserHash(email), logging.Err(derr))
		}
		return nil, failure.Wrap(err, failure.KindInternal, failure.ReasonCorruptCredential,
			"stored credential for %s was unreadable and has been removed; re-authorize the account", email)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, failure.Wrap(err, failure.KindInternal, failure.ReasonInvariant, "failed to load credential: %v", err)
	}
}

// lockFor returns the per-account refresh semaphore, creating it on first use.
func (m *Manager) lockFor(email string) *semaphore.Weighted {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[email]
	if !ok {
		l = semaphore.NewWeighted(1)
		m.locks[email] = l
	}
	return l
}

// refresh serializes refreshes per account. A caller that waited for the
// lock re-reads the store and reuses the token the previous holder saved.
func (m *Manager) refresh(ctx context.Context, email string) (*Credential, error) {
	lock := m.lockFor(email)
	if err := lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer lock.Release(1)

	ts, err := m.load(ctx, email)
	if err != nil {
		return nil, err
	}
	if ts.FreshFor(m.now(), m.margin) {
		return newCredential(email, ts), nil
	}

	if ts.RefreshToken == "" {
		_ = m.store.Delete(ctx, email)
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultRevoked)
		return nil, failure.Authentication(failure.ReasonReauthorizationRequired,
			"credential for %s has no refresh token; re-authorize the account", email)
	}

	// An empty access token forces the oauth2 package to hit the token
	// endpoint even if the stored token is inside its own expiry delta.
	src := m.conf.TokenSource(withHTTPClient(ctx, m.httpClient), &oauth2.Token{RefreshToken: ts.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, m.refreshFailed(ctx, email, err)
	}

	next := m.merge(ts, tok)
	if err := m.store.Save(ctx, email, next); err != nil {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure.Wrap(err, failure.KindInternal, failure.ReasonInvariant,
			"refreshed token for %s could not be persisted: %v", email, err)
	}

	m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	m.logger.Debug("refreshed access token", logging.UserHash(email), slog.Time("expiry", next.Expiry))
	return newCredential(email, next), nil
}

// merge builds the TokenSet that replaces prev after a refresh. The refresh
// token and scopes are kept unless the response carries new ones.
func (m *Manager) merge(prev *credstore.TokenSet, tok *oauth2.Token) *credstore.TokenSet {
	next := prev.Clone()
	next.AccessToken = tok.AccessToken
	if tok.TokenType != "" {
		next.TokenType = tok.TokenType
	}
	if tok.RefreshToken != "" {
		next.RefreshToken = tok.RefreshToken
	}
	next.Expiry = tok.Expiry
	if next.Expiry.IsZero() {
		next.Expiry = m.now().Add(defaultTokenLifetime)
	}
	if scope, ok := tok.Extra("scope").(string); ok && strings.TrimSpace(scope) != "" {
		next.GrantedScopes = credstore.ParseScopes(scope)
	}
	return next
}

// refreshFailed maps a token endpoint failure onto the taxonomy.
func (m *Manager) refreshFailed(ctx context.Context, email string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if isClientRejected(err) {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		m.logger.Error("token endpoint rejected the OAuth client", logging.UserHash(email), logging.Err(err))
		fe := failure.Wrap(err, failure.KindAuthentication, failure.ReasonClientRejected,
			"token endpoint rejected the OAuth client while refreshing %s; check the client id and secret", email)
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			fe.StatusCode = rerr.Response.StatusCode
		}
		return fe
	}

	if isRevokedRefreshToken(err) {
		m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultRevoked)
		m.logger.Warn("refresh token rejected, deleting credential", logging.UserHash(email), logging.Err(err))
		if derr := m.store.Delete(ctx, email); derr != nil {
			m.logger.Error("failed to delete rejected credential", logging.UserHash(email), logging.Err(derr))
		}
		return failure.Wrap(err, failure.KindAuthentication, failure.ReasonReauthorizationRequired,
			"refresh token for %s was revoked or expired; run 'gsuiteadmin auth %s' to re-authorize", email, email)
	}

	m.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
	m.logger.Warn("token refresh failed", logging.UserHash(email), logging.Err(err))

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) && rerr.Response != nil {
		status := rerr.Response.StatusCode
		kind, reason := failure.KindTransient, failure.ReasonServerError
		switch {
		case status == http.StatusTooManyRequests:
			kind, reason = failure.KindRateLimited, failure.ReasonRateLimitExceeded
		case status >= 400 && status < 500:
			kind, reason = failure.KindAuthentication, failure.ReasonTokenRejected
		}
		fe := failure.Wrap(err, kind, reason, "token endpoint returned %d while refreshing %s", status, email)
		fe.StatusCode = status
		fe.RetryAfter = failure.RetryDelay(rerr.Response.Header, string(rerr.Body))
		return fe
	}

	classified := failure.Classify(err)
	if fe, ok := failure.As(classified); ok && fe.Kind == failure.KindInternal {
		// Anything that is not an OAuth error response is a transport problem.
		return failure.Wrap(err, failure.KindTransient, failure.ReasonNetwork, "token refresh for %s failed: %v", email, err)
	}
	return classified
}

func isRevokedRefreshToken(err error) bool {
	if retrieveErrorCodeIn(err, revokedTokenCodes) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range revokedTokenMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isClientRejected(err error) bool {
	return retrieveErrorCodeIn(err, rejectedClientCodes)
}

func retrieveErrorCodeIn(err error, codes []string) bool {
	var rerr *oauth2.RetrieveError
	if !errors.As(err, &rerr) {
		return false
	}
	for _, code := range codes {
		if rerr.ErrorCode == code {
			return true
		}
	}
	return false
}

// AuthCodeURL returns the consent URL for email. Offline access and forced
// consent make Google issue a refresh token every time.
func (m *Manager) AuthCodeURL(state, email string) string {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline, oauth2.ApprovalForce}
	if email != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", email))
	}
	return m.conf.AuthCodeURL(state, opts...)
}

// AuthorizeNewAccount exchanges an authorization code and persists the
// resulting TokenSet. If Google granted fewer scopes than requested nothing
// is stored and ScopeDenied is returned.
func (m *Manager) AuthorizeNewAccount(ctx context.Context, email, code string, requested []string) (*credstore.TokenSet, error) {
	if strings.TrimSpace(code) == "" {
		return nil, failure.InvalidArgument("code", "authorization code is empty")
	}
	if len(requested) == 0 {
		requested = m.conf.Scopes
	}

	tok, err := m.conf.Exchange(withHTTPClient(ctx, m.httpClient), strings.TrimSpace(code))
	if err != nil {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure.Wrap(err, failure.KindAuthentication, failure.ReasonNotAuthenticated,
			"authorization code exchange for %s failed: %v", email, err)
	}

	granted := requested
	if scope, ok := tok.Extra("scope").(string); ok {
		granted = credstore.ParseScopes(scope)
	}

	ts := &credstore.TokenSet{
		AccessToken:   tok.AccessToken,
		RefreshToken:  tok.RefreshToken,
		TokenType:     tok.TokenType,
		Expiry:        tok.Expiry,
		GrantedScopes: granted,
	}
	if ts.Expiry.IsZero() {
		ts.Expiry = m.now().Add(defaultTokenLifetime)
	}

	if missing := ts.MissingScopes(requested); len(missing) > 0 {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultScopeDenied)
		fe := failure.Authentication(failure.ReasonScopeDenied,
			"consent for %s did not grant required scopes: %s", email, strings.Join(missing, ", "))
		return nil, fe
	}
	if ts.RefreshToken == "" {
		m.logger.Warn("token response carried no refresh token; the account must be re-authorized when it expires",
			logging.UserHash(email))
	}

	if err := m.store.Save(ctx, email, ts); err != nil {
		m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return nil, fmt.Errorf("failed to store credential for %s: %w", email, err)
	}

	m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	m.logger.Info("account authorized", logging.UserHash(email), slog.Int("scopes", len(ts.GrantedScopes)))
	return ts, nil
}

// Status describes the stored credential of one account without exposing
// token material.
type Status struct {
	Email         string    `json:"email"`
	HasCredential bool      `json:"has_credential"`
	Expiry        time.Time `json:"expiry,omitempty"`
	Expired       bool      `json:"expired"`
	Refreshable   bool      `json:"refreshable"`
	Scopes        []string  `json:"scopes,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// Status reports the credential state of email. It never refreshes.
func (m *Manager) Status(ctx context.Context, email string) Status {
	st := Status{Email: email}
	ts, err := m.store.Load(ctx, email)
	switch {
	case err == nil:
		st.HasCredential = true
		st.Expiry = ts.Expiry
		st.Expired = !ts.FreshFor(m.now(), 0)
		st.Refreshable = ts.RefreshToken != ""
		st.Scopes = ts.GrantedScopes
	case errors.Is(err, credstore.ErrNotFound):
	default:
		st.Error = err.Error()
	}
	return st
}
