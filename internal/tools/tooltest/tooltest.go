// Package tooltest runs admin tools end to end in tests: through the
// Dispatcher, with a static credential, against an httptest fake of the
// Admin SDK endpoints.
package tooltest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/retry"
	"github.com/teemow/gsuiteadmin/internal/server"
)

// AdminEmail is the acting admin of every fixture call.
const AdminEmail = "admin@example.com"

// RegisterFunc is the registration entry point of a tool package.
type RegisterFunc func(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error

// Request is one request the fake API received.
type Request struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

// Fixture wires a tool package to a fake Admin SDK.
type Fixture struct {
	Mux        *http.ServeMux
	Registry   *dispatch.Registry
	Dispatcher *dispatch.Dispatcher

	mu       sync.Mutex
	requests []Request
}

// StaticCredentials grants every account the default admin scopes.
type StaticCredentials struct {
	Scopes []string
}

// GetValidCredential returns a fresh credential for email.
func (s StaticCredentials) GetValidCredential(_ context.Context, email string) (*google.Credential, error) {
	scopes := s.Scopes
	if scopes == nil {
		scopes = google.DefaultAdminScopes
	}
	return &google.Credential{
		Email:         email,
		AccessToken:   "test-access-token",
		TokenType:     "Bearer",
		Expiry:        time.Now().Add(time.Hour),
		GrantedScopes: scopes,
	}, nil
}

// New registers the tools of register against a fake API server.
func New(t testing.TB, register RegisterFunc, readOnly bool) *Fixture {
	t.Helper()

	f := &Fixture{Mux: http.NewServeMux(), Registry: dispatch.NewRegistry()}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	sc := server.NewServerContext(context.Background(), nil, nil,
		server.WithAPIOptions(
			option.WithEndpoint(srv.URL+"/"),
			option.WithHTTPClient(srv.Client()),
		))
	t.Cleanup(func() { _ = sc.Shutdown() })

	if err := register(f.Registry, sc, readOnly); err != nil {
		t.Fatalf("failed to register tools: %v", err)
	}

	policy := retry.DefaultPolicy()
	policy.BaseDelay = time.Millisecond
	policy.MaxDelay = 5 * time.Millisecond
	policy.Jitter = 0
	f.Dispatcher = dispatch.NewDispatcher(f.Registry, StaticCredentials{},
		dispatch.WithRetryPolicy(policy),
		dispatch.WithRateLimit(0, 0))
	return f
}

func (f *Fixture) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	f.Mux.ServeHTTP(w, r)
}

// Call dispatches tool as AdminEmail. args may omit user_id.
func (f *Fixture) Call(tool string, args map[string]any) (*dispatch.Result, error) {
	all := map[string]any{dispatch.UserIDArg: AdminEmail}
	for k, v := range args {
		all[k] = v
	}
	return f.Dispatcher.Dispatch(context.Background(), tool, all)
}

// Requests returns every request the fake API received.
func (f *Fixture) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// LastRequest returns the most recent request, or the zero Request.
func (f *Fixture) LastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return Request{}
	}
	return f.requests[len(f.requests)-1]
}

// Text joins the text segments of res.
func Text(res *dispatch.Result) string {
	if res == nil {
		return ""
	}
	return strings.Join(res.Text, "\n")
}

// JSON returns a handler replying with v.
func JSON(v any) http.HandlerFunc {
	return JSONStatus(http.StatusOK, v)
}

// JSONStatus returns a handler replying with status and v.
func JSONStatus(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

// APIError returns a handler replying with a Google API error body.
func APIError(status int, reason, message string) http.HandlerFunc {
	return JSONStatus(status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"errors":  []map[string]any{{"reason": reason, "message": message}},
		},
	})
}

// NoContent replies 204.
func NoContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
