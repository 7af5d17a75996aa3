package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/retry"
)

const (
	adminEmail = "admin@example.com"
	scopeUsers = "https://www.googleapis.com/auth/admin.directory.user"
	scopeGroup = "https://www.googleapis.com/auth/admin.directory.group"
)

type fakeCredentials struct {
	mu     sync.Mutex
	calls  int
	scopes []string
	err    error
}

func (f *fakeCredentials) GetValidCredential(ctx context.Context, email string) (*google.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &google.Credential{
		Email:         email,
		AccessToken:   fmt.Sprintf("access-%d", f.calls),
		TokenType:     "Bearer",
		Expiry:        time.Now().Add(time.Hour),
		GrantedScopes: f.scopes,
	}, nil
}

func (f *fakeCredentials) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingHandler struct {
	calls atomic.Int32
	fn    HandlerFunc
}

func (h *countingHandler) Execute(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
	h.calls.Add(1)
	if h.fn == nil {
		return TextResult("ok:" + cred.Email), nil
	}
	return h.fn(ctx, inv, cred)
}

func fastPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 5 * time.Millisecond
	p.Jitter = 0
	return p
}

func getUserTool() mcp.Tool {
	return mcp.NewTool("admin_get_user",
		mcp.WithDescription("Get a user"),
		mcp.WithString(UserIDArg, mcp.Required()),
		mcp.WithString("target_user", mcp.Required()),
		mcp.WithNumber("max_results"),
		mcp.WithString("order_by", mcp.Enum("email", "givenName")),
	)
}

func deleteUserTool() mcp.Tool {
	return mcp.NewTool("admin_delete_user",
		mcp.WithDescription("Delete a user"),
		mcp.WithString(UserIDArg, mcp.Required()),
		mcp.WithString("target_user", mcp.Required()),
		mcp.WithBoolean(ConfirmArg),
	)
}

type fixture struct {
	dispatcher *Dispatcher
	creds      *fakeCredentials
	getUser    *countingHandler
	deleteUser *countingHandler
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		creds:      &fakeCredentials{scopes: []string{scopeUsers}},
		getUser:    &countingHandler{},
		deleteUser: &countingHandler{},
	}

	reg := NewRegistry()
	require.NoError(t, reg.Register(ToolDescriptor{
		Tool:           getUserTool(),
		RequiredScopes: []string{scopeUsers},
		Category:       "users",
		ReadOnly:       true,
		Handler:        f.getUser,
	}))
	require.NoError(t, reg.Register(ToolDescriptor{
		Tool:           deleteUserTool(),
		RequiredScopes: []string{scopeUsers},
		Category:       "users",
		Confirm:        AlwaysConfirm,
		Handler:        f.deleteUser,
	}))

	opts = append([]Option{WithRetryPolicy(fastPolicy()), WithRateLimit(0, 0)}, opts...)
	f.dispatcher = NewDispatcher(reg, f.creds, opts...)
	return f
}

func args(kv ...any) map[string]any {
	m := map[string]any{UserIDArg: adminEmail}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func requireFailure(t *testing.T, err error, kind failure.Kind, reason failure.Reason) *failure.Error {
	t.Helper()
	require.Error(t, err)
	fe, ok := failure.As(err)
	require.True(t, ok, "expected *failure.Error, got %T: %v", err, err)
	assert.Equal(t, kind, fe.Kind)
	assert.Equal(t, reason, fe.Reason)
	return fe
}

func TestDispatch_Success(t *testing.T) {
	f := newFixture(t)

	res, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok:" + adminEmail}, res.Text)
	assert.Equal(t, 1, f.creds.Calls())
}

func TestDispatch_UnknownToolTouchesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_nope", args())
	requireFailure(t, err, failure.KindValidation, failure.ReasonUnknownTool)
	assert.Equal(t, 0, f.creds.Calls())
}

func TestDispatch_SchemaMismatch(t *testing.T) {
	tests := []struct {
		name  string
		args  map[string]any
		field string
	}{
		{
			name:  "missing required",
			args:  args(),
			field: "target_user",
		},
		{
			name:  "null required",
			args:  args("target_user", nil),
			field: "target_user",
		},
		{
			name:  "wrong type",
			args:  args("target_user", 42.0),
			field: "target_user",
		},
		{
			name:  "number as string",
			args:  args("target_user", "jane@example.com", "max_results", "ten"),
			field: "max_results",
		},
		{
			name:  "enum violation",
			args:  args("target_user", "jane@example.com", "order_by", "age"),
			field: "order_by",
		},
		{
			name:  "user_id not a string",
			args:  map[string]any{UserIDArg: 7.0, "target_user": "jane@example.com"},
			field: UserIDArg,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", tt.args)
			fe := requireFailure(t, err, failure.KindValidation, failure.ReasonSchemaMismatch)
			assert.Equal(t, tt.field, fe.Field)
			assert.Contains(t, fe.Message, tt.field)
			assert.Equal(t, 0, f.creds.Calls())
			assert.Equal(t, int32(0), f.getUser.calls.Load())
		})
	}
}

func TestDispatch_MissingUserID(t *testing.T) {
	for name, a := range map[string]map[string]any{
		"absent": {"target_user": "jane@example.com"},
		"empty":  {UserIDArg: "  ", "target_user": "jane@example.com"},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", a)
			requireFailure(t, err, failure.KindValidation, failure.ReasonMissingUserID)
			assert.Equal(t, 0, f.creds.Calls())
		})
	}
}

func TestDispatch_ConfirmationRequired(t *testing.T) {
	tests := []struct {
		name    string
		confirm any
		wantErr bool
	}{
		{name: "omitted", confirm: nil, wantErr: true},
		{name: "false", confirm: false, wantErr: true},
		{name: "true", confirm: true, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := args("target_user", "jane@example.com")
			if tt.confirm != nil {
				a[ConfirmArg] = tt.confirm
			}

			_, err := f.dispatcher.Dispatch(context.Background(), "admin_delete_user", a)
			if tt.wantErr {
				requireFailure(t, err, failure.KindValidation, failure.ReasonConfirmationRequired)
				assert.Equal(t, int32(0), f.deleteUser.calls.Load())
				assert.Equal(t, 0, f.creds.Calls())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int32(1), f.deleteUser.calls.Load())
		})
	}
}

func TestDispatch_ConfirmWhen(t *testing.T) {
	rule := ConfirmWhen("action", "delete", "admin_remote_wipe")

	assert.True(t, rule(Arguments{"action": "delete"}))
	assert.False(t, rule(Arguments{"action": "approve"}))
	assert.False(t, rule(Arguments{}))
}

func TestDispatch_CredentialErrorsPropagate(t *testing.T) {
	f := newFixture(t)
	f.creds.err = failure.Authentication(failure.ReasonReauthorizationRequired, "revoked")

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	requireFailure(t, err, failure.KindAuthentication, failure.ReasonReauthorizationRequired)
	assert.Equal(t, int32(0), f.getUser.calls.Load())
}

func TestDispatch_InsufficientScope(t *testing.T) {
	f := newFixture(t)
	f.creds.scopes = []string{scopeGroup}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	fe := requireFailure(t, err, failure.KindAuthentication, failure.ReasonInsufficientScope)
	assert.Contains(t, fe.Message, scopeUsers)
	assert.Equal(t, int32(0), f.getUser.calls.Load())
}

func TestDispatch_RetriesTransientFailures(t *testing.T) {
	f := newFixture(t)
	var attempts []int
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		attempts = append(attempts, inv.Attempt)
		if inv.Attempt < 3 {
			return nil, &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend error"}
		}
		return TextResult("done"), nil
	}

	res, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, res.Text)
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDispatch_RetryUsesFreshCredential(t *testing.T) {
	f := newFixture(t)
	var tokens []string
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		tokens = append(tokens, cred.AccessToken)
		if inv.Attempt < 3 {
			return nil, &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend error"}
		}
		return TextResult("done"), nil
	}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"access-1", "access-2", "access-3"}, tokens)
	assert.Equal(t, 3, f.creds.Calls())
}

func TestDispatch_RetryStopsWhenCredentialIsRevoked(t *testing.T) {
	f := newFixture(t)
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		f.creds.mu.Lock()
		f.creds.err = failure.Authentication(failure.ReasonReauthorizationRequired, "revoked")
		f.creds.mu.Unlock()
		return nil, &googleapi.Error{Code: http.StatusServiceUnavailable, Message: "backend error"}
	}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	requireFailure(t, err, failure.KindAuthentication, failure.ReasonReauthorizationRequired)
	assert.Equal(t, int32(1), f.getUser.calls.Load())
	assert.Equal(t, 2, f.creds.Calls())
}

func TestDispatch_RateLimitedSurfacesAfterExhaustion(t *testing.T) {
	f := newFixture(t)
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		return nil, &googleapi.Error{Code: http.StatusTooManyRequests, Message: "slow down"}
	}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	fe := requireFailure(t, err, failure.KindRateLimited, failure.ReasonRateLimitExceeded)
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
	assert.Equal(t, int32(retry.DefaultMaxAttempts), f.getUser.calls.Load())
}

func TestDispatch_UpstreamNotRetried(t *testing.T) {
	f := newFixture(t)
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		return nil, &googleapi.Error{Code: http.StatusNotFound, Message: "Resource Not Found: userKey"}
	}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	requireFailure(t, err, failure.KindUpstream, failure.ReasonNotFound)
	assert.Equal(t, int32(1), f.getUser.calls.Load())
}

func TestDispatch_HandlerValidationError(t *testing.T) {
	f := newFixture(t)
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		return nil, failure.InvalidArgument("target_user", "not an email address")
	}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane"))
	fe := requireFailure(t, err, failure.KindValidation, failure.ReasonInvalidArgument)
	assert.Equal(t, "target_user", fe.Field)
	assert.Equal(t, int32(1), f.getUser.calls.Load())
}

func TestDispatch_UnclassifiedErrorIsInternal(t *testing.T) {
	f := newFixture(t)
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		return nil, errors.New("nil pointer somewhere")
	}

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	requireFailure(t, err, failure.KindInternal, failure.ReasonInvariant)
}

func TestDispatch_AttemptTimeoutIsTransient(t *testing.T) {
	f := newFixture(t, WithCallTimeout(10*time.Millisecond))
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		if inv.Attempt == 1 {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return TextResult("second try"), nil
	}

	res, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"second try"}, res.Text)
}

func TestDispatch_CancellationPropagates(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	f.getUser.fn = func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
		cancel()
		return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
	}

	_, err := f.dispatcher.Dispatch(ctx, "admin_get_user", args("target_user", "jane@example.com"))
	assert.ErrorIs(t, err, context.Canceled)
	_, isFailure := failure.As(err)
	assert.False(t, isFailure)
	assert.Equal(t, int32(1), f.getUser.calls.Load())
}

func TestDispatch_RateLimiterWaitHonoursContext(t *testing.T) {
	f := newFixture(t, WithRateLimit(0.001, 1))

	_, err := f.dispatcher.Dispatch(context.Background(), "admin_get_user", args("target_user", "jane@example.com"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.dispatcher.Dispatch(ctx, "admin_get_user", args("target_user", "jane@example.com"))
	fe := requireFailure(t, err, failure.KindRateLimited, failure.ReasonRateLimitExceeded)
	assert.Contains(t, fe.Message, adminEmail)
	assert.Equal(t, int32(1), f.getUser.calls.Load())
}

func TestBind(t *testing.T) {
	f := newFixture(t)
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	Bind(s, f.dispatcher)

	tools := s.ListTools()
	assert.Contains(t, tools, "admin_get_user")
	assert.Contains(t, tools, "admin_delete_user")

	handler := f.dispatcher.ToolHandler("admin_delete_user")
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args("target_user", "jane@example.com")

	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.IsError)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "ValidationError(ConfirmationRequired)")

	req.Params.Arguments = args("target_user", "jane@example.com", ConfirmArg, true)
	res, err = handler(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
