package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/credstore"
	"github.com/teemow/gsuiteadmin/internal/google"
)

type brokenStore struct {
	credstore.Store
}

func (brokenStore) List(context.Context) ([]string, error) {
	return nil, errors.New("disk unavailable")
}

func newHealthContext(t *testing.T, store credstore.Store, emails ...string) *ServerContext {
	t.Helper()
	list := make([]config.Account, 0, len(emails))
	for _, e := range emails {
		list = append(list, config.Account{Email: e})
	}
	accounts, err := config.NewAccounts(list)
	require.NoError(t, err)

	sc := NewServerContext(context.Background(), google.NewManager(&oauth2.Config{}, store), accounts)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func fileStore(t *testing.T) credstore.Store {
	t.Helper()
	store, err := credstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func serve(t *testing.T, h http.Handler) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil)
	rec, resp := serve(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T) *HealthChecker
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name: "ready",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newHealthContext(t, fileStore(t), "admin@example.com"))
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{
				"ready":            healthStatusOK,
				"shutdown":         healthStatusOK,
				"accounts":         healthStatusOK,
				"credential_store": healthStatusOK,
			},
		},
		{
			name: "no accounts",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newHealthContext(t, fileStore(t)))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"accounts": healthStatusNoAccounts},
		},
		{
			name: "store unavailable",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newHealthContext(t, brokenStore{}, "admin@example.com"))
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"credential_store": healthStatusUnavailable},
		},
		{
			name: "marked not ready",
			setup: func(t *testing.T) *HealthChecker {
				h := NewHealthChecker(newHealthContext(t, fileStore(t), "admin@example.com"))
				h.SetReady(false)
				return h
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": healthStatusNotReady},
		},
		{
			name: "shutting down",
			setup: func(t *testing.T) *HealthChecker {
				sc := newHealthContext(t, fileStore(t), "admin@example.com")
				require.NoError(t, sc.Shutdown())
				return NewHealthChecker(sc)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"shutdown": healthStatusShuttingDown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := serve(t, tt.setup(t).ReadinessHandler())
			assert.Equal(t, tt.wantStatus, rec.Code)
			for k, v := range tt.wantChecks {
				assert.Equal(t, v, resp.Checks[k], k)
			}
		})
	}
}

func TestDetailedHealthHandler(t *testing.T) {
	ctx := context.Background()
	store := fileStore(t)
	require.NoError(t, store.Save(ctx, "admin@example.com", &credstore.TokenSet{AccessToken: "a", RefreshToken: "r"}))

	h := NewHealthChecker(newHealthContext(t, store, "admin@example.com", "other@example.com"))

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.Equal(t, 2, resp.Accounts)
	assert.Equal(t, 1, resp.StoredCredentials)
	assert.Empty(t, resp.CredentialStoreErr)
	assert.NotContains(t, rec.Body.String(), "admin@example.com")
}

func TestRegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker(newHealthContext(t, fileStore(t), "admin@example.com")).RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
