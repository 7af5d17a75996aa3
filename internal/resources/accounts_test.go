package resources

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/credstore"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/server"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	ctx := context.Background()

	store, err := credstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "admin@example.com", &credstore.TokenSet{
		AccessToken:   "secret-access-token",
		RefreshToken:  "secret-refresh-token",
		TokenType:     "Bearer",
		Expiry:        time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC),
		GrantedScopes: []string{google.ScopeDirectoryUser},
	}))

	accounts, err := config.NewAccounts([]config.Account{
		{Email: "admin@example.com", AccountType: config.AccountTypeAdmin, ExtraInfo: "primary"},
		{Email: "other@example.com"},
	})
	require.NoError(t, err)

	sc := server.NewServerContext(ctx, google.NewManager(&oauth2.Config{}, store), accounts)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestConfiguredAccounts(t *testing.T) {
	got := ConfiguredAccounts(context.Background(), newTestContext(t))
	require.Len(t, got, 2)

	assert.Equal(t, "admin@example.com", got[0].Email)
	assert.True(t, got[0].HasCredential)
	assert.True(t, got[0].Refreshable)
	require.NotNil(t, got[0].Expiry)
	assert.Equal(t, []string{google.ScopeDirectoryUser}, got[0].Scopes)

	assert.Equal(t, "other@example.com", got[1].Email)
	assert.Equal(t, config.AccountTypeAdmin, got[1].AccountType)
	assert.False(t, got[1].HasCredential)
	assert.Nil(t, got[1].Expiry)
	assert.Empty(t, got[1].Scopes)
}

func TestConfiguredAccountsResourceHidesTokens(t *testing.T) {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = ConfiguredAccountsURI

	contents, err := handleConfiguredAccounts(context.Background(), req, newTestContext(t))
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.Contains(t, text.Text, `"has_credential": true`)
	assert.NotContains(t, text.Text, "secret-access-token")
	assert.NotContains(t, text.Text, "secret-refresh-token")
}

func TestConfiguredAccountsWithoutConfiguration(t *testing.T) {
	sc := server.NewServerContext(context.Background(), nil, nil)
	assert.Empty(t, ConfiguredAccounts(context.Background(), sc))
}
