package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gsuiteadmin/internal/server"
)

// ConfiguredAccountsURI is the URI of the configured accounts resource.
const ConfiguredAccountsURI = "accounts://configured"

// AccountStatus is one entry of the configured accounts resource.
type AccountStatus struct {
	Email         string     `json:"email"`
	AccountType   string     `json:"account_type"`
	ExtraInfo     string     `json:"extra_info,omitempty"`
	HasCredential bool       `json:"has_credential"`
	Expiry        *time.Time `json:"expiry,omitempty"`
	Refreshable   bool       `json:"refreshable"`
	Scopes        []string   `json:"scopes"`
	Error         string     `json:"error,omitempty"`
}

// RegisterAccountResources registers the account resources.
func RegisterAccountResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	resource := mcp.NewResource(
		ConfiguredAccountsURI,
		"Configured Admin Accounts",
		mcp.WithResourceDescription("Admin accounts this server can act as, with the state of their stored credential"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleConfiguredAccounts(ctx, request, sc)
	})
	return nil
}

// ConfiguredAccounts returns the status of every configured account in
// configuration order.
func ConfiguredAccounts(ctx context.Context, sc *server.ServerContext) []AccountStatus {
	accounts := sc.Accounts()
	if accounts == nil {
		return []AccountStatus{}
	}

	out := make([]AccountStatus, 0, accounts.Len())
	for _, acc := range accounts.All() {
		entry := AccountStatus{
			Email:       acc.Email,
			AccountType: acc.AccountType,
			ExtraInfo:   acc.ExtraInfo,
			Scopes:      []string{},
		}
		if m := sc.Manager(); m != nil {
			st := m.Status(ctx, acc.Email)
			entry.HasCredential = st.HasCredential
			entry.Refreshable = st.Refreshable
			entry.Error = st.Error
			if st.HasCredential {
				expiry := st.Expiry
				entry.Expiry = &expiry
				if st.Scopes != nil {
					entry.Scopes = st.Scopes
				}
			}
		}
		out = append(out, entry)
	}
	return out
}

func handleConfiguredAccounts(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(map[string]any{
		"accounts": ConfiguredAccounts(ctx, sc),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal accounts: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
