package google

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/teemow/gsuiteadmin/internal/config"
)

// NewOAuthConfig builds the oauth2 configuration for the authorization-code
// flow from the downloaded client registration. Endpoints missing from the
// file fall back to Google's.
func NewOAuthConfig(client *config.ClientConfig, redirectURL string, scopes []string) *oauth2.Config {
	endpoint := googleoauth.Endpoint
	if client.AuthURI != "" {
		endpoint.AuthURL = client.AuthURI
	}
	if client.TokenURI != "" {
		endpoint.TokenURL = client.TokenURI
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	if len(scopes) == 0 {
		scopes = DefaultAdminScopes
	}

	return &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
	}
}

// defaultHTTPClient is used for token endpoint calls when no client is
// injected. HTTP/2 is disabled as Google's endpoints occasionally reset
// long-lived HTTP/2 connections.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			ForceAttemptHTTP2:   false,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// withHTTPClient makes the oauth2 package use c for token requests.
func withHTTPClient(ctx context.Context, c *http.Client) context.Context {
	if c == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c)
}
