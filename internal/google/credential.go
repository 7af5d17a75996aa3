package google

import (
	"net/http"
	"slices"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/gsuiteadmin/internal/credstore"
)

// Credential is what a tool handler receives: a currently valid access token
// for one admin account. It never carries the refresh token.
type Credential struct {
	Email         string
	AccessToken   string
	TokenType     string
	Expiry        time.Time
	GrantedScopes []string
}

func newCredential(email string, ts *credstore.TokenSet) *Credential {
	tokenType := ts.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &Credential{
		Email:         email,
		AccessToken:   ts.AccessToken,
		TokenType:     tokenType,
		Expiry:        ts.Expiry,
		GrantedScopes: slices.Clone(ts.GrantedScopes),
	}
}

// Token returns the credential as an oauth2 token without refresh material.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.AccessToken,
		TokenType:   c.TokenType,
		Expiry:      c.Expiry,
	}
}

// TokenSource returns a static source for API clients built for this credential.
func (c *Credential) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(c.Token())
}

// HTTPClient returns a client that authorizes every request with the
// credential's access token. base defaults to http.DefaultTransport.
func (c *Credential) HTTPClient(base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: c.TokenSource(), Base: base},
	}
}

// MissingScopes returns the required scopes this credential was not granted.
func (c *Credential) MissingScopes(required []string) []string {
	var missing []string
	for _, s := range required {
		if !slices.Contains(c.GrantedScopes, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// String never prints the access token.
func (c *Credential) String() string {
	return "Credential{" + c.Email + ", expires " + c.Expiry.Format(time.RFC3339) + "}"
}
