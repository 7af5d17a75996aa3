package google

import (
	"context"

	"golang.org/x/oauth2"
)

// CredentialProvider hands out valid credentials per account. *Manager is
// the production implementation; tests substitute fakes.
type CredentialProvider interface {
	GetValidCredential(ctx context.Context, email string) (*Credential, error)
}

var _ CredentialProvider = (*Manager)(nil)

// TokenSource adapts a CredentialProvider to oauth2.TokenSource so code that
// expects the oauth2 interface refreshes through the provider and its
// per-account lock.
func TokenSource(ctx context.Context, provider CredentialProvider, email string) oauth2.TokenSource {
	return &providerTokenSource{ctx: ctx, provider: provider, email: email}
}

type providerTokenSource struct {
	ctx      context.Context
	provider CredentialProvider
	email    string
}

func (s *providerTokenSource) Token() (*oauth2.Token, error) {
	cred, err := s.provider.GetValidCredential(s.ctx, s.email)
	if err != nil {
		return nil, err
	}
	return cred.Token(), nil
}
