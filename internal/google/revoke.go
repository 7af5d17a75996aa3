package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/teemow/gsuiteadmin/internal/credstore"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/logging"
)

// RevokeURL is Google's token revocation endpoint.
const RevokeURL = "https://oauth2.googleapis.com/revoke"

// Revoke revokes the stored grant for email at Google and deletes the local
// record. The record is deleted even when the remote call fails; that error
// is still returned so the caller can report it.
func (m *Manager) Revoke(ctx context.Context, email string) error {
	ts, err := m.store.Load(ctx, email)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil
	}

	var remoteErr error
	if err == nil {
		token := ts.RefreshToken
		if token == "" {
			token = ts.AccessToken
		}
		remoteErr = m.revokeRemote(ctx, token)
	}

	if derr := m.store.Delete(ctx, email); derr != nil {
		return fmt.Errorf("failed to delete credential for %s: %w", email, derr)
	}
	m.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultRevoked)
	m.logger.Info("credential revoked", logging.UserHash(email))

	return remoteErr
}

func (m *Manager) revokeRemote(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revocation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revocation request failed: %w", err)
	}
	defer resp.Body.Close()

	// Google answers 400 invalid_token for grants that are already gone.
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusBadRequest && strings.Contains(string(body), "invalid_token") {
		return nil
	}
	return fmt.Errorf("revocation endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
