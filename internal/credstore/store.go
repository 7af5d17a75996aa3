// Package credstore persists per-account OAuth token material.
//
// Two backends implement Store: FileStore keeps one JSON file per account
// (written atomically, mode 0600) and SQLStore keeps one row per account in a
// SQLite database through gorm. Both can encrypt records at rest with Cipher.
//
// Only the OAuth manager writes through a Store. The store never interprets
// token expiry or scopes; it moves TokenSets in and out of storage.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrNotFound is returned by Load when no record exists for the account.
var ErrNotFound = errors.New("credential not found")

// CorruptError is returned by Load when a record exists but cannot be decoded.
type CorruptError struct {
	Email string
	Err   error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt credential record for %s: %v", e.Email, e.Err)
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Store loads and saves TokenSets keyed by account email.
type Store interface {
	// Load returns ErrNotFound when absent and *CorruptError when undecodable.
	Load(ctx context.Context, email string) (*TokenSet, error)
	// Save atomically replaces the record for email.
	Save(ctx context.Context, email string, ts *TokenSet) error
	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, email string) error
	// List returns the emails that have a stored record, sorted.
	List(ctx context.Context) ([]string, error)
}

// TokenSet is the persisted OAuth material for one account.
type TokenSet struct {
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token,omitempty"`
	TokenType     string    `json:"token_type,omitempty"`
	Expiry        time.Time `json:"expiry"`
	GrantedScopes []string  `json:"granted_scopes"`
}

// FreshFor reports whether the access token stays valid for at least margin
// after now.
func (ts *TokenSet) FreshFor(now time.Time, margin time.Duration) bool {
	if ts.AccessToken == "" || ts.Expiry.IsZero() {
		return false
	}
	return ts.Expiry.Sub(now) > margin
}

// MissingScopes returns the entries of required that were not granted.
// An empty grant covers nothing.
func (ts *TokenSet) MissingScopes(required []string) []string {
	var missing []string
	for _, s := range required {
		if !slices.Contains(ts.GrantedScopes, s) {
			missing = append(missing, s)
		}
	}
	return missing
}

// Clone returns a deep copy.
func (ts *TokenSet) Clone() *TokenSet {
	c := *ts
	c.GrantedScopes = slices.Clone(ts.GrantedScopes)
	return &c
}

// ParseScopes splits a space separated scope string as returned by Google's
// token endpoint.
func ParseScopes(s string) []string {
	fields := strings.Fields(s)
	slices.Sort(fields)
	return slices.Compact(fields)
}

// validateEmail rejects keys that cannot safely name a file or row.
func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is empty")
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid account email %q", email)
	}
	if strings.ContainsAny(email, `/\`) || strings.Contains(email, "..") {
		return fmt.Errorf("account email %q contains path characters", email)
	}
	return nil
}

func encode(ts *TokenSet, c *Cipher) ([]byte, error) {
	if ts == nil {
		return nil, errors.New("token set is nil")
	}
	data, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token set: %w", err)
	}
	return c.Seal(data)
}

func decode(email string, data []byte, c *Cipher) (*TokenSet, error) {
	plain, err := c.Open(data)
	if err != nil {
		return nil, &CorruptError{Email: email, Err: err}
	}
	var ts TokenSet
	if err := json.Unmarshal(plain, &ts); err != nil {
		return nil, &CorruptError{Email: email, Err: err}
	}
	if ts.AccessToken == "" && ts.RefreshToken == "" {
		return nil, &CorruptError{Email: email, Err: errors.New("record holds no token")}
	}
	return &ts, nil
}

// Option configures a store backend.
type Option func(*options)

type options struct {
	cipher *Cipher
}

// WithCipher encrypts records at rest.
func WithCipher(c *Cipher) Option {
	return func(o *options) {
		o.cipher = c
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
