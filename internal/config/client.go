package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Google's default endpoints, used when the client file omits them.
const (
	DefaultAuthURI  = "https://accounts.google.com/o/oauth2/auth"
	DefaultTokenURI = "https://oauth2.googleapis.com/token"
)

// ClientConfig is the OAuth client registration read from the gauth file.
type ClientConfig struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret"`
	AuthURI                 string   `json:"auth_uri"`
	TokenURI                string   `json:"token_uri"`
	RedirectURIs            []string `json:"redirect_uris"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url"`
}

// clientFile accepts the flat shape and the "installed" / "web" envelopes
// produced by the Google Cloud console download.
type clientFile struct {
	ClientConfig
	Installed *ClientConfig `json:"installed"`
	Web       *ClientConfig `json:"web"`
}

// LoadClientConfig reads and validates the OAuth client file at path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("OAuth client configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read OAuth client configuration: %w", err)
	}
	return ParseClientConfig(data)
}

// ParseClientConfig decodes a client configuration document.
func ParseClientConfig(data []byte) (*ClientConfig, error) {
	var f clientFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client configuration: %w", err)
	}

	cfg := f.ClientConfig
	switch {
	case f.Installed != nil:
		cfg = *f.Installed
	case f.Web != nil:
		cfg = *f.Web
	}

	if cfg.AuthURI == "" {
		cfg.AuthURI = DefaultAuthURI
	}
	if cfg.TokenURI == "" {
		cfg.TokenURI = DefaultTokenURI
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields required for the authorization-code flow.
func (c *ClientConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	return nil
}
