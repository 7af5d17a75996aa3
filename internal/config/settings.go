// Package config loads the server's inputs: the OAuth client registration,
// the configured admin accounts and the optional YAML settings file.
//
// Settings are resolved in order: built-in defaults, the YAML file
// (with ${VAR} expansion), GSUITE_* environment variables, then CLI flags
// applied by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/gsuiteadmin/internal/credstore"
	"github.com/teemow/gsuiteadmin/internal/retry"
)

// Environment variables read by ApplyEnv.
const (
	EnvConfigFile        = "GSUITE_ADMIN_CONFIG"
	EnvGAuthFile         = "GSUITE_GAUTH_FILE"
	EnvAccountsFile      = "GSUITE_ACCOUNTS_FILE"
	EnvOAuthDir          = "GSUITE_OAUTH_DIR"
	EnvCredentialBackend = "GSUITE_CREDENTIAL_BACKEND"
	EnvCredentialDB      = "GSUITE_CREDENTIAL_DB"
	EnvEncryptionKey     = "GSUITE_ENCRYPTION_KEY"
	EnvRedirectURL       = "GSUITE_REDIRECT_URL"
)

// Default values.
const (
	DefaultGAuthFile     = ".gauth.json"
	DefaultAccountsFile  = ".accounts.json"
	DefaultOAuthDir      = "."
	DefaultRedirectURL   = "http://localhost:4100/code"
	DefaultRefreshMargin = 60 * time.Second
	DefaultCallTimeout   = 30 * time.Second
	DefaultRatePerSecond = 10.0
	DefaultRateBurst     = 20
)

// Settings is the complete server configuration.
type Settings struct {
	GAuthFile    string              `yaml:"gauth_file"`
	AccountsFile string              `yaml:"accounts_file"`
	Credentials  CredentialsSettings `yaml:"credentials"`
	OAuth        OAuthSettings       `yaml:"oauth"`
	Retry        RetrySettings       `yaml:"retry"`
	Dispatch     DispatchSettings    `yaml:"dispatch"`
	Log          LogSettings         `yaml:"log"`
}

// CredentialsSettings selects the credential store backend.
type CredentialsSettings struct {
	Backend       string `yaml:"backend"` // file or sqlite
	Dir           string `yaml:"dir"`
	DatabasePath  string `yaml:"database_path"`
	EncryptionKey string `yaml:"encryption_key"`
}

// OAuthSettings tunes the authorization and refresh flow.
type OAuthSettings struct {
	RedirectURL   string        `yaml:"redirect_url"`
	RefreshMargin time.Duration `yaml:"refresh_margin"`
}

// RetrySettings mirrors retry.Policy.
type RetrySettings struct {
	MaxAttempts int           `yaml:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	Multiplier  float64       `yaml:"multiplier"`
	Jitter      float64       `yaml:"jitter"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxElapsed  time.Duration `yaml:"max_elapsed"`
}

// DispatchSettings bounds individual upstream calls.
type DispatchSettings struct {
	CallTimeout   time.Duration `yaml:"call_timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"` // per account, 0 disables
	RateBurst     int           `yaml:"rate_burst"`
}

// LogSettings configures the slog handler.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns settings populated with built-in defaults.
func Default() *Settings {
	p := retry.DefaultPolicy()
	return &Settings{
		GAuthFile:    DefaultGAuthFile,
		AccountsFile: DefaultAccountsFile,
		Credentials: CredentialsSettings{
			Backend: credstore.BackendFile,
			Dir:     DefaultOAuthDir,
		},
		OAuth: OAuthSettings{
			RedirectURL:   DefaultRedirectURL,
			RefreshMargin: DefaultRefreshMargin,
		},
		Retry: RetrySettings{
			MaxAttempts: p.MaxAttempts,
			BaseDelay:   p.BaseDelay,
			Multiplier:  p.Multiplier,
			Jitter:      p.Jitter,
			MaxDelay:    p.MaxDelay,
			MaxElapsed:  p.MaxElapsed,
		},
		Dispatch: DispatchSettings{
			CallTimeout:   DefaultCallTimeout,
			RatePerSecond: DefaultRatePerSecond,
			RateBurst:     DefaultRateBurst,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves settings from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("settings file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
		if err := s.parse(data); err != nil {
			return nil, err
		}
	}

	s.ApplyEnv()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// Parse decodes a YAML document over the defaults and validates the result.
func Parse(data []byte) (*Settings, error) {
	s := Default()
	if err := s.parse(data); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func (s *Settings) parse(data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), s); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}
	return nil
}

// ApplyEnv overrides file paths and credential options from GSUITE_*
// environment variables.
func (s *Settings) ApplyEnv() {
	setFromEnv(&s.GAuthFile, EnvGAuthFile)
	setFromEnv(&s.AccountsFile, EnvAccountsFile)
	setFromEnv(&s.Credentials.Dir, EnvOAuthDir)
	setFromEnv(&s.Credentials.Backend, EnvCredentialBackend)
	setFromEnv(&s.Credentials.DatabasePath, EnvCredentialDB)
	setFromEnv(&s.Credentials.EncryptionKey, EnvEncryptionKey)
	setFromEnv(&s.OAuth.RedirectURL, EnvRedirectURL)
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	if s.GAuthFile == "" {
		return fmt.Errorf("gauth_file is required")
	}
	if s.AccountsFile == "" {
		return fmt.Errorf("accounts_file is required")
	}
	if err := s.Credentials.Validate(); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	if err := s.OAuth.Validate(); err != nil {
		return fmt.Errorf("oauth: %w", err)
	}
	if err := s.Retry.Validate(); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	if err := s.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := s.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Validate validates credential store settings.
func (c *CredentialsSettings) Validate() error {
	switch c.Backend {
	case credstore.BackendFile:
		if c.Dir == "" {
			c.Dir = DefaultOAuthDir
		}
	case credstore.BackendSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("database_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", credstore.BackendFile, credstore.BackendSQLite, c.Backend)
	}
	return nil
}

// StoreConfig converts the settings for credstore.Open.
func (c CredentialsSettings) StoreConfig() credstore.Config {
	return credstore.Config{
		Backend:       c.Backend,
		Dir:           c.Dir,
		Path:          c.DatabasePath,
		EncryptionKey: c.EncryptionKey,
	}
}

// Validate validates OAuth settings.
func (o *OAuthSettings) Validate() error {
	if o.RedirectURL == "" {
		o.RedirectURL = DefaultRedirectURL
	}
	if o.RefreshMargin < 0 {
		return fmt.Errorf("refresh_margin must not be negative")
	}
	return nil
}

// Validate validates retry settings.
func (r *RetrySettings) Validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1")
	}
	if r.BaseDelay <= 0 {
		return fmt.Errorf("base_delay must be positive")
	}
	if r.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	if r.Jitter < 0 || r.Jitter >= 1 {
		return fmt.Errorf("jitter must be in [0, 1)")
	}
	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("max_delay must not be below base_delay")
	}
	if r.MaxElapsed < 0 {
		return fmt.Errorf("max_elapsed must not be negative")
	}
	return nil
}

// Policy builds the retry policy described by the settings.
func (r RetrySettings) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.MaxAttempts,
		BaseDelay:   r.BaseDelay,
		Multiplier:  r.Multiplier,
		Jitter:      r.Jitter,
		MaxDelay:    r.MaxDelay,
		MaxElapsed:  r.MaxElapsed,
	}
}

// Validate validates dispatch settings.
func (d *DispatchSettings) Validate() error {
	if d.CallTimeout <= 0 {
		return fmt.Errorf("call_timeout must be positive")
	}
	if d.RatePerSecond < 0 {
		return fmt.Errorf("rate_per_second must not be negative")
	}
	if d.RatePerSecond > 0 && d.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

// Validate validates log settings.
func (l *LogSettings) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	case "":
		l.Level = "info"
	default:
		return fmt.Errorf("level must be one of debug, info, warn, error")
	}
	switch l.Format {
	case "text", "json":
	case "":
		l.Format = "text"
	default:
		return fmt.Errorf("format must be text or json")
	}
	return nil
}
