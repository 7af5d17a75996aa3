package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/credstore"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/logging"
)

// app holds what every command builds from the settings.
type app struct {
	settings *config.Settings
	accounts *config.Accounts
	client   *config.ClientConfig
	logger   *slog.Logger
	store    credstore.Store
	manager  *google.Manager
}

// appOptions tweaks loadApp for a command.
type appOptions struct {
	// debug forces the debug log level.
	debug bool
	// metrics is attached to the manager when non-nil.
	metrics *instrumentation.Metrics
	// optionalAccounts tolerates a missing accounts file.
	optionalAccounts bool
}

func settingsPath() string {
	if configFile != "" {
		return configFile
	}
	return os.Getenv(config.EnvConfigFile)
}

// loadApp resolves settings, loads the account list and OAuth client, opens
// the credential store and builds the OAuth manager.
func loadApp(opts appOptions) (*app, error) {
	settings, err := config.Load(settingsPath())
	if err != nil {
		return nil, err
	}
	if opts.debug {
		settings.Log.Level = "debug"
	}

	logger, err := logging.New(logging.Options{Level: settings.Log.Level, Format: settings.Log.Format})
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)

	accounts, err := config.LoadAccounts(settings.AccountsFile)
	if err != nil {
		if !opts.optionalAccounts {
			return nil, err
		}
		logger.Warn("no accounts loaded", logging.Err(err))
		accounts, _ = config.NewAccounts(nil)
	}

	client, err := config.LoadClientConfig(settings.GAuthFile)
	if err != nil {
		return nil, err
	}

	store, err := credstore.Open(settings.Credentials.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	oauthConf := google.NewOAuthConfig(client, settings.OAuth.RedirectURL, nil)
	manager := google.NewManager(oauthConf, store,
		google.WithLogger(logger),
		google.WithMetrics(opts.metrics),
		google.WithRefreshMargin(settings.OAuth.RefreshMargin),
	)

	return &app{
		settings: settings,
		accounts: accounts,
		client:   client,
		logger:   logger,
		store:    store,
		manager:  manager,
	}, nil
}

// Close releases the credential store.
func (a *app) Close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// requireAccount rejects emails missing from the accounts file so a typo
// cannot create a stray credential.
func (a *app) requireAccount(email string) (config.Account, error) {
	acc, ok := a.accounts.Lookup(email)
	if !ok {
		return config.Account{}, fmt.Errorf("%s is not listed in %s", email, a.settings.AccountsFile)
	}
	return acc, nil
}

// statuses reports the credential state of every configured account.
func (a *app) statuses(ctx context.Context) []google.Status {
	out := make([]google.Status, 0, a.accounts.Len())
	for _, email := range a.accounts.Emails() {
		out = append(out, a.manager.Status(ctx, email))
	}
	return out
}
