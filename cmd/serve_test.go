package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/server"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing default file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnvFile(filepath.Join(dir, ".env"), false))
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		err := loadEnvFile(filepath.Join(dir, "absent.env"), true)
		assert.ErrorContains(t, err, "failed to load env file")
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		assert.NoError(t, loadEnvFile("", true))
	})

	t.Run("values are loaded without overriding the environment", func(t *testing.T) {
		path := filepath.Join(dir, "test.env")
		require.NoError(t, os.WriteFile(path, []byte("GSUITE_TEST_LOADED=from-file\nGSUITE_TEST_KEPT=from-file\n"), 0o600))
		t.Setenv("GSUITE_TEST_KEPT", "from-env")
		t.Cleanup(func() { _ = os.Unsetenv("GSUITE_TEST_LOADED") })

		require.NoError(t, loadEnvFile(path, true))
		assert.Equal(t, "from-file", os.Getenv("GSUITE_TEST_LOADED"))
		assert.Equal(t, "from-env", os.Getenv("GSUITE_TEST_KEPT"))
	})
}

func TestApplyMetricsEnv(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want MetricsConfig
	}{
		{
			name: "defaults",
			want: MetricsConfig{Enabled: true, Addr: server.DefaultMetricsAddr},
		},
		{
			name: "environment overrides defaults",
			env:  map[string]string{"METRICS_ENABLED": "false", "METRICS_ADDR": ":9999"},
			want: MetricsConfig{Enabled: false, Addr: ":9999"},
		},
		{
			name: "flags win over environment",
			args: []string{"--metrics-enabled=true", "--metrics-addr=:7777"},
			env:  map[string]string{"METRICS_ENABLED": "false", "METRICS_ADDR": ":9999"},
			want: MetricsConfig{Enabled: true, Addr: ":7777"},
		},
		{
			name: "unparsable flag value in env is ignored",
			env:  map[string]string{"METRICS_ENABLED": "maybe"},
			want: MetricsConfig{Enabled: true, Addr: server.DefaultMetricsAddr},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cmd := newServeCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg := MetricsConfig{}
			cfg.Enabled, _ = cmd.Flags().GetBool("metrics-enabled")
			cfg.Addr, _ = cmd.Flags().GetString("metrics-addr")
			applyMetricsEnv(cmd, &cfg)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestRunServeRejectsUnknownTransport(t *testing.T) {
	err := runServe(serveOptions{transport: "sse"})
	assert.ErrorContains(t, err, "unsupported transport type: sse")
}

// writeAppFiles lays out a client file, an accounts file and a credential
// directory, and points the GSUITE_* variables at them.
func writeAppFiles(t *testing.T, accountsJSON string) string {
	t.Helper()
	dir := t.TempDir()

	gauth := filepath.Join(dir, "gauth.json")
	require.NoError(t, os.WriteFile(gauth, []byte(`{"installed":{"client_id":"id","client_secret":"secret"}}`), 0o600))
	accounts := filepath.Join(dir, "accounts.json")
	require.NoError(t, os.WriteFile(accounts, []byte(accountsJSON), 0o600))
	creds := filepath.Join(dir, "creds")
	require.NoError(t, os.Mkdir(creds, 0o700))

	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvGAuthFile, gauth)
	t.Setenv(config.EnvAccountsFile, accounts)
	t.Setenv(config.EnvOAuthDir, creds)
	t.Setenv(config.EnvCredentialBackend, "")
	t.Setenv(config.EnvEncryptionKey, "")
	return dir
}

func TestLoadApp(t *testing.T) {
	writeAppFiles(t, `{"accounts":[{"email":"admin@example.com","account_type":"admin"}]}`)

	a, err := loadApp(appOptions{debug: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, "debug", a.settings.Log.Level)
	assert.Equal(t, 1, a.accounts.Len())
	assert.Equal(t, "id", a.client.ClientID)
	require.NotNil(t, a.manager)

	_, err = a.requireAccount("ADMIN@example.com")
	assert.NoError(t, err)
	_, err = a.requireAccount("someone@example.com")
	assert.ErrorContains(t, err, "is not listed in")
}

func TestLoadAppMissingAccounts(t *testing.T) {
	dir := writeAppFiles(t, `{"accounts":[]}`)
	t.Setenv(config.EnvAccountsFile, filepath.Join(dir, "missing.json"))

	_, err := loadApp(appOptions{})
	assert.ErrorContains(t, err, "accounts configuration file not found")

	a, err := loadApp(appOptions{optionalAccounts: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.Equal(t, 0, a.accounts.Len())
}
