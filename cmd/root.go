package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
)

// rootCmd represents the base command for the gsuiteadmin application
var rootCmd = &cobra.Command{
	Use:   "gsuiteadmin",
	Short: "Google Workspace administration tools for AI assistants",
	Long: `gsuiteadmin exposes Google Workspace Admin SDK operations (users, groups,
organizational units, devices, reports and security settings) as MCP tools.

Every tool call names the administrator account it acts as. Accounts are
authorized once with 'gsuiteadmin auth <email>'; the server refreshes their
tokens on demand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gsuiteadmin version %s\n" .Version}}`)

	// MCP clients usually launch the binary without arguments.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnvFile loads KEY=VALUE pairs without overriding the environment. A
// missing default file is fine; a missing explicit one is not.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML settings file. Can also use GSUITE_ADMIN_CONFIG env var.")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File of environment variables loaded at startup")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newRevokeCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
