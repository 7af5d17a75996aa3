package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/credstore"
)

func newKeygenCmd() *cobra.Command {
	var export bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key for encrypting stored credentials",
		Long: `Print a random AES-256 key, base64 encoded. Set it as ` + config.EnvEncryptionKey + `
to seal every credential record at rest. Records stored before the key was
set can no longer be read, so authorize each account again after enabling
encryption.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credstore.GenerateKey()
			if err != nil {
				return err
			}
			if export {
				fmt.Fprintf(cmd.OutOrStdout(), "export %s=%s\n", config.EnvEncryptionKey, key)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	cmd.Flags().BoolVar(&export, "export", false, "Print a shell export statement instead of the bare key")
	return cmd
}
