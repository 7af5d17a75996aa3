package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/gsuiteadmin/internal/config"
	"github.com/teemow/gsuiteadmin/internal/credstore"
)

func newCleanupCmd() *cobra.Command {
	var (
		dryRun bool
		revoke bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stored credentials of accounts that are no longer configured",
		Long: `Scan the credential store for accounts missing from the accounts file and
delete their records. With --revoke the grant is also revoked at Google.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			orphans, err := orphanedCredentials(ctx, a.store, a.accounts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(orphans) == 0 {
				fmt.Fprintln(out, "No orphaned credentials found.")
				return nil
			}

			for _, email := range orphans {
				if dryRun {
					fmt.Fprintf(out, "Would delete credential for %s\n", email)
					continue
				}
				if revoke {
					err = a.manager.Revoke(ctx, email)
				} else {
					err = a.store.Delete(ctx, email)
				}
				if err != nil {
					return fmt.Errorf("failed to remove credential for %s: %w", email, err)
				}
				fmt.Fprintf(out, "Deleted credential for %s\n", email)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list the credentials that would be deleted")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "Also revoke the grants at Google")
	return cmd
}

// orphanedCredentials lists stored emails that no configured account claims.
func orphanedCredentials(ctx context.Context, store credstore.Store, accounts *config.Accounts) ([]string, error) {
	stored, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored credentials: %w", err)
	}

	var orphans []string
	for _, email := range stored {
		if _, ok := accounts.Lookup(email); !ok {
			orphans = append(orphans, email)
		}
	}
	return orphans, nil
}
