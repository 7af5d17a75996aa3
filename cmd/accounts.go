package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
)

func newAccountsCmd() *cobra.Command {
	var (
		verify     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List configured accounts and their credential status",
		Long: `List the administrator accounts from the accounts file together with the
state of their stored credentials. No token material is printed.

With --verify each account's credential is loaded through the OAuth manager,
refreshing it when it is about to expire, to prove it still works.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			statuses := a.statuses(ctx)
			var problems map[string]string
			if verify {
				problems = verifyAccounts(ctx, a.manager, a.accounts.Emails())
			}

			if jsonOutput {
				return writeAccountsJSON(cmd.OutOrStdout(), statuses, problems)
			}
			writeAccounts(cmd.OutOrStdout(), a, statuses, problems)
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Obtain a valid access token for every account")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	return cmd
}

// verifyAccounts returns the failure of each account that could not produce
// a valid credential.
func verifyAccounts(ctx context.Context, creds google.CredentialProvider, emails []string) map[string]string {
	problems := make(map[string]string)
	for _, email := range emails {
		if _, err := creds.GetValidCredential(ctx, email); err != nil {
			if fe, ok := failure.As(err); ok {
				problems[email] = fmt.Sprintf("%s: %s", fe.Reason, fe.Message)
				continue
			}
			problems[email] = fmt.Sprintf("%s: %v", failure.KindOf(err), err)
		}
	}
	return problems
}

func writeAccounts(w io.Writer, a *app, statuses []google.Status, problems map[string]string) {
	if len(statuses) == 0 {
		fmt.Fprintf(w, "No accounts configured in %s.\n", a.settings.AccountsFile)
		return
	}

	fmt.Fprintf(w, "%d configured account(s):\n\n", len(statuses))
	for i, st := range statuses {
		acc, _ := a.accounts.Lookup(st.Email)
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, st.Email, acc.AccountType)
		if acc.ExtraInfo != "" {
			fmt.Fprintf(w, "   Info: %s\n", acc.ExtraInfo)
		}
		fmt.Fprintf(w, "   Credential: %s\n", describeCredential(st))
		if len(st.Scopes) > 0 {
			fmt.Fprintf(w, "   Scopes: %d granted\n", len(st.Scopes))
		}
		if problems != nil {
			if msg, failed := problems[st.Email]; failed {
				fmt.Fprintf(w, "   Verify: FAILED (%s)\n", msg)
			} else {
				fmt.Fprintln(w, "   Verify: ok")
			}
		}
		fmt.Fprintln(w)
	}
}

func describeCredential(st google.Status) string {
	switch {
	case st.Error != "":
		return "unreadable (" + st.Error + ")"
	case !st.HasCredential:
		return "missing, run 'gsuiteadmin auth " + st.Email + "'"
	}

	var parts []string
	if st.Expired {
		parts = append(parts, "access token expired "+st.Expiry.Local().Format(time.RFC3339))
	} else {
		parts = append(parts, "access token valid until "+st.Expiry.Local().Format(time.RFC3339))
	}
	if st.Refreshable {
		parts = append(parts, "refreshable")
	} else {
		parts = append(parts, "no refresh token")
	}
	return strings.Join(parts, ", ")
}

type accountJSON struct {
	google.Status
	VerifyError string `json:"verify_error,omitempty"`
}

func writeAccountsJSON(w io.Writer, statuses []google.Status, problems map[string]string) error {
	out := make([]accountJSON, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, accountJSON{Status: st, VerifyError: problems[st.Email]})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"accounts": out})
}
