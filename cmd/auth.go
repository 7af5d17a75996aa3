package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/teemow/gsuiteadmin/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		code    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "auth <email>",
		Short: "Authorize an administrator account",
		Long: `Run the OAuth consent flow for a configured administrator account and store
the resulting credential.

The consent URL is printed; open it in a browser signed in as the account.
Google redirects to the local redirect URL (default
http://localhost:4100/code), where the code is received automatically. When
the browser runs on another machine, copy the code parameter from the final
URL and pass it with --code.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runAuth(ctx, cmd, args[0], code, timeout)
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code copied from the redirect URL; skips the local listener")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the browser redirect")
	return cmd
}

func runAuth(ctx context.Context, cmd *cobra.Command, email, code string, timeout time.Duration) error {
	a, err := loadApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireAccount(email); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	state := uuid.NewString()

	if code == "" {
		callback, err := google.ListenCallback(a.settings.OAuth.RedirectURL, state)
		if err != nil {
			return fmt.Errorf("failed to start the redirect listener (use --code instead): %w", err)
		}
		fmt.Fprintf(out, "Open this URL in a browser signed in as %s:\n\n  %s\n\n", email, a.manager.AuthCodeURL(state, email))
		fmt.Fprintf(out, "Waiting for the redirect on %s ...\n", a.settings.OAuth.RedirectURL)

		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		res, err := callback.Wait(waitCtx)
		if err != nil {
			return fmt.Errorf("did not receive an authorization code: %w", err)
		}
		code = res.Code
	}

	ts, err := a.manager.AuthorizeNewAccount(ctx, email, code, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Authorized %s (%d scopes, access token valid until %s).\n",
		email, len(ts.GrantedScopes), ts.Expiry.Local().Format(time.RFC1123))
	if ts.RefreshToken == "" {
		fmt.Fprintln(out, "Warning: Google returned no refresh token; run auth again once the access token expires.")
	}
	return nil
}

func newRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <email>",
		Short: "Revoke an account's grant and delete its stored credential",
		Long: `Revoke the OAuth grant of an account at Google and delete the stored
credential. The local record is deleted even when Google cannot be reached.
The account does not need to be listed in the accounts file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(appOptions{optionalAccounts: true})
			if err != nil {
				return err
			}
			defer a.Close()

			email := strings.TrimSpace(args[0])
			if err := a.manager.Revoke(cmd.Context(), email); err != nil {
				return fmt.Errorf("credential for %s deleted locally, but revocation at Google failed: %w", email, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked credential for %s.\n", email)
			return nil
		},
	}
}
