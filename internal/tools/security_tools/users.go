package security_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/gsuiteadmin/internal/directory"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

func handleListDomainAliases(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		customer := common.CustomerID(inv.Arguments)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		aliases, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.DomainAliasSummary, error) {
				return client.ListDomainAliases(ctx, customer)
			})
		if err != nil {
			return nil, err
		}
		if len(aliases) == 0 {
			return dispatch.TextResult("No domain aliases found for this domain."), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Found %d domain alias(es):\n\n", len(aliases)))
		for i, a := range aliases {
			result.WriteString(fmt.Sprintf("%d. %s\n", i+1, a.Name))
			result.WriteString(fmt.Sprintf("   Parent Domain: %s\n", common.OrDash(a.ParentDomain)))
			result.WriteString(fmt.Sprintf("   Verified: %s\n", common.YesNo(a.Verified)))
			result.WriteString(fmt.Sprintf("   Created: %s\n\n", common.FormatTime(a.Created)))
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleManageUserSecurity(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		target := inv.Arguments.String("target_user")
		if err := common.ValidateEmail("target_user", target); err != nil {
			return nil, err
		}
		action := inv.Arguments.String("action")

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}

		if action == actionGetSecurityInfo {
			u, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
				func(ctx context.Context) (*directory.UserSummary, error) {
					return client.GetUser(ctx, target)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(formatSecurityInfo(u)), nil
		}

		var (
			run  func(context.Context) error
			done string
		)
		switch action {
		case actionRequire2SV:
			run = func(ctx context.Context) error { return client.SetEnforce2SV(ctx, target, true) }
			done = fmt.Sprintf("2-Step Verification is now required for %s.", target)
		case actionDisable2SV:
			run = func(ctx context.Context) error { return client.TurnOff2SV(ctx, target) }
			done = fmt.Sprintf("2-Step Verification has been turned off for %s.", target)
		case actionMakeAdmin:
			run = func(ctx context.Context) error { return client.SetSuperAdmin(ctx, target, true) }
			done = fmt.Sprintf("%s is now a super admin.", target)
		case actionRemoveAdmin:
			run = func(ctx context.Context) error { return client.SetSuperAdmin(ctx, target, false) }
			done = fmt.Sprintf("%s is no longer a super admin.", target)
		case actionResetSigninCookies:
			run = func(ctx context.Context) error { return client.SignOut(ctx, target) }
			done = fmt.Sprintf("%s has been signed out of all sessions.", target)
		default:
			return nil, failure.InvalidArgument("action", "unknown action %q", action)
		}

		if err := common.Exec(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationAction, run); err != nil {
			return nil, err
		}
		return dispatch.TextResult(done), nil
	}
}

func formatSecurityInfo(u *directory.UserSummary) string {
	status := "Active"
	if u.Suspended {
		status = "Suspended"
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Security Information for %s:\n\n", u.Email))
	result.WriteString(fmt.Sprintf("   Admin Status: %s\n", u.Role()))
	result.WriteString(fmt.Sprintf("   Account Status: %s\n", status))
	result.WriteString(fmt.Sprintf("   2SV Enrolled: %s\n", common.YesNo(u.EnrolledIn2SV)))
	result.WriteString(fmt.Sprintf("   2SV Enforced: %s\n", common.YesNo(u.EnforcedIn2SV)))
	result.WriteString(fmt.Sprintf("   Password Change Required: %s\n", common.YesNo(u.ChangePasswordNextLogin)))
	return result.String()
}

func handleListTokens(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		target := inv.Arguments.String("target_user")
		if err := common.ValidateEmail("target_user", target); err != nil {
			return nil, err
		}
		tokenType := inv.Arguments.StringDefault("token_type", tokenTypeAll)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Tokens for %s:\n\n", target))

		if tokenType == tokenTypeAll || tokenType == tokenTypeOAuth {
			tokens, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
				func(ctx context.Context) ([]directory.TokenSummary, error) {
					return client.ListTokens(ctx, target)
				})
			if err != nil {
				return nil, err
			}
			if len(tokens) == 0 {
				result.WriteString("OAuth Tokens: None found\n\n")
			} else {
				result.WriteString(fmt.Sprintf("OAuth Tokens (%d found):\n", len(tokens)))
				for i, t := range tokens {
					result.WriteString(fmt.Sprintf("%d. %s\n", i+1, common.OrDash(t.DisplayText)))
					result.WriteString(fmt.Sprintf("   Client ID: %s\n", t.ClientID))
					result.WriteString(fmt.Sprintf("   Anonymous: %s, Native App: %s\n", common.YesNo(t.Anonymous), common.YesNo(t.NativeApp)))
					result.WriteString(fmt.Sprintf("   Scopes: %d %s\n\n", len(t.Scopes), common.Plural(len(t.Scopes), "permission")))
				}
			}
		}

		if tokenType == tokenTypeAll || tokenType == tokenTypeAppPasswords {
			asps, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
				func(ctx context.Context) ([]directory.AppPasswordSummary, error) {
					return client.ListAppPasswords(ctx, target)
				})
			if err != nil {
				return nil, err
			}
			if len(asps) == 0 {
				result.WriteString("App Passwords: None found\n")
			} else {
				result.WriteString(fmt.Sprintf("App Passwords (%d found):\n", len(asps)))
				for i, a := range asps {
					result.WriteString(fmt.Sprintf("%d. %s\n", i+1, common.OrDash(a.Name)))
					result.WriteString(fmt.Sprintf("   Code ID: %d\n", a.CodeID))
					result.WriteString(fmt.Sprintf("   Created: %s\n", common.FormatTime(a.Created)))
					result.WriteString(fmt.Sprintf("   Last Used: %s\n\n", common.FormatTime(a.LastUsed)))
				}
			}
		}
		return dispatch.TextResult(result.String()), nil
	}
}
