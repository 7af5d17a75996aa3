package user_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/gsuiteadmin/internal/directory"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

const generatedPasswordLength = 16

func handleListUsers(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		opts := directory.ListUsersOptions{
			Domain:        args.String("domain"),
			OrgUnitPath:   args.String("org_unit_path"),
			Query:         args.String("query"),
			OrderBy:       args.String("order_by"),
			ShowSuspended: args.Bool("show_suspended", true),
			MaxResults:    common.MaxResults(args),
		}
		if opts.Domain != "" {
			if err := common.ValidateDomain("domain", opts.Domain); err != nil {
				return nil, err
			}
		}
		if opts.OrgUnitPath != "" {
			if err := common.ValidateOrgUnitPath("org_unit_path", opts.OrgUnitPath); err != nil {
				return nil, err
			}
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		users, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.UserSummary, error) {
				return client.ListUsers(ctx, opts)
			})
		if err != nil {
			return nil, err
		}

		if len(users) == 0 {
			return dispatch.TextResult("No users found matching the criteria."), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Found %d user(s):\n\n", len(users)))
		for i, u := range users {
			result.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.TrimSpace(u.FullName)))
			result.WriteString(fmt.Sprintf("   Email: %s\n", u.Email))
			result.WriteString(fmt.Sprintf("   Status: %s\n", userStatus(u)))
			result.WriteString(fmt.Sprintf("   Role: %s\n", u.Role()))
			result.WriteString(fmt.Sprintf("   Org Unit: %s\n", common.OrDash(u.OrgUnitPath)))
			result.WriteString(fmt.Sprintf("   Last Login: %s\n\n", lastLogin(u)))
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleGetUser(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		target := inv.Arguments.String("target_user")
		if err := common.ValidateUserKey("target_user", target); err != nil {
			return nil, err
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		u, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
			func(ctx context.Context) (*directory.UserSummary, error) {
				return client.GetUser(ctx, target)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(formatUserDetails(u)), nil
	}
}

func handleCreateUser(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		in := directory.UserInput{
			Email:                   args.String("email"),
			GivenName:               args.String("first_name"),
			FamilyName:              args.String("last_name"),
			Password:                args.String("password"),
			OrgUnitPath:             args.StringDefault("org_unit_path", "/"),
			ChangePasswordNextLogin: args.Bool("change_password_next_login", true),
			Suspended:               args.Bool("suspended", false),
		}
		if err := common.ValidateEmail("email", in.Email); err != nil {
			return nil, err
		}
		if err := common.ValidateName("first_name", in.GivenName); err != nil {
			return nil, err
		}
		if err := common.ValidateName("last_name", in.FamilyName); err != nil {
			return nil, err
		}
		if err := common.ValidateOrgUnitPath("org_unit_path", in.OrgUnitPath); err != nil {
			return nil, err
		}

		generated := in.Password == ""
		if generated {
			pw, err := common.GeneratePassword(generatedPasswordLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate password: %w", err)
			}
			in.Password = pw
		} else if err := common.ValidatePassword("password", in.Password); err != nil {
			return nil, err
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		u, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationCreate,
			func(ctx context.Context) (*directory.UserSummary, error) {
				return client.CreateUser(ctx, in)
			})
		if err != nil {
			return nil, err
		}

		var result strings.Builder
		result.WriteString("User created successfully.\n\n")
		result.WriteString(fmt.Sprintf("Name: %s %s\n", in.GivenName, in.FamilyName))
		result.WriteString(fmt.Sprintf("Email: %s\n", u.Email))
		result.WriteString(fmt.Sprintf("User ID: %s\n", u.ID))
		result.WriteString(fmt.Sprintf("Org Unit: %s\n", in.OrgUnitPath))
		result.WriteString(fmt.Sprintf("Suspended: %s\n", common.YesNo(in.Suspended)))
		result.WriteString(fmt.Sprintf("Must change password at next login: %s\n", common.YesNo(in.ChangePasswordNextLogin)))
		if generated {
			result.WriteString(fmt.Sprintf("\nGenerated password: %s\nShare it with the user over a secure channel; it is not shown again.\n", in.Password))
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleUpdateUser(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		target := args.String("target_user")
		if err := common.ValidateUserKey("target_user", target); err != nil {
			return nil, err
		}

		var patch directory.UserPatch
		if v, ok := args.OptionalString("first_name"); ok {
			if err := common.ValidateName("first_name", v); err != nil {
				return nil, err
			}
			patch.GivenName = &v
		}
		if v, ok := args.OptionalString("last_name"); ok {
			if err := common.ValidateName("last_name", v); err != nil {
				return nil, err
			}
			patch.FamilyName = &v
		}
		if v, ok := args.OptionalString("org_unit_path"); ok {
			if err := common.ValidateOrgUnitPath("org_unit_path", v); err != nil {
				return nil, err
			}
			patch.OrgUnitPath = &v
		}
		if v, ok := args.OptionalBool("suspended"); ok {
			patch.Suspended = &v
		}
		if v, ok := args.OptionalString("suspension_reason"); ok {
			if err := common.ValidateReason("suspension_reason", v); err != nil {
				return nil, err
			}
			patch.SuspensionReason = &v
		}
		if patch.Empty() {
			return nil, common.NothingToUpdate("first_name, last_name, org_unit_path, suspended or suspension_reason")
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		u, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationUpdate,
			func(ctx context.Context) (*directory.UserSummary, error) {
				return client.UpdateUser(ctx, target, patch)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(fmt.Sprintf("User %s updated.\n\n%s", target, formatUserDetails(u))), nil
	}
}

func handleSuspendUser(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		target := args.String("target_user")
		if err := common.ValidateUserKey("target_user", target); err != nil {
			return nil, err
		}
		suspend := args.Bool("suspend", true)
		reason := args.String("reason")
		if err := common.ValidateReason("reason", reason); err != nil {
			return nil, err
		}

		patch := directory.UserPatch{Suspended: &suspend}
		if suspend && reason != "" {
			patch.SuspensionReason = &reason
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		_, err = common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationUpdate,
			func(ctx context.Context) (*directory.UserSummary, error) {
				return client.UpdateUser(ctx, target, patch)
			})
		if err != nil {
			return nil, err
		}

		if !suspend {
			return dispatch.TextResult(fmt.Sprintf("User %s has been restored and can sign in again.", target)), nil
		}
		msg := fmt.Sprintf("User %s has been suspended.", target)
		if reason != "" {
			msg += fmt.Sprintf("\nReason: %s", reason)
		}
		return dispatch.TextResult(msg), nil
	}
}

func handleResetPassword(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		target := args.String("target_user")
		if err := common.ValidateUserKey("target_user", target); err != nil {
			return nil, err
		}
		forceChange := args.Bool("force_change_next_login", true)

		password := args.String("new_password")
		generated := password == ""
		if generated {
			pw, err := common.GeneratePassword(generatedPasswordLength)
			if err != nil {
				return nil, fmt.Errorf("failed to generate password: %w", err)
			}
			password = pw
		} else if err := common.ValidatePassword("new_password", password); err != nil {
			return nil, err
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		err = common.Exec(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationUpdate,
			func(ctx context.Context) error {
				return client.SetPassword(ctx, target, password, forceChange)
			})
		if err != nil {
			return nil, err
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Password reset for %s.\n", target))
		result.WriteString(fmt.Sprintf("Must change password at next login: %s\n", common.YesNo(forceChange)))
		if generated {
			result.WriteString(fmt.Sprintf("\nGenerated password: %s\nShare it with the user over a secure channel; it is not shown again.\n", password))
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleDeleteUser(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		target := inv.Arguments.String("target_user")
		if err := common.ValidateUserKey("target_user", target); err != nil {
			return nil, err
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		err = common.Exec(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationDelete,
			func(ctx context.Context) error {
				return client.DeleteUser(ctx, target)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(fmt.Sprintf("User %s has been deleted.", target)), nil
	}
}

func userStatus(u directory.UserSummary) string {
	switch {
	case u.Suspended:
		return "SUSPENDED"
	case u.Archived:
		return "ARCHIVED"
	default:
		return "ACTIVE"
	}
}

// lastLogin renders the API's epoch placeholder for users who never signed in.
func lastLogin(u directory.UserSummary) string {
	if u.LastLoginTime == "" || strings.HasPrefix(u.LastLoginTime, "1970-01-01") {
		return "Never"
	}
	return u.LastLoginTime
}

func formatUserDetails(u *directory.UserSummary) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("User Details: %s\n", strings.TrimSpace(u.FullName)))
	result.WriteString(strings.Repeat("=", 50) + "\n\n")

	result.WriteString("Basic Information:\n")
	result.WriteString(fmt.Sprintf("   First Name: %s\n", common.OrDash(u.GivenName)))
	result.WriteString(fmt.Sprintf("   Last Name: %s\n", common.OrDash(u.FamilyName)))
	result.WriteString(fmt.Sprintf("   Primary Email: %s\n", u.Email))
	result.WriteString(fmt.Sprintf("   User ID: %s\n", common.OrDash(u.ID)))
	if len(u.Aliases) > 0 {
		result.WriteString(fmt.Sprintf("   Aliases: %s\n", strings.Join(u.Aliases, ", ")))
	}

	result.WriteString(fmt.Sprintf("\nStatus: %s\n", userStatus(*u)))
	if u.Suspended && u.SuspensionReason != "" {
		result.WriteString(fmt.Sprintf("   Suspension Reason: %s\n", u.SuspensionReason))
	}
	result.WriteString(fmt.Sprintf("   Account Created: %s\n", common.OrDash(u.CreationTime)))
	result.WriteString(fmt.Sprintf("   Last Login: %s\n", lastLogin(*u)))

	result.WriteString("\nOrganization:\n")
	result.WriteString(fmt.Sprintf("   Org Unit: %s\n", common.OrDash(u.OrgUnitPath)))
	result.WriteString(fmt.Sprintf("   Role: %s\n", u.Role()))

	result.WriteString("\nSecurity:\n")
	result.WriteString(fmt.Sprintf("   2-Step Verification Enrolled: %s\n", common.YesNo(u.EnrolledIn2SV)))
	result.WriteString(fmt.Sprintf("   2-Step Verification Enforced: %s\n", common.YesNo(u.EnforcedIn2SV)))
	result.WriteString(fmt.Sprintf("   Must Change Password: %s\n", common.YesNo(u.ChangePasswordNextLogin)))
	return result.String()
}
