package security_tools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

const category = "security"

// User security actions.
const (
	actionGetSecurityInfo    = "get_security_info"
	actionRequire2SV         = "require_2sv"
	actionDisable2SV         = "disable_2sv"
	actionMakeAdmin          = "make_admin"
	actionRemoveAdmin        = "remove_admin"
	actionResetSigninCookies = "reset_signin_cookies"
)

// Role assignment actions.
const (
	actionListRoles       = "list_roles"
	actionListAssignments = "list_assignments"
	actionAssignRole      = "assign_role"
	actionRemoveRole      = "remove_role"
)

// Data transfer actions.
const (
	actionListTransfers     = "list_transfers"
	actionGetTransferStatus = "get_transfer_status"
	actionCreateTransfer    = "create_transfer"
)

// Token types of admin_list_tokens.
const (
	tokenTypeAll          = "all"
	tokenTypeOAuth        = "oauth"
	tokenTypeAppPasswords = "app_passwords"
)

func withTargetUser(desc string) mcp.ToolOption {
	return mcp.WithString("target_user", mcp.Description(desc))
}

// RegisterSecurityTools registers all security tools.
func RegisterSecurityTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	return common.RegisterAll(reg, readOnly,
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_domain_aliases",
				mcp.WithDescription("List the domain aliases of the Google Workspace customer."),
				common.WithUserID(),
				common.WithCustomerID(),
			),
			RequiredScopes: []string{google.ScopeDirectoryDomain},
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListDomainAliases(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_manage_user_security",
				mcp.WithDescription("Inspect or change the security settings of a user: 2-Step Verification, super admin status and active sessions."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address of the user to manage"),
				),
				mcp.WithString("action",
					mcp.Required(),
					mcp.Description("Security action to perform"),
					mcp.Enum(actionGetSecurityInfo, actionRequire2SV, actionDisable2SV,
						actionMakeAdmin, actionRemoveAdmin, actionResetSigninCookies),
				),
				common.WithConfirm("turn off 2-Step Verification or change super admin status"),
			),
			RequiredScopes: []string{google.ScopeDirectoryUserSecurity, google.ScopeDirectoryUser},
			Category:       category,
			Confirm:        dispatch.ConfirmWhen("action", actionDisable2SV, actionMakeAdmin, actionRemoveAdmin),
			Handler:        handleManageUserSecurity(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_tokens",
				mcp.WithDescription("List the OAuth tokens a user granted to third-party applications and their app passwords."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address of the user"),
				),
				mcp.WithString("token_type",
					mcp.Description("What to list (default: all)"),
					mcp.Enum(tokenTypeAll, tokenTypeOAuth, tokenTypeAppPasswords),
				),
			),
			RequiredScopes: []string{google.ScopeDirectoryUserSecurity},
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListTokens(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_manage_role_assignments",
				mcp.WithDescription("List admin roles and role assignments, or assign and remove a role for a user."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("action",
					mcp.Required(),
					mcp.Description("Role action to perform"),
					mcp.Enum(actionListRoles, actionListAssignments, actionAssignRole, actionRemoveRole),
				),
				withTargetUser("Email of the user (required for assign_role and remove_role, filters list_assignments)"),
				mcp.WithString("role_id",
					mcp.Description("Numeric role ID (required for assign_role and remove_role, filters list_assignments)"),
				),
				common.WithConfirm("assign or remove an admin role"),
			),
			RequiredScopes: []string{google.ScopeDirectoryRoles, google.ScopeDirectoryUser},
			Category:       category,
			Confirm:        dispatch.ConfirmWhen("action", actionAssignRole, actionRemoveRole),
			Handler:        handleManageRoleAssignments(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_manage_data_transfer",
				mcp.WithDescription("List data transfers, check the status of one, or transfer Drive files from one user to another."),
				common.WithUserID(),
				mcp.WithString("action",
					mcp.Required(),
					mcp.Description("Transfer action to perform"),
					mcp.Enum(actionListTransfers, actionGetTransferStatus, actionCreateTransfer),
				),
				mcp.WithString("transfer_id",
					mcp.Description("Transfer ID (required for get_transfer_status)"),
				),
				mcp.WithString("old_owner",
					mcp.Description("Email of the current owner (required for create_transfer, filters list_transfers)"),
				),
				mcp.WithString("new_owner",
					mcp.Description("Email of the new owner (required for create_transfer, filters list_transfers)"),
				),
				mcp.WithString("application_id",
					mcp.Description("Numeric application ID to transfer (default: Drive and Docs)"),
				),
				mcp.WithString("status",
					mcp.Description("Filter list_transfers by status"),
					mcp.Enum("new", "inProgress", "completed", "failed"),
				),
				common.WithMaxResults(),
				common.WithConfirm("start the data transfer"),
			),
			RequiredScopes: []string{google.ScopeDataTransfer, google.ScopeDirectoryUser},
			Category:       category,
			Confirm:        dispatch.ConfirmWhen("action", actionCreateTransfer),
			Handler:        handleManageDataTransfer(sc),
		},
	)
}

// requiredFor returns the string argument key, failing when action needs
// it and it is missing.
func requiredFor(args dispatch.Arguments, key, action string) (string, error) {
	v := args.String(key)
	if v == "" {
		return "", failure.InvalidArgument(key, "%s is required for action %s", key, action)
	}
	return v, nil
}

// requiredEmailFor is requiredFor plus email validation.
func requiredEmailFor(args dispatch.Arguments, key, action string) (string, error) {
	v, err := requiredFor(args, key, action)
	if err != nil {
		return "", err
	}
	if err := common.ValidateEmail(key, v); err != nil {
		return "", err
	}
	return v, nil
}
