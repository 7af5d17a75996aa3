package user_tools

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

const category = "users"

var userScopes = []string{google.ScopeDirectoryUser}

// RegisterUserTools registers all user management tools.
func RegisterUserTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	return common.RegisterAll(reg, readOnly,
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_users",
				mcp.WithDescription("List users in the Google Workspace domain with optional filtering by domain, org unit or search query."),
				common.WithUserID(),
				mcp.WithString("domain",
					mcp.Description("Only list users of this domain (default: all domains of the customer)"),
				),
				mcp.WithString("org_unit_path",
					mcp.Description("Only list users in this organizational unit (e.g. '/Sales')"),
				),
				mcp.WithString("query",
					mcp.Description("Directory search query (e.g. 'name:John*' or 'isAdmin=true')"),
				),
				common.WithMaxResults(),
				mcp.WithString("order_by",
					mcp.Description("Sort field"),
					mcp.Enum("email", "givenName", "familyName"),
				),
				mcp.WithBoolean("show_suspended",
					mcp.Description("Include suspended users (default: true)"),
				),
			),
			RequiredScopes: userScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListUsers(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_user",
				mcp.WithDescription("Get detailed information about one user, including status, org unit, admin role and 2-step verification."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address or user ID of the user to retrieve"),
				),
			),
			RequiredScopes: userScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleGetUser(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_create_user",
				mcp.WithDescription("Create a new user. A strong password is generated when none is given."),
				common.WithUserID(),
				mcp.WithString("email",
					mcp.Required(),
					mcp.Description("Primary email of the new user"),
				),
				mcp.WithString("first_name",
					mcp.Required(),
					mcp.Description("Given name"),
				),
				mcp.WithString("last_name",
					mcp.Required(),
					mcp.Description("Family name"),
				),
				mcp.WithString("password",
					mcp.Description("Initial password (8-100 characters, mixed case plus a digit or symbol)"),
				),
				mcp.WithString("org_unit_path",
					mcp.Description("Organizational unit (default: '/')"),
				),
				mcp.WithBoolean("change_password_next_login",
					mcp.Description("Require a password change at first login (default: true)"),
				),
				mcp.WithBoolean("suspended",
					mcp.Description("Create the user suspended (default: false)"),
				),
			),
			RequiredScopes: userScopes,
			Category:       category,
			Handler:        handleCreateUser(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_update_user",
				mcp.WithDescription("Update a user's name, organizational unit or suspension state. Only the given fields change."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address or user ID of the user to update"),
				),
				mcp.WithString("first_name", mcp.Description("New given name")),
				mcp.WithString("last_name", mcp.Description("New family name")),
				mcp.WithString("org_unit_path", mcp.Description("Move the user to this organizational unit")),
				mcp.WithBoolean("suspended", mcp.Description("Suspend (true) or restore (false) the user")),
				mcp.WithString("suspension_reason", mcp.Description("Reason recorded with a suspension")),
			),
			RequiredScopes: userScopes,
			Category:       category,
			Handler:        handleUpdateUser(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_suspend_user",
				mcp.WithDescription("Suspend or unsuspend a user. A suspended user cannot sign in but keeps their data."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address or user ID of the user"),
				),
				mcp.WithBoolean("suspend",
					mcp.Required(),
					mcp.Description("true to suspend, false to restore access"),
				),
				mcp.WithString("reason",
					mcp.Description("Reason for the suspension (max 500 characters)"),
				),
			),
			RequiredScopes: userScopes,
			Category:       category,
			Handler:        handleSuspendUser(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_reset_password",
				mcp.WithDescription("Reset a user's password. A strong password is generated when none is given and returned once."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address or user ID of the user"),
				),
				mcp.WithString("new_password",
					mcp.Description("New password (generated when omitted)"),
				),
				mcp.WithBoolean("force_change_next_login",
					mcp.Description("Require a password change at next login (default: true)"),
				),
			),
			RequiredScopes: userScopes,
			Category:       category,
			Handler:        handleResetPassword(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_delete_user",
				mcp.WithDescription("Permanently delete a user. Their data is removed after the recovery window; transfer data first if needed."),
				common.WithUserID(),
				mcp.WithString("target_user",
					mcp.Required(),
					mcp.Description("Email address or user ID of the user to delete"),
				),
				common.WithConfirm("delete the user"),
			),
			RequiredScopes: userScopes,
			Category:       category,
			Confirm:        dispatch.AlwaysConfirm,
			Handler:        handleDeleteUser(sc),
		},
	)
}
