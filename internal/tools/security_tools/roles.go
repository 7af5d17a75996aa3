package security_tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/teemow/gsuiteadmin/internal/directory"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

func roleID(args dispatch.Arguments, action string, required bool) (string, error) {
	id := args.String("role_id")
	if id == "" {
		if required {
			return "", failure.InvalidArgument("role_id", "role_id is required for action %s", action)
		}
		return "", nil
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return "", failure.InvalidArgument("role_id", "role_id %q must be numeric", id)
	}
	return id, nil
}

func handleManageRoleAssignments(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		action := args.String("action")
		customer := common.CustomerID(args)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}

		switch action {
		case actionListRoles:
			roles, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
				func(ctx context.Context) ([]directory.RoleSummary, error) {
					return client.ListRoles(ctx, customer)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(formatRoles(roles)), nil

		case actionListAssignments:
			target := args.String("target_user")
			if target != "" {
				if err := common.ValidateEmail("target_user", target); err != nil {
					return nil, err
				}
			}
			role, err := roleID(args, action, false)
			if err != nil {
				return nil, err
			}
			assignments, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
				func(ctx context.Context) ([]directory.RoleAssignmentSummary, error) {
					return client.ListRoleAssignments(ctx, customer, target, role)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(formatAssignments(assignments)), nil

		case actionAssignRole:
			target, err := requiredEmailFor(args, "target_user", action)
			if err != nil {
				return nil, err
			}
			role, err := roleID(args, action, true)
			if err != nil {
				return nil, err
			}
			a, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationCreate,
				func(ctx context.Context) (*directory.RoleAssignmentSummary, error) {
					return client.AssignRole(ctx, customer, target, role)
				})
			if err != nil {
				return nil, err
			}
			return dispatch.TextResult(fmt.Sprintf("Assigned role %s to %s (assignment %s).", role, target, a.ID)), nil

		default:
			target, err := requiredEmailFor(args, "target_user", action)
			if err != nil {
				return nil, err
			}
			role, err := roleID(args, action, true)
			if err != nil {
				return nil, err
			}
			removed, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationDelete,
				func(ctx context.Context) (bool, error) {
					return client.RemoveRole(ctx, customer, target, role)
				})
			if err != nil {
				return nil, err
			}
			if !removed {
				return dispatch.TextResult(fmt.Sprintf("%s does not hold role %s; nothing to remove.", target, role)), nil
			}
			return dispatch.TextResult(fmt.Sprintf("Removed role %s from %s.", role, target)), nil
		}
	}
}

func formatRoles(roles []directory.RoleSummary) string {
	if len(roles) == 0 {
		return "No admin roles found."
	}
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d admin role(s):\n\n", len(roles)))
	for i, r := range roles {
		result.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.Name))
		result.WriteString(fmt.Sprintf("   ID: %s\n", r.ID))
		result.WriteString(fmt.Sprintf("   Description: %s\n", common.OrDash(r.Description)))
		result.WriteString(fmt.Sprintf("   System Role: %s, Super Admin: %s\n\n", common.YesNo(r.System), common.YesNo(r.SuperAdmin)))
	}
	return result.String()
}

func formatAssignments(assignments []directory.RoleAssignmentSummary) string {
	if len(assignments) == 0 {
		return "No role assignments found."
	}
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Found %d role assignment(s):\n\n", len(assignments)))
	for i, a := range assignments {
		result.WriteString(fmt.Sprintf("%d. User ID: %s\n", i+1, a.AssignedTo))
		result.WriteString(fmt.Sprintf("   Role ID: %s\n", a.RoleID))
		scope := a.ScopeType
		if a.OrgUnitID != "" {
			scope += " (" + a.OrgUnitID + ")"
		}
		result.WriteString(fmt.Sprintf("   Scope: %s\n\n", common.OrDash(scope)))
	}
	return result.String()
}
