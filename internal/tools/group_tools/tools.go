package group_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/directory"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

const category = "groups"

var (
	groupScopes  = []string{google.ScopeDirectoryGroup}
	memberScopes = []string{google.ScopeDirectoryGroupMember}
)

func withGroupEmail() mcp.ToolOption {
	return mcp.WithString("group_email",
		mcp.Required(),
		mcp.Description("Email address of the group (e.g. 'team@example.com')"),
	)
}

// RegisterGroupTools registers all group tools.
func RegisterGroupTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	return common.RegisterAll(reg, readOnly,
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_groups",
				mcp.WithDescription("List groups in the domain, optionally filtered by a search query."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("domain",
					mcp.Description("Only list groups of this domain"),
				),
				mcp.WithString("query",
					mcp.Description("Group search query (e.g. 'email:eng*')"),
				),
				common.WithMaxResults(),
			),
			RequiredScopes: groupScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListGroups(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_group",
				mcp.WithDescription("Get the details of one group."),
				common.WithUserID(),
				withGroupEmail(),
			),
			RequiredScopes: groupScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleGetGroup(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_create_group",
				mcp.WithDescription("Create a new group."),
				common.WithUserID(),
				withGroupEmail(),
				mcp.WithString("group_name",
					mcp.Required(),
					mcp.Description("Display name of the group"),
				),
				mcp.WithString("description",
					mcp.Description("Description of the group's purpose"),
				),
			),
			RequiredScopes: groupScopes,
			Category:       category,
			Handler:        handleCreateGroup(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_delete_group",
				mcp.WithDescription("Permanently delete a group. Members lose access to anything shared with the group."),
				common.WithUserID(),
				withGroupEmail(),
				common.WithConfirm("delete the group"),
			),
			RequiredScopes: groupScopes,
			Category:       category,
			Confirm:        dispatch.AlwaysConfirm,
			Handler:        handleDeleteGroup(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_group_members",
				mcp.WithDescription("List the members of a group with their roles."),
				common.WithUserID(),
				withGroupEmail(),
				common.WithMaxResults(),
			),
			RequiredScopes: memberScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListMembers(sc),
		},
	)
}

func groupEmail(args dispatch.Arguments) (string, error) {
	email := args.String("group_email")
	if err := common.ValidateEmail("group_email", email); err != nil {
		return "", err
	}
	return email, nil
}

func handleListGroups(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		opts := directory.ListGroupsOptions{
			Customer:   common.CustomerID(args),
			Domain:     args.String("domain"),
			Query:      args.String("query"),
			MaxResults: common.MaxResults(args),
		}
		if opts.Domain != "" {
			if err := common.ValidateDomain("domain", opts.Domain); err != nil {
				return nil, err
			}
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		groups, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.GroupSummary, error) {
				return client.ListGroups(ctx, opts)
			})
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			return dispatch.TextResult("No groups found."), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Found %d group(s):\n\n", len(groups)))
		for i, g := range groups {
			result.WriteString(fmt.Sprintf("%d. %s\n", i+1, g.Name))
			result.WriteString(fmt.Sprintf("   Email: %s\n", g.Email))
			result.WriteString(fmt.Sprintf("   Members: %d\n", g.MembersCount))
			if g.Description != "" {
				result.WriteString(fmt.Sprintf("   Description: %s\n", g.Description))
			}
			result.WriteString("\n")
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleGetGroup(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		email, err := groupEmail(inv.Arguments)
		if err != nil {
			return nil, err
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		g, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
			func(ctx context.Context) (*directory.GroupSummary, error) {
				return client.GetGroup(ctx, email)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(formatGroup(g)), nil
	}
}

func handleCreateGroup(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		email, err := groupEmail(args)
		if err != nil {
			return nil, err
		}
		name := args.String("group_name")
		if name == "" {
			return nil, failure.InvalidArgument("group_name", "group_name must not be empty")
		}
		description := args.String("description")

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		g, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationCreate,
			func(ctx context.Context) (*directory.GroupSummary, error) {
				return client.CreateGroup(ctx, email, name, description)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult("Group created successfully.\n\n" + formatGroup(g)), nil
	}
}

func handleDeleteGroup(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		email, err := groupEmail(inv.Arguments)
		if err != nil {
			return nil, err
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		err = common.Exec(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationDelete,
			func(ctx context.Context) error {
				return client.DeleteGroup(ctx, email)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(fmt.Sprintf("Group %s has been deleted.", email)), nil
	}
}

func handleListMembers(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		email, err := groupEmail(inv.Arguments)
		if err != nil {
			return nil, err
		}
		limit := common.MaxResults(inv.Arguments)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		members, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.MemberSummary, error) {
				return client.ListMembers(ctx, email, limit)
			})
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return dispatch.TextResult(fmt.Sprintf("Group %s has no members.", email)), nil
		}

		counts := map[string]int{}
		var result strings.Builder
		result.WriteString(fmt.Sprintf("Group %s has %d member(s):\n\n", email, len(members)))
		for i, m := range members {
			counts[m.Role]++
			result.WriteString(fmt.Sprintf("%d. %s (%s, %s)", i+1, common.OrDash(m.Email), m.Role, m.Type))
			if m.Status != "" && m.Status != "ACTIVE" {
				result.WriteString(fmt.Sprintf(" [%s]", m.Status))
			}
			result.WriteString("\n")
		}
		result.WriteString(fmt.Sprintf("\nOwners: %d, Managers: %d, Members: %d\n", counts["OWNER"], counts["MANAGER"], counts["MEMBER"]))
		return dispatch.TextResult(result.String()), nil
	}
}

func formatGroup(g *directory.GroupSummary) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Group: %s\n", g.Name))
	result.WriteString(fmt.Sprintf("   Email: %s\n", g.Email))
	result.WriteString(fmt.Sprintf("   ID: %s\n", common.OrDash(g.ID)))
	result.WriteString(fmt.Sprintf("   Description: %s\n", common.OrDash(g.Description)))
	result.WriteString(fmt.Sprintf("   Direct Members: %d\n", g.MembersCount))
	result.WriteString(fmt.Sprintf("   Admin Created: %s\n", common.YesNo(g.AdminCreated)))
	if len(g.Aliases) > 0 {
		result.WriteString(fmt.Sprintf("   Aliases: %s\n", strings.Join(g.Aliases, ", ")))
	}
	return result.String()
}
