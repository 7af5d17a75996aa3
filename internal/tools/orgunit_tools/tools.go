package orgunit_tools

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

const category = "orgunits"

var orgUnitScopes = []string{google.ScopeDirectoryOrgUnit}

// listTypes maps the tool's type argument to the API value.
var listTypes = map[string]string{
	"all":                  directory.OrgUnitTypeAll,
	"children":             directory.OrgUnitTypeChildren,
	"all_including_parent": directory.OrgUnitTypeAllIncludingParent,
}

func withOrgUnitPath(required bool, desc string) mcp.ToolOption {
	opts := []mcp.PropertyOption{mcp.Description(desc)}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString("org_unit_path", opts...)
}

// RegisterOrgUnitTools registers all org unit tools.
func RegisterOrgUnitTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	return common.RegisterAll(reg, readOnly,
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_org_units",
				mcp.WithDescription("List organizational units below a path."),
				common.WithUserID(),
				common.WithCustomerID(),
				withOrgUnitPath(false, "Path to list below (default: '/')"),
				mcp.WithString("type",
					mcp.Description("Which units to return (default: all)"),
					mcp.Enum("all", "children", "all_including_parent"),
				),
			),
			RequiredScopes: orgUnitScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListOrgUnits(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_org_unit",
				mcp.WithDescription("Get the details of one organizational unit."),
				common.WithUserID(),
				common.WithCustomerID(),
				withOrgUnitPath(true, "Path of the unit (e.g. '/Sales/EMEA')"),
			),
			RequiredScopes: orgUnitScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleGetOrgUnit(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_create_org_unit",
				mcp.WithDescription("Create an organizational unit."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("name",
					mcp.Required(),
					mcp.Description("Name of the new unit"),
				),
				mcp.WithString("parent_org_unit_path",
					mcp.Description("Parent path (default: '/')"),
				),
				mcp.WithString("description",
					mcp.Description("Description of the unit"),
				),
				mcp.WithBoolean("block_inheritance",
					mcp.Description("Block policy inheritance from the parent (default: false)"),
				),
			),
			RequiredScopes: orgUnitScopes,
			Category:       category,
			Handler:        handleCreateOrgUnit(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_update_org_unit",
				mcp.WithDescription("Rename, move or re-describe an organizational unit. Only the given fields change."),
				common.WithUserID(),
				common.WithCustomerID(),
				withOrgUnitPath(true, "Path of the unit to update"),
				mcp.WithString("name", mcp.Description("New name")),
				mcp.WithString("description", mcp.Description("New description")),
				mcp.WithString("parent_org_unit_path", mcp.Description("Move the unit below this path")),
				mcp.WithBoolean("block_inheritance", mcp.Description("Block policy inheritance")),
			),
			RequiredScopes: orgUnitScopes,
			Category:       category,
			Handler:        handleUpdateOrgUnit(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_delete_org_unit",
				mcp.WithDescription("Delete an organizational unit. The unit must not contain users, devices or child units."),
				common.WithUserID(),
				common.WithCustomerID(),
				withOrgUnitPath(true, "Path of the unit to delete"),
				common.WithConfirm("delete the organizational unit"),
			),
			RequiredScopes: orgUnitScopes,
			Category:       category,
			Confirm:        dispatch.AlwaysConfirm,
			Handler:        handleDeleteOrgUnit(sc),
		},
	)
}

// unitPath returns a validated org_unit_path that names a unit other than
// the root.
func unitPath(args dispatch.Arguments) (string, error) {
	path := args.String("org_unit_path")
	if err := common.ValidateOrgUnitPath("org_unit_path", path); err != nil {
		return "", err
	}
	if path == "/" {
		return "", failure.InvalidArgument("org_unit_path", "the root organizational unit cannot be used here")
	}
	return strings.TrimSuffix(path, "/"), nil
}

func handleListOrgUnits(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		path := args.StringDefault("org_unit_path", "/")
		if err := common.ValidateOrgUnitPath("org_unit_path", path); err != nil {
			return nil, err
		}
		listType := listTypes[args.StringDefault("type", "all")]
		customer := common.CustomerID(args)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		units, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.OrgUnitSummary, error) {
				return client.ListOrgUnits(ctx, customer, path, listType)
			})
		if err != nil {
			return nil, err
		}
		if len(units) == 0 {
			return dispatch.TextResult(fmt.Sprintf("No organizational units found below %s.", path)), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Found %d organizational unit(s) below %s:\n\n", len(units), path))
		for _, ou := range units {
			depth := strings.Count(strings.Trim(ou.Path, "/"), "/")
			indent := strings.Repeat("  ", depth)
			result.WriteString(fmt.Sprintf("%s- %s (%s)\n", indent, ou.Name, ou.Path))
			if ou.Description != "" {
				result.WriteString(fmt.Sprintf("%s  %s\n", indent, ou.Description))
			}
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleGetOrgUnit(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		path, err := unitPath(inv.Arguments)
		if err != nil {
			return nil, err
		}
		customer := common.CustomerID(inv.Arguments)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		ou, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
			func(ctx context.Context) (*directory.OrgUnitSummary, error) {
				return client.GetOrgUnit(ctx, customer, path)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(formatOrgUnit(ou)), nil
	}
}

func handleCreateOrgUnit(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		in := directory.OrgUnitInput{
			Name:              args.String("name"),
			ParentOrgUnitPath: args.StringDefault("parent_org_unit_path", "/"),
			Description:       args.String("description"),
			BlockInheritance:  args.Bool("block_inheritance", false),
		}
		if err := common.ValidateName("name", in.Name); err != nil {
			return nil, err
		}
		if err := common.ValidateOrgUnitPath("parent_org_unit_path", in.ParentOrgUnitPath); err != nil {
			return nil, err
		}
		customer := common.CustomerID(args)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		ou, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationCreate,
			func(ctx context.Context) (*directory.OrgUnitSummary, error) {
				return client.CreateOrgUnit(ctx, customer, in)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult("Organizational unit created successfully.\n\n" + formatOrgUnit(ou)), nil
	}
}

func handleUpdateOrgUnit(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		path, err := unitPath(args)
		if err != nil {
			return nil, err
		}

		var patch directory.OrgUnitPatch
		if v, ok := args.OptionalString("name"); ok {
			if err := common.ValidateName("name", v); err != nil {
				return nil, err
			}
			patch.Name = &v
		}
		if v, ok := args.OptionalString("description"); ok {
			patch.Description = &v
		}
		if v, ok := args.OptionalString("parent_org_unit_path"); ok {
			if err := common.ValidateOrgUnitPath("parent_org_unit_path", v); err != nil {
				return nil, err
			}
			if v == path || strings.HasPrefix(v, path+"/") {
				return nil, failure.InvalidArgument("parent_org_unit_path", "cannot move %s below itself", path)
			}
			patch.ParentOrgUnitPath = &v
		}
		if v, ok := args.OptionalBool("block_inheritance"); ok {
			patch.BlockInheritance = &v
		}
		if patch.Empty() {
			return nil, common.NothingToUpdate("name, description, parent_org_unit_path or block_inheritance")
		}
		customer := common.CustomerID(args)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		ou, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationUpdate,
			func(ctx context.Context) (*directory.OrgUnitSummary, error) {
				return client.UpdateOrgUnit(ctx, customer, path, patch)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(fmt.Sprintf("Organizational unit %s updated.\n\n%s", path, formatOrgUnit(ou))), nil
	}
}

func handleDeleteOrgUnit(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		path, err := unitPath(inv.Arguments)
		if err != nil {
			return nil, err
		}
		customer := common.CustomerID(inv.Arguments)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		err = common.Exec(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationDelete,
			func(ctx context.Context) error {
				return client.DeleteOrgUnit(ctx, customer, path)
			})
		if err != nil {
			return nil, err
		}
		return dispatch.TextResult(fmt.Sprintf("Organizational unit %s has been deleted.", path)), nil
	}
}

func formatOrgUnit(ou *directory.OrgUnitSummary) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("Organizational Unit: %s\n", ou.Name))
	result.WriteString(fmt.Sprintf("   Path: %s\n", ou.Path))
	result.WriteString(fmt.Sprintf("   Parent: %s\n", common.OrDash(ou.ParentPath)))
	result.WriteString(fmt.Sprintf("   ID: %s\n", common.OrDash(ou.ID)))
	result.WriteString(fmt.Sprintf("   Description: %s\n", common.OrDash(ou.Description)))
	result.WriteString(fmt.Sprintf("   Blocks Inheritance: %s\n", common.YesNo(ou.BlockInheritance)))
	return result.String()
}
