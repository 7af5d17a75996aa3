package device_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/directory"
	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

const category = "devices"

var (
	mobileScopes = []string{google.ScopeDirectoryMobile}
	chromeScopes = []string{google.ScopeDirectoryChromeOS}
)

// destructiveActions cannot be reverted once sent to the device.
var destructiveActions = []string{
	directory.ActionAdminRemoteWipe,
	directory.ActionAdminAccountWipe,
	directory.ActionDelete,
}

// RegisterDeviceTools registers all device tools.
func RegisterDeviceTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	return common.RegisterAll(reg, readOnly,
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_mobile_devices",
				mcp.WithDescription("List mobile devices synced with Google Workspace."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("query",
					mcp.Description("Search query (e.g. 'status:approved', 'email:jane@example.com')"),
				),
				common.WithMaxResults(),
			),
			RequiredScopes: mobileScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListMobileDevices(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_mobile_device",
				mcp.WithDescription("Get the details of a mobile device."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("resource_id",
					mcp.Required(),
					mcp.Description("Resource ID of the device"),
				),
			),
			RequiredScopes: mobileScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleGetMobileDevice(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_manage_mobile_device",
				mcp.WithDescription("Approve, block, wipe or delete a mobile device. Wipes and deletion require confirm=true."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("resource_id",
					mcp.Required(),
					mcp.Description("Resource ID of the device"),
				),
				mcp.WithString("action",
					mcp.Required(),
					mcp.Description("Action to take on the device"),
					mcp.Enum(directory.MobileDeviceActions...),
				),
				common.WithConfirm("wipe or delete the device"),
			),
			RequiredScopes: mobileScopes,
			Category:       category,
			Confirm:        dispatch.ConfirmWhen("action", destructiveActions...),
			Handler:        handleManageMobileDevice(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_list_chrome_devices",
				mcp.WithDescription("List ChromeOS devices, optionally limited to an organizational unit."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("org_unit_path",
					mcp.Description("Only list devices in this organizational unit"),
				),
				mcp.WithString("query",
					mcp.Description("Search query (e.g. 'status:provisioned', 'user:jane')"),
				),
				common.WithMaxResults(),
			),
			RequiredScopes: chromeScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleListChromeDevices(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_chrome_device",
				mcp.WithDescription("Get the details of a ChromeOS device."),
				common.WithUserID(),
				common.WithCustomerID(),
				mcp.WithString("device_id",
					mcp.Required(),
					mcp.Description("Device ID of the ChromeOS device"),
				),
			),
			RequiredScopes: chromeScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleGetChromeDevice(sc),
		},
	)
}

func handleListMobileDevices(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		customer := common.CustomerID(args)
		query := args.String("query")
		limit := common.MaxResults(args)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		devices, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.MobileDeviceSummary, error) {
				return client.ListMobileDevices(ctx, customer, query, limit)
			})
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return dispatch.TextResult("No mobile devices found."), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Found %d mobile device(s):\n\n", len(devices)))
		for i, d := range devices {
			result.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, common.OrDash(d.Model), d.ResourceID))
			result.WriteString(fmt.Sprintf("   Owner: %s\n", common.OrDash(strings.Join(d.Owners, ", "))))
			result.WriteString(fmt.Sprintf("   Status: %s, OS: %s\n", common.OrDash(d.Status), common.OrDash(d.OS)))
			result.WriteString(fmt.Sprintf("   Last Sync: %s\n\n", common.OrDash(d.LastSync)))
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleGetMobileDevice(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		customer := common.CustomerID(inv.Arguments)
		id := inv.Arguments.String("resource_id")

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		d, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
			func(ctx context.Context) (*directory.MobileDeviceSummary, error) {
				return client.GetMobileDevice(ctx, customer, id)
			})
		if err != nil {
			return nil, err
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Mobile Device: %s\n", common.OrDash(d.Model)))
		result.WriteString(fmt.Sprintf("   Resource ID: %s\n", d.ResourceID))
		result.WriteString(fmt.Sprintf("   Device ID: %s\n", common.OrDash(d.DeviceID)))
		result.WriteString(fmt.Sprintf("   Type: %s\n", common.OrDash(d.Type)))
		result.WriteString(fmt.Sprintf("   OS: %s\n", common.OrDash(d.OS)))
		result.WriteString(fmt.Sprintf("   Status: %s\n", common.OrDash(d.Status)))
		result.WriteString(fmt.Sprintf("   Owners: %s\n", common.OrDash(strings.Join(d.Owners, ", "))))
		result.WriteString(fmt.Sprintf("   First Sync: %s\n", common.OrDash(d.FirstSync)))
		result.WriteString(fmt.Sprintf("   Last Sync: %s\n", common.OrDash(d.LastSync)))
		return dispatch.TextResult(result.String()), nil
	}
}

func handleManageMobileDevice(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		customer := common.CustomerID(inv.Arguments)
		id := inv.Arguments.String("resource_id")
		action := inv.Arguments.String("action")

		op := instrumentation.OperationAction
		if action == directory.ActionDelete {
			op = instrumentation.OperationDelete
		}

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		err = common.Exec(ctx, sc.Metrics(), instrumentation.ServiceDirectory, op,
			func(ctx context.Context) error {
				return client.ManageMobileDevice(ctx, customer, id, action)
			})
		if err != nil {
			return nil, err
		}

		if action == directory.ActionDelete {
			return dispatch.TextResult(fmt.Sprintf("Mobile device %s has been deleted.", id)), nil
		}
		return dispatch.TextResult(fmt.Sprintf("Action %s sent to mobile device %s.", action, id)), nil
	}
}

func handleListChromeDevices(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		customer := common.CustomerID(args)
		ouPath := args.String("org_unit_path")
		if ouPath != "" {
			if err := common.ValidateOrgUnitPath("org_unit_path", ouPath); err != nil {
				return nil, err
			}
		}
		query := args.String("query")
		limit := common.MaxResults(args)

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		devices, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationList,
			func(ctx context.Context) ([]directory.ChromeDeviceSummary, error) {
				return client.ListChromeDevices(ctx, customer, ouPath, query, limit)
			})
		if err != nil {
			return nil, err
		}
		if len(devices) == 0 {
			return dispatch.TextResult("No ChromeOS devices found."), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Found %d ChromeOS device(s):\n\n", len(devices)))
		for i, d := range devices {
			result.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, common.OrDash(d.Model), d.DeviceID))
			result.WriteString(fmt.Sprintf("   Serial: %s, Status: %s\n", common.OrDash(d.SerialNumber), common.OrDash(d.Status)))
			result.WriteString(fmt.Sprintf("   Org Unit: %s\n", common.OrDash(d.OrgUnitPath)))
			result.WriteString(fmt.Sprintf("   Last Sync: %s\n\n", common.OrDash(d.LastSync)))
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleGetChromeDevice(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		customer := common.CustomerID(inv.Arguments)
		id := inv.Arguments.String("device_id")

		client, err := sc.Directory(cred)
		if err != nil {
			return nil, err
		}
		d, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceDirectory, instrumentation.OperationGet,
			func(ctx context.Context) (*directory.ChromeDeviceSummary, error) {
				return client.GetChromeDevice(ctx, customer, id)
			})
		if err != nil {
			return nil, err
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("ChromeOS Device: %s\n", common.OrDash(d.Model)))
		result.WriteString(fmt.Sprintf("   Device ID: %s\n", d.DeviceID))
		result.WriteString(fmt.Sprintf("   Serial Number: %s\n", common.OrDash(d.SerialNumber)))
		result.WriteString(fmt.Sprintf("   OS Version: %s\n", common.OrDash(d.OSVersion)))
		result.WriteString(fmt.Sprintf("   Status: %s\n", common.OrDash(d.Status)))
		result.WriteString(fmt.Sprintf("   Org Unit: %s\n", common.OrDash(d.OrgUnitPath)))
		result.WriteString(fmt.Sprintf("   Annotated User: %s\n", common.OrDash(d.AnnotatedUser)))
		result.WriteString(fmt.Sprintf("   Location: %s\n", common.OrDash(d.Location)))
		result.WriteString(fmt.Sprintf("   Asset ID: %s\n", common.OrDash(d.AssetID)))
		result.WriteString(fmt.Sprintf("   Last Sync: %s\n", common.OrDash(d.LastSync)))
		if len(d.RecentUsers) > 0 {
			result.WriteString(fmt.Sprintf("   Recent Users: %s\n", strings.Join(d.RecentUsers, ", ")))
		}
		return dispatch.TextResult(result.String()), nil
	}
}
