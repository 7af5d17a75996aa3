package directory

import (
	"context"
	"fmt"

	admin "google.golang.org/api/admin/directory/v1"
)

const devicesPageLimit = 100

// Mobile device actions accepted by ManageMobileDevice. ActionDelete
// removes the device record instead of sending an action.
const (
	ActionApprove                      = "approve"
	ActionBlock                        = "block"
	ActionCancelRemoteWipeThenActivate = "cancel_remote_wipe_then_activate"
	ActionCancelRemoteWipeThenBlock    = "cancel_remote_wipe_then_block"
	ActionAdminRemoteWipe              = "admin_remote_wipe"
	ActionAdminAccountWipe             = "admin_account_wipe"
	ActionDelete                       = "delete"
)

// MobileDeviceActions lists every accepted action.
var MobileDeviceActions = []string{
	ActionApprove,
	ActionBlock,
	ActionCancelRemoteWipeThenActivate,
	ActionCancelRemoteWipeThenBlock,
	ActionAdminRemoteWipe,
	ActionAdminAccountWipe,
	ActionDelete,
}

// ListMobileDevices returns up to limit mobile devices matching query.
func (c *Client) ListMobileDevices(ctx context.Context, customer, query string, limit int) ([]MobileDeviceSummary, error) {
	limit = maxOrDefault(limit)

	var out []MobileDeviceSummary
	pageToken := ""
	for len(out) < limit {
		call := c.svc.Mobiledevices.List(customerOrDefault(customer)).
			MaxResults(pageSize(limit-len(out), devicesPageLimit)).
			Context(ctx)
		if query != "" {
			call = call.Query(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list mobile devices: %w", err)
		}
		for _, d := range resp.Mobiledevices {
			out = append(out, toMobileDeviceSummary(d))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return truncate(out, limit), nil
}

// GetMobileDevice returns one mobile device.
func (c *Client) GetMobileDevice(ctx context.Context, customer, resourceID string) (*MobileDeviceSummary, error) {
	d, err := c.svc.Mobiledevices.Get(customerOrDefault(customer), resourceID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get mobile device %s: %w", resourceID, err)
	}
	s := toMobileDeviceSummary(d)
	return &s, nil
}

// ManageMobileDevice applies action to a mobile device.
func (c *Client) ManageMobileDevice(ctx context.Context, customer, resourceID, action string) error {
	customer = customerOrDefault(customer)
	if action == ActionDelete {
		if err := c.svc.Mobiledevices.Delete(customer, resourceID).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to delete mobile device %s: %w", resourceID, err)
		}
		return nil
	}

	err := c.svc.Mobiledevices.Action(customer, resourceID, &admin.MobileDeviceAction{Action: action}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to %s mobile device %s: %w", action, resourceID, err)
	}
	return nil
}

// ListChromeDevices returns up to limit ChromeOS devices.
func (c *Client) ListChromeDevices(ctx context.Context, customer, orgUnitPath, query string, limit int) ([]ChromeDeviceSummary, error) {
	limit = maxOrDefault(limit)

	var out []ChromeDeviceSummary
	pageToken := ""
	for len(out) < limit {
		call := c.svc.Chromeosdevices.List(customerOrDefault(customer)).
			MaxResults(pageSize(limit-len(out), devicesPageLimit)).
			Context(ctx)
		if orgUnitPath != "" {
			call = call.OrgUnitPath(orgUnitPath)
		}
		if query != "" {
			call = call.Query(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list Chrome devices: %w", err)
		}
		for _, d := range resp.Chromeosdevices {
			out = append(out, toChromeDeviceSummary(d))
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return truncate(out, limit), nil
}

// GetChromeDevice returns one ChromeOS device.
func (c *Client) GetChromeDevice(ctx context.Context, customer, deviceID string) (*ChromeDeviceSummary, error) {
	d, err := c.svc.Chromeosdevices.Get(customerOrDefault(customer), deviceID).Projection("FULL").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get Chrome device %s: %w", deviceID, err)
	}
	s := toChromeDeviceSummary(d)
	return &s, nil
}
