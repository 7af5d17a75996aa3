package device_tools

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/tools/tooltest"
)

func TestRegisterDeviceTools(t *testing.T) {
	assert.Equal(t, 5, tooltest.New(t, RegisterDeviceTools, false).Registry.Len())
	assert.Equal(t, 4, tooltest.New(t, RegisterDeviceTools, true).Registry.Len())

	f := tooltest.New(t, RegisterDeviceTools, false)
	desc, ok := f.Registry.Lookup("admin_get_chrome_device")
	require.True(t, ok)
	assert.Equal(t, []string{google.ScopeDirectoryChromeOS}, desc.RequiredScopes)
}

func TestManageMobileDeviceConfirmation(t *testing.T) {
	tests := []struct {
		action      string
		needConfirm bool
	}{
		{action: "approve"},
		{action: "block"},
		{action: "cancel_remote_wipe_then_activate"},
		{action: "cancel_remote_wipe_then_block"},
		{action: "admin_remote_wipe", needConfirm: true},
		{action: "admin_account_wipe", needConfirm: true},
		{action: "delete", needConfirm: true},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			f := tooltest.New(t, RegisterDeviceTools, false)
			f.Mux.HandleFunc("POST /admin/directory/v1/customer/{customer}/devices/mobile/{id}/action", tooltest.NoContent)
			f.Mux.HandleFunc("DELETE /admin/directory/v1/customer/{customer}/devices/mobile/{id}", tooltest.NoContent)

			_, err := f.Call("admin_manage_mobile_device", map[string]any{
				"resource_id": "dev-1",
				"action":      tt.action,
			})
			if !tt.needConfirm {
				require.NoError(t, err)
				assert.Len(t, f.Requests(), 1)
				return
			}
			fe, ok := failure.As(err)
			require.True(t, ok)
			assert.Equal(t, failure.ReasonConfirmationRequired, fe.Reason)
			assert.Empty(t, f.Requests())
		})
	}
}

func TestManageMobileDeviceDelete(t *testing.T) {
	f := tooltest.New(t, RegisterDeviceTools, false)
	f.Mux.HandleFunc("DELETE /admin/directory/v1/customer/{customer}/devices/mobile/{id}", tooltest.NoContent)

	res, err := f.Call("admin_manage_mobile_device", map[string]any{
		"resource_id": "dev-1",
		"action":      "delete",
		"confirm":     true,
	})
	require.NoError(t, err)
	assert.Contains(t, tooltest.Text(res), "has been deleted")
	assert.Equal(t, http.MethodDelete, f.LastRequest().Method)
}

func TestListMobileDevices(t *testing.T) {
	f := tooltest.New(t, RegisterDeviceTools, false)
	f.Mux.HandleFunc("GET /admin/directory/v1/customer/{customer}/devices/mobile", tooltest.JSON(map[string]any{
		"mobiledevices": []map[string]any{
			{"resourceId": "dev-1", "model": "Pixel 9", "os": "Android 16", "status": "APPROVED", "email": []string{"jane@example.com"}},
		},
	}))

	res, err := f.Call("admin_list_mobile_devices", map[string]any{"query": "status:approved"})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "Found 1 mobile device(s)")
	assert.Contains(t, text, "Pixel 9 (dev-1)")
	assert.Contains(t, text, "jane@example.com")
	assert.Equal(t, []string{"status:approved"}, f.LastRequest().Query["query"])
}

func TestListChromeDevicesValidatesOrgUnit(t *testing.T) {
	f := tooltest.New(t, RegisterDeviceTools, false)
	_, err := f.Call("admin_list_chrome_devices", map[string]any{"org_unit_path": "Sales"})
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, "org_unit_path", fe.Field)
}

func TestGetChromeDevice(t *testing.T) {
	f := tooltest.New(t, RegisterDeviceTools, false)
	f.Mux.HandleFunc("GET /admin/directory/v1/customer/{customer}/devices/chromeos/{id}", tooltest.JSON(map[string]any{
		"deviceId":     "cros-1",
		"serialNumber": "SN123",
		"model":        "Chromebook Plus",
		"recentUsers":  []map[string]any{{"email": "jane@example.com"}},
	}))

	res, err := f.Call("admin_get_chrome_device", map[string]any{"device_id": "cros-1"})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "Serial Number: SN123")
	assert.Contains(t, text, "Recent Users: jane@example.com")
	assert.Equal(t, []string{"FULL"}, f.LastRequest().Query["projection"])
}
