package user_tools

import (
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/tools/tooltest"
)

func TestRegisterUserTools(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	assert.Equal(t, 7, f.Registry.Len())

	ro := tooltest.New(t, RegisterUserTools, true)
	var names []string
	for _, d := range ro.Registry.All() {
		names = append(names, d.Name())
	}
	assert.Equal(t, []string{"admin_get_user", "admin_list_users"}, names)
}

func TestListUsers(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	f.Mux.HandleFunc("GET /admin/directory/v1/users", tooltest.JSON(map[string]any{
		"users": []map[string]any{
			{"primaryEmail": "ada@example.com", "name": map[string]any{"fullName": "Ada Lovelace"}, "orgUnitPath": "/Eng", "lastLoginTime": "1970-01-01T00:00:00.000Z"},
			{"primaryEmail": "bob@example.com", "name": map[string]any{"fullName": "Bob"}, "suspended": true},
		},
	}))

	res, err := f.Call("admin_list_users", map[string]any{"max_results": 1000, "show_suspended": false})
	require.NoError(t, err)

	text := tooltest.Text(res)
	assert.Contains(t, text, "Found 2 user(s)")
	assert.Contains(t, text, "Ada Lovelace")
	assert.Contains(t, text, "Last Login: Never")
	assert.Contains(t, text, "Status: SUSPENDED")

	req := f.LastRequest()
	assert.Equal(t, []string{"500"}, req.Query["maxResults"])
	assert.Equal(t, []string{"isSuspended=false"}, req.Query["query"])
}

func TestListUsersRejectsBadOrgUnit(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)

	_, err := f.Call("admin_list_users", map[string]any{"org_unit_path": "Sales"})
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.ReasonInvalidArgument, fe.Reason)
	assert.Equal(t, "org_unit_path", fe.Field)
	assert.Empty(t, f.Requests())
}

func TestGetUserNotFound(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	f.Mux.HandleFunc("GET /admin/directory/v1/users/{key}", tooltest.APIError(http.StatusNotFound, "notFound", "Resource Not Found: userKey"))

	_, err := f.Call("admin_get_user", map[string]any{"target_user": "ghost@example.com"})
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.KindUpstream, fe.Kind)
	assert.Equal(t, failure.ReasonNotFound, fe.Reason)
	assert.Len(t, f.Requests(), 1, "not found is not retried")
}

func TestCreateUserGeneratesPassword(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	f.Mux.HandleFunc("POST /admin/directory/v1/users", tooltest.JSON(map[string]any{"id": "10001", "primaryEmail": "new@example.com"}))

	res, err := f.Call("admin_create_user", map[string]any{
		"email":      "new@example.com",
		"first_name": "New",
		"last_name":  "Hire",
	})
	require.NoError(t, err)
	assert.Contains(t, tooltest.Text(res), "Generated password:")

	body := f.LastRequest().Body
	assert.Equal(t, "new@example.com", body["primaryEmail"])
	assert.Equal(t, "/", body["orgUnitPath"])
	assert.Equal(t, true, body["changePasswordAtNextLogin"])
	pw, _ := body["password"].(string)
	assert.Len(t, pw, generatedPasswordLength)
}

func TestCreateUserValidation(t *testing.T) {
	tests := []struct {
		name  string
		args  map[string]any
		field string
	}{
		{"bad email", map[string]any{"email": "nope", "first_name": "A", "last_name": "B"}, "email"},
		{"weak password", map[string]any{"email": "a@example.com", "first_name": "A", "last_name": "B", "password": "password"}, "password"},
		{"bad name", map[string]any{"email": "a@example.com", "first_name": "<A>", "last_name": "B"}, "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tooltest.New(t, RegisterUserTools, false)
			_, err := f.Call("admin_create_user", tt.args)
			fe, ok := failure.As(err)
			require.True(t, ok)
			assert.Equal(t, failure.KindValidation, fe.Kind)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestUpdateUserRequiresAField(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	_, err := f.Call("admin_update_user", map[string]any{"target_user": "a@example.com"})
	assert.Equal(t, failure.KindValidation, failure.KindOf(err))
}

func TestSuspendAndRestore(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	f.Mux.HandleFunc("PATCH /admin/directory/v1/users/{key}", tooltest.JSON(map[string]any{"primaryEmail": "a@example.com"}))

	res, err := f.Call("admin_suspend_user", map[string]any{"target_user": "a@example.com", "suspend": true, "reason": "left the company"})
	require.NoError(t, err)
	assert.Contains(t, tooltest.Text(res), "has been suspended")
	body := f.LastRequest().Body
	assert.Equal(t, true, body["suspended"])
	assert.Equal(t, "left the company", body["suspensionReason"])

	res, err = f.Call("admin_suspend_user", map[string]any{"target_user": "a@example.com", "suspend": false})
	require.NoError(t, err)
	assert.Contains(t, tooltest.Text(res), "restored")
	assert.Equal(t, false, f.LastRequest().Body["suspended"])
}

func TestResetPassword(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	f.Mux.HandleFunc("PATCH /admin/directory/v1/users/{key}", tooltest.JSON(map[string]any{"primaryEmail": "a@example.com"}))

	_, err := f.Call("admin_reset_password", map[string]any{
		"target_user":             "a@example.com",
		"new_password":            "Correct-Horse-9",
		"force_change_next_login": false,
	})
	require.NoError(t, err)
	body := f.LastRequest().Body
	assert.Equal(t, "Correct-Horse-9", body["password"])
	assert.Equal(t, false, body["changePasswordAtNextLogin"])
}

func TestDeleteUserNeedsConfirmation(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	f.Mux.HandleFunc("DELETE /admin/directory/v1/users/{key}", tooltest.NoContent)

	_, err := f.Call("admin_delete_user", map[string]any{"target_user": "a@example.com"})
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.ReasonConfirmationRequired, fe.Reason)
	assert.Empty(t, f.Requests())

	res, err := f.Call("admin_delete_user", map[string]any{"target_user": "a@example.com", "confirm": true})
	require.NoError(t, err)
	assert.Contains(t, tooltest.Text(res), "deleted")
	assert.Equal(t, http.MethodDelete, f.LastRequest().Method)
}

func TestServerErrorsAreRetried(t *testing.T) {
	f := tooltest.New(t, RegisterUserTools, false)
	var calls atomic.Int32
	f.Mux.HandleFunc("GET /admin/directory/v1/users/{key}", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			tooltest.APIError(http.StatusServiceUnavailable, "backendError", "try again")(w, r)
			return
		}
		tooltest.JSON(map[string]any{"primaryEmail": "a@example.com", "name": map[string]any{"fullName": "A"}})(w, r)
	})

	res, err := f.Call("admin_get_user", map[string]any{"target_user": "a@example.com"})
	require.NoError(t, err)
	assert.Contains(t, tooltest.Text(res), "a@example.com")
	assert.Equal(t, int32(3), calls.Load())
}
