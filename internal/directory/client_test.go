package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/gsuiteadmin/internal/google"
)

type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recorded
	mux      *http.ServeMux
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if body, _ := io.ReadAll(r.Body); len(body) > 0 {
		_ = json.Unmarshal(body, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

func (f *fakeAPI) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, routes map[string]http.HandlerFunc) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{mux: http.NewServeMux()}
	for pattern, h := range routes {
		api.mux.HandleFunc(pattern, h)
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cred := &google.Credential{
		Email:       "admin@example.com",
		AccessToken: "test-token",
		Expiry:      time.Now().Add(time.Hour),
	}
	c, err := NewClient(context.Background(), cred,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, api
}

func TestListUsers_PaginatesAndFilters(t *testing.T) {
	c, api := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/users": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("pageToken") == "" {
				writeJSON(w, http.StatusOK, map[string]any{
					"users": []map[string]any{
						{"id": "1", "primaryEmail": "a@example.com", "name": map[string]any{"givenName": "Ada", "familyName": "Lovelace"}},
						{"id": "2", "primaryEmail": "b@example.com", "isAdmin": true},
					},
					"nextPageToken": "p2",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"users": []map[string]any{{"id": "3", "primaryEmail": "c@example.com"}},
			})
		},
	})

	users, err := c.ListUsers(context.Background(), ListUsersOptions{OrgUnitPath: "/Sales", MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a@example.com", users[0].Email)
	assert.Equal(t, "Ada Lovelace", users[0].FullName)
	assert.Equal(t, "Super Admin", users[1].Role())
	assert.Equal(t, "User", users[2].Role())

	req := api.last()
	assert.Equal(t, "my_customer", req.Query["customer"][0])
	assert.Equal(t, "orgUnitPath='/Sales' isSuspended=false", req.Query["query"][0])
}

func TestListUsers_StopsAtMaxResults(t *testing.T) {
	calls := 0
	c, api := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/users": func(w http.ResponseWriter, r *http.Request) {
			calls++
			writeJSON(w, http.StatusOK, map[string]any{
				"users": []map[string]any{
					{"id": "1", "primaryEmail": "a@example.com"},
					{"id": "2", "primaryEmail": "b@example.com"},
				},
				"nextPageToken": "more",
			})
		},
	})

	users, err := c.ListUsers(context.Background(), ListUsersOptions{Domain: "example.com", ShowSuspended: true, MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, calls)

	req := api.last()
	assert.Equal(t, "example.com", req.Query["domain"][0])
	assert.Empty(t, req.Query["query"])
	assert.Equal(t, "2", req.Query["maxResults"][0])
}

func TestGetUser_NotFoundKeepsAPIError(t *testing.T) {
	c, _ := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/users/{key}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"code": 404, "message": "Resource Not Found: userKey"},
			})
		},
	})

	_, err := c.GetUser(context.Background(), "ghost@example.com")
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Contains(t, err.Error(), "failed to get user ghost@example.com")
}

func TestUpdateUser_SendsExplicitFalse(t *testing.T) {
	c, api := newTestClient(t, map[string]http.HandlerFunc{
		"PATCH /admin/directory/v1/users/{key}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": "1", "primaryEmail": r.PathValue("key")})
		},
	})

	suspended := false
	u, err := c.UpdateUser(context.Background(), "a@example.com", UserPatch{Suspended: &suspended})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	req := api.last()
	assert.Equal(t, false, req.Body["suspended"])
	assert.NotContains(t, req.Body, "name")
}

func TestOrgUnitPathParameterOmitsLeadingSlash(t *testing.T) {
	c, api := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/customer/{customer}/orgunits/{path...}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"orgUnitId":   "id:42",
				"name":        "Eng",
				"orgUnitPath": "/" + r.PathValue("path"),
			})
		},
	})

	ou, err := c.GetOrgUnit(context.Background(), "", "/Corp/Eng")
	require.NoError(t, err)
	assert.Equal(t, "/Corp/Eng", ou.Path)
	assert.True(t, strings.HasSuffix(api.last().Path, "/orgunits/Corp/Eng"))
}

func TestManageMobileDevice(t *testing.T) {
	c, api := newTestClient(t, map[string]http.HandlerFunc{
		"POST /admin/directory/v1/customer/{customer}/devices/mobile/{id}/action": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
		"DELETE /admin/directory/v1/customer/{customer}/devices/mobile/{id}": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		},
	})

	require.NoError(t, c.ManageMobileDevice(context.Background(), "", "dev-1", ActionBlock))
	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "block", req.Body["action"])

	require.NoError(t, c.ManageMobileDevice(context.Background(), "C123", "dev-1", ActionDelete))
	req = api.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Contains(t, req.Path, "/customer/C123/")
}

func TestAssignRole_ResolvesUserID(t *testing.T) {
	c, api := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/users/{key}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": "10042", "primaryEmail": r.PathValue("key")})
		},
		"POST /admin/directory/v1/customer/{customer}/roleassignments": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"roleAssignmentId": "77",
				"roleId":           "5",
				"assignedTo":       "10042",
				"scopeType":        "CUSTOMER",
			})
		},
	})

	a, err := c.AssignRole(context.Background(), "", "helpdesk@example.com", "5")
	require.NoError(t, err)
	assert.Equal(t, "77", a.ID)
	assert.Equal(t, "10042", a.AssignedTo)

	req := api.last()
	assert.Equal(t, "10042", req.Body["assignedTo"])
	assert.Equal(t, "CUSTOMER", req.Body["scopeType"])

	_, err = c.AssignRole(context.Background(), "", "helpdesk@example.com", "not-a-number")
	require.Error(t, err)
}

func TestRemoveRole(t *testing.T) {
	var deleted []string
	c, _ := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/customer/{customer}/roleassignments": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("roleId") == "9" {
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"items": []map[string]any{
					{"roleAssignmentId": "1", "roleId": "5", "assignedTo": "10042"},
				},
			})
		},
		"DELETE /admin/directory/v1/customer/{customer}/roleassignments/{id}": func(w http.ResponseWriter, r *http.Request) {
			deleted = append(deleted, r.PathValue("id"))
			w.WriteHeader(http.StatusNoContent)
		},
	})

	removed, err := c.RemoveRole(context.Background(), "", "helpdesk@example.com", "5")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []string{"1"}, deleted)

	removed, err = c.RemoveRole(context.Background(), "", "helpdesk@example.com", "9")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListDomainAliasesConvertsTimes(t *testing.T) {
	c, _ := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/customer/{customer}/domainaliases": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"domainAliases": []map[string]any{
					{"domainAliasName": "alias.example.com", "parentDomainName": "example.com", "verified": true, "creationTime": "1700000000000"},
				},
			})
		},
	})

	aliases, err := c.ListDomainAliases(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, aliases, 1)
	assert.True(t, aliases[0].Verified)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), aliases[0].Created)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, []int{1, 2}, truncate([]int{1, 2, 3}, 2))
	assert.Equal(t, []int{1}, truncate([]int{1}, 5))
}

func TestToChromeDeviceSummarySkipsEmptyRecentUsers(t *testing.T) {
	c, _ := newTestClient(t, map[string]http.HandlerFunc{
		"GET /admin/directory/v1/customer/{customer}/devices/chromeos/{id}": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"deviceId":     r.PathValue("id"),
				"serialNumber": "SN1",
				"recentUsers":  []map[string]any{{"email": "a@example.com"}, {"type": "USER_TYPE_UNMANAGED"}},
			})
		},
	})

	d, err := c.GetChromeDevice(context.Background(), "", "cros-1")
	require.NoError(t, err)
	assert.Equal(t, "cros-1", d.DeviceID)
	assert.Equal(t, []string{"a@example.com"}, d.RecentUsers)
}
