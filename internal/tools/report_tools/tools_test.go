package report_tools

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gsuiteadmin/internal/failure"
	"github.com/teemow/gsuiteadmin/internal/tools/tooltest"
)

func fixedClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestRegisterReportToolsAreReadOnly(t *testing.T) {
	assert.Equal(t, 4, tooltest.New(t, RegisterReportTools, false).Registry.Len())
	assert.Equal(t, 4, tooltest.New(t, RegisterReportTools, true).Registry.Len())
}

func TestUsageReportsTodayMeansYesterday(t *testing.T) {
	fixedClock(t)
	f := tooltest.New(t, RegisterReportTools, false)
	f.Mux.HandleFunc("GET /admin/reports/v1/usage/users/{user}/dates/{date}", tooltest.JSON(map[string]any{
		"usageReports": []map[string]any{{
			"entity": map[string]any{"type": "USER", "userEmail": "jane@example.com"},
			"parameters": []map[string]any{
				{"name": "accounts:used_quota_in_mb", "intValue": "2048"},
			},
		}},
	}))

	res, err := f.Call("admin_get_usage_reports", map[string]any{"date": "today"})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "on 2026-10-18")
	assert.Contains(t, text, "jane@example.com")
	assert.Contains(t, text, "accounts:used_quota_in_mb: 2.00 GB")

	req := f.LastRequest()
	assert.Equal(t, "/admin/reports/v1/usage/users/all/dates/2026-10-18", req.Path)
	assert.Equal(t, []string{defaultUserParameters}, req.Query["parameters"])
}

func TestUsageReportsParameters(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string", value: "gmail:num_emails_sent, gmail:num_emails_received", want: "gmail:num_emails_sent,gmail:num_emails_received"},
		{name: "array", value: []any{"gmail:num_emails_sent", "drive:num_items_created"}, want: "gmail:num_emails_sent,drive:num_items_created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixedClock(t)
			f := tooltest.New(t, RegisterReportTools, false)
			f.Mux.HandleFunc("GET /admin/reports/v1/usage/users/{user}/dates/{date}", tooltest.JSON(map[string]any{}))

			_, err := f.Call("admin_get_usage_reports", map[string]any{"date": "2026-10-01", "parameters": tt.value})
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, f.LastRequest().Query["parameters"])
		})
	}
}

func TestUsageReportsRejectsFutureDate(t *testing.T) {
	fixedClock(t)
	f := tooltest.New(t, RegisterReportTools, false)

	_, err := f.Call("admin_get_usage_reports", map[string]any{"date": "2026-12-01"})
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.ReasonInvalidArgument, fe.Reason)
	assert.Equal(t, "date", fe.Field)
	assert.Empty(t, f.Requests())
}

func TestAuditActivities(t *testing.T) {
	fixedClock(t)
	f := tooltest.New(t, RegisterReportTools, false)
	f.Mux.HandleFunc("GET /admin/reports/v1/activity/users/{user}/applications/{app}", tooltest.JSON(map[string]any{
		"items": []map[string]any{{
			"id":        map[string]any{"time": "2026-10-18T10:00:00Z", "applicationName": "login"},
			"actor":     map[string]any{"email": "jane@example.com"},
			"ipAddress": "203.0.113.7",
			"events": []map[string]any{{
				"type": "login",
				"name": "login_failure",
				"parameters": []map[string]any{
					{"name": "login_type", "value": "google_password"},
				},
			}},
		}},
	}))

	res, err := f.Call("admin_get_audit_activities", map[string]any{
		"application_name": "login",
		"start_time":       "7d",
		"actor_email":      "jane@example.com",
	})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "Found 1 activity")
	assert.Contains(t, text, "login: login_failure")
	assert.Contains(t, text, "login_type: google_password")

	req := f.LastRequest()
	assert.Equal(t, "/admin/reports/v1/activity/users/jane@example.com/applications/login", req.Path)
	assert.Equal(t, []string{"2026-10-12T15:30:00Z"}, req.Query["startTime"])
}

func TestAuditActivitiesRejectsUnknownApplication(t *testing.T) {
	f := tooltest.New(t, RegisterReportTools, false)
	_, err := f.Call("admin_get_audit_activities", map[string]any{"application_name": "gplus2"})
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.ReasonSchemaMismatch, fe.Reason)
}

func TestCustomerUsageReports(t *testing.T) {
	fixedClock(t)
	f := tooltest.New(t, RegisterReportTools, false)
	f.Mux.HandleFunc("GET /admin/reports/v1/usage/dates/{date}", tooltest.JSON(map[string]any{
		"usageReports": []map[string]any{{
			"entity":     map[string]any{"type": "CUSTOMER", "customerId": "C0123"},
			"parameters": []map[string]any{{"name": "accounts:num_users", "intValue": "42"}},
		}},
		"warnings": []map[string]any{{"code": "PARTIAL_DATA_AVAILABLE", "message": "Data is partial"}},
	}))

	res, err := f.Call("admin_get_customer_usage_reports", map[string]any{"date": "2026-10-10"})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "Customer: C0123 (Type: CUSTOMER)")
	assert.Contains(t, text, "accounts:num_users: 42")
	assert.Contains(t, text, "PARTIAL_DATA_AVAILABLE")
	assert.Empty(t, f.LastRequest().Query["customerId"])
}

func TestDomainInsightsSecurity(t *testing.T) {
	fixedClock(t)
	f := tooltest.New(t, RegisterReportTools, false)
	f.Mux.HandleFunc("GET /admin/reports/v1/activity/users/{user}/applications/{app}", tooltest.JSON(map[string]any{
		"items": []map[string]any{
			{"actor": map[string]any{"email": "a@example.com"}, "events": []map[string]any{{"name": "login_success"}}},
			{"actor": map[string]any{"email": "b@example.com"}, "events": []map[string]any{{"name": "login_failure"}}},
			{"actor": map[string]any{"email": "b@example.com"}, "events": []map[string]any{{"name": "suspicious_login"}}},
		},
	}))

	res, err := f.Call("admin_get_domain_insights", map[string]any{"date": "2026-10-15"})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "Security Report")
	assert.Contains(t, text, "Total login events: 3")
	assert.Contains(t, text, "Distinct users: 2")
	assert.Contains(t, text, "Failed logins: 1")
	assert.Contains(t, text, "Suspicious activities: 1")

	req := f.LastRequest()
	assert.Equal(t, []string{"2026-10-15T00:00:00Z"}, req.Query["startTime"])
	assert.Equal(t, []string{"2026-10-16T00:00:00Z"}, req.Query["endTime"])
}

func TestDomainInsightsAppsReportsPartialFailures(t *testing.T) {
	fixedClock(t)
	f := tooltest.New(t, RegisterReportTools, false)
	f.Mux.HandleFunc("GET /admin/reports/v1/activity/users/{user}/applications/{app}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("app") == "token" {
			tooltest.APIError(http.StatusBadRequest, "badRequest", "not enabled")(w, r)
			return
		}
		tooltest.JSON(map[string]any{"items": []map[string]any{{"events": []map[string]any{{"name": "x"}}}}})(w, r)
	})

	res, err := f.Call("admin_get_domain_insights", map[string]any{"date": "2026-10-15", "insight_type": "apps"})
	require.NoError(t, err)
	text := tooltest.Text(res)
	assert.Contains(t, text, "drive: 1")
	assert.Contains(t, text, "token: unavailable")
}
