package report_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/google"
	"github.com/teemow/gsuiteadmin/internal/instrumentation"
	"github.com/teemow/gsuiteadmin/internal/reports"
	"github.com/teemow/gsuiteadmin/internal/server"
	"github.com/teemow/gsuiteadmin/internal/tools/common"
)

const category = "reports"

// Output limits keep tool results readable.
const (
	maxUsageReportsShown = 10
	maxParametersShown   = 10
	maxActivitiesShown   = 20
	maxEventsShown       = 3
	maxEventParamsShown  = 2
	insightActivityLimit = 1000
)

// Defaults mirror the metrics most admins ask for.
const (
	defaultUserParameters     = "accounts:num_users,accounts:used_quota_in_mb"
	defaultCustomerParameters = "accounts:total_quota_in_mb,accounts:used_quota_in_mb,accounts:num_users"
)

// AuditApplications are the application names accepted by the activities
// endpoint.
var AuditApplications = []string{
	"access_transparency", "admin", "calendar", "chat", "chrome", "context_aware_access",
	"data_studio", "drive", "gcp", "groups", "groups_enterprise", "jamboard", "keep",
	"login", "meet", "mobile", "rules", "saml", "token", "user_accounts",
}

// insightApplications are summarized by the apps insight.
var insightApplications = []string{"admin", "calendar", "drive", "groups", "login", "mobile", "token"}

var (
	usageScopes    = []string{google.ScopeReportsUsage}
	auditScopes    = []string{google.ScopeReportsAudit}
	insightsScopes = []string{google.ScopeReportsAudit, google.ScopeReportsUsage}
)

// now is replaced in tests.
var now = time.Now

// withParameters declares an argument that takes a comma-separated string
// or an array of strings. The schema leaves the type open for that reason.
func withParameters(tool mcp.Tool, def string) mcp.Tool {
	tool.InputSchema.Properties["parameters"] = map[string]any{
		"description": fmt.Sprintf("Parameters to include, as a comma-separated string or an array (default: '%s')", def),
	}
	return tool
}

func withDate() mcp.ToolOption {
	return mcp.WithString("date",
		mcp.Description("Report date as YYYY-MM-DD, or 'today' for the most recent report (default: today)"),
	)
}

// RegisterReportTools registers all report tools. Every report tool is
// read-only.
func RegisterReportTools(reg *dispatch.Registry, sc *server.ServerContext, readOnly bool) error {
	return common.RegisterAll(reg, readOnly,
		dispatch.ToolDescriptor{
			Tool: withParameters(mcp.NewTool("admin_get_usage_reports",
				mcp.WithDescription("Get per-user usage reports for Google Workspace applications."),
				common.WithUserID(),
				mcp.WithString("user_key",
					mcp.Description("User email, or 'all' for every user (default: all)"),
				),
				withDate(),
				common.WithMaxResults(),
			), defaultUserParameters),
			RequiredScopes: usageScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleUsageReports(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_audit_activities",
				mcp.WithDescription("List audit log activities of one application."),
				common.WithUserID(),
				mcp.WithString("application_name",
					mcp.Required(),
					mcp.Description("Application whose audit log to read"),
					mcp.Enum(AuditApplications...),
				),
				mcp.WithString("start_time",
					mcp.Description("Start of the window: RFC 3339 time, YYYY-MM-DD, or one of today, 1d, 7d, 30d (default: 1d)"),
				),
				mcp.WithString("end_time",
					mcp.Description("End of the window: RFC 3339 time or YYYY-MM-DD"),
				),
				mcp.WithString("actor_email",
					mcp.Description("Only activities performed by this user"),
				),
				mcp.WithString("event_name",
					mcp.Description("Only activities with this event name (e.g. 'login_failure')"),
				),
				common.WithMaxResults(),
			),
			RequiredScopes: auditScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleAuditActivities(sc),
		},
		dispatch.ToolDescriptor{
			Tool: withParameters(mcp.NewTool("admin_get_customer_usage_reports",
				mcp.WithDescription("Get customer-level usage reports for the whole domain."),
				common.WithUserID(),
				common.WithCustomerID(),
				withDate(),
			), defaultCustomerParameters),
			RequiredScopes: usageScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleCustomerUsageReports(sc),
		},
		dispatch.ToolDescriptor{
			Tool: mcp.NewTool("admin_get_domain_insights",
				mcp.WithDescription("Summarize one day of domain activity: login security, storage usage, admin activity or application activity."),
				common.WithUserID(),
				withDate(),
				mcp.WithString("insight_type",
					mcp.Description("Kind of insight (default: security)"),
					mcp.Enum("security", "usage", "activity", "apps"),
				),
			),
			RequiredScopes: insightsScopes,
			Category:       category,
			ReadOnly:       true,
			Handler:        handleDomainInsights(sc),
		},
	)
}

func parameters(args dispatch.Arguments, def string) []string {
	if p := args.StringList("parameters"); len(p) > 0 {
		return p
	}
	return strings.Split(def, ",")
}

func handleUsageReports(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		date, err := common.ResolveReportDate("date", args.String("date"), now())
		if err != nil {
			return nil, err
		}
		userKey := args.StringDefault("user_key", reports.AllUsers)
		if userKey != reports.AllUsers {
			if err := common.ValidateEmail("user_key", userKey); err != nil {
				return nil, err
			}
		}
		opts := reports.UserUsageOptions{
			UserKey:    userKey,
			Date:       date,
			Parameters: parameters(args, defaultUserParameters),
			MaxResults: common.MaxResults(args),
		}

		client, err := sc.Reports(cred)
		if err != nil {
			return nil, err
		}
		usage, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceReports, instrumentation.OperationGet,
			func(ctx context.Context) (*reports.UsageResult, error) {
				return client.UserUsage(ctx, opts)
			})
		if err != nil {
			return nil, err
		}
		if len(usage.Reports) == 0 {
			return dispatch.TextResult(fmt.Sprintf("No usage reports found for %s on %s.", userKey, date)), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Usage Report for %s on %s:\n\n", strings.Join(opts.Parameters, ", "), date))
		if userKey == reports.AllUsers {
			result.WriteString(fmt.Sprintf("Found %d user report(s):\n\n", len(usage.Reports)))
		}
		for i, r := range usage.Reports {
			if i == maxUsageReportsShown {
				result.WriteString(fmt.Sprintf("... and %d more users\n", len(usage.Reports)-maxUsageReportsShown))
				break
			}
			result.WriteString(fmt.Sprintf("%d. User: %s\n", i+1, common.OrDash(r.UserEmail)))
			writeParameters(&result, r.Parameters, maxParametersShown)
			result.WriteString("\n")
		}
		writeWarnings(&result, usage.Warnings)
		return dispatch.TextResult(result.String()), nil
	}
}

func handleCustomerUsageReports(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		date, err := common.ResolveReportDate("date", args.String("date"), now())
		if err != nil {
			return nil, err
		}
		customer := common.CustomerID(args)
		params := parameters(args, defaultCustomerParameters)

		client, err := sc.Reports(cred)
		if err != nil {
			return nil, err
		}
		usage, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceReports, instrumentation.OperationGet,
			func(ctx context.Context) (*reports.UsageResult, error) {
				return client.CustomerUsage(ctx, customer, date, params)
			})
		if err != nil {
			return nil, err
		}
		if len(usage.Reports) == 0 {
			return dispatch.TextResult(fmt.Sprintf("No customer usage reports found for %s.", date)), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Customer Usage Report for %s:\n\n", date))
		for _, r := range usage.Reports {
			result.WriteString(fmt.Sprintf("Customer: %s (Type: %s)\n", common.OrDash(r.CustomerID), common.OrDash(r.EntityType)))
			writeParameters(&result, r.Parameters, len(r.Parameters))
			result.WriteString("\n")
		}
		writeWarnings(&result, usage.Warnings)
		return dispatch.TextResult(result.String()), nil
	}
}

func handleAuditActivities(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		startTime, err := common.ResolveStartTime("start_time", args.StringDefault("start_time", "1d"), now())
		if err != nil {
			return nil, err
		}
		var endTime string
		if v, ok := args.OptionalString("end_time"); ok && v != "" {
			if endTime, err = common.ResolveTimestamp("end_time", v); err != nil {
				return nil, err
			}
		}
		userKey := reports.AllUsers
		if actor, ok := args.OptionalString("actor_email"); ok && actor != "" {
			if err := common.ValidateEmail("actor_email", actor); err != nil {
				return nil, err
			}
			userKey = actor
		}
		opts := reports.ActivityOptions{
			ApplicationName: args.String("application_name"),
			UserKey:         userKey,
			StartTime:       startTime,
			EndTime:         endTime,
			EventName:       args.String("event_name"),
			MaxResults:      common.MaxResults(args),
		}

		client, err := sc.Reports(cred)
		if err != nil {
			return nil, err
		}
		activities, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceReports, instrumentation.OperationList,
			func(ctx context.Context) ([]reports.Activity, error) {
				return client.Activities(ctx, opts)
			})
		if err != nil {
			return nil, err
		}
		if len(activities) == 0 {
			return dispatch.TextResult(fmt.Sprintf("No audit activities found for %s since %s.", opts.ApplicationName, startTime)), nil
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Audit Activities for %s since %s:\n\n", opts.ApplicationName, startTime))
		result.WriteString(fmt.Sprintf("Found %d activit%s:\n\n", len(activities), pluralY(len(activities))))
		for i, a := range activities {
			if i == maxActivitiesShown {
				result.WriteString(fmt.Sprintf("... and %d more activities\n", len(activities)-maxActivitiesShown))
				break
			}
			result.WriteString(fmt.Sprintf("%d. Activity at %s\n", i+1, common.OrDash(a.Time)))
			result.WriteString(fmt.Sprintf("   Actor: %s\n", common.OrDash(a.ActorEmail)))
			if a.IPAddress != "" {
				result.WriteString(fmt.Sprintf("   IP Address: %s\n", a.IPAddress))
			}
			for j, e := range a.Events {
				if j == maxEventsShown {
					break
				}
				result.WriteString(fmt.Sprintf("   - %s: %s\n", common.OrDash(e.Type), e.Name))
				shown := 0
				for _, name := range sortedKeys(e.Parameters) {
					if shown == maxEventParamsShown {
						break
					}
					result.WriteString(fmt.Sprintf("     * %s: %s\n", name, e.Parameters[name]))
					shown++
				}
			}
			result.WriteString("\n")
		}
		return dispatch.TextResult(result.String()), nil
	}
}

func handleDomainInsights(sc *server.ServerContext) dispatch.HandlerFunc {
	return func(ctx context.Context, inv *dispatch.Invocation, cred *google.Credential) (*dispatch.Result, error) {
		args := inv.Arguments
		date, err := common.ResolveReportDate("date", args.String("date"), now())
		if err != nil {
			return nil, err
		}
		insight := args.StringDefault("insight_type", "security")
		day, _ := time.Parse(time.DateOnly, date)
		start := day.Format(time.RFC3339)
		end := day.AddDate(0, 0, 1).Format(time.RFC3339)

		client, err := sc.Reports(cred)
		if err != nil {
			return nil, err
		}

		var result strings.Builder
		result.WriteString(fmt.Sprintf("Domain Insights for %s - %s Report:\n\n", date, titleCase(insight)))

		switch insight {
		case "usage":
			usage, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceReports, instrumentation.OperationGet,
				func(ctx context.Context) (*reports.UsageResult, error) {
					return client.CustomerUsage(ctx, reports.MyCustomer, date, strings.Split(defaultCustomerParameters, ","))
				})
			if err != nil {
				return nil, err
			}
			if len(usage.Reports) == 0 {
				result.WriteString("No usage data available for this date.\n")
				break
			}
			result.WriteString("Domain Usage Summary:\n")
			for _, r := range usage.Reports {
				writeParameters(&result, r.Parameters, len(r.Parameters))
			}

		case "activity", "apps":
			apps := []string{"login", "admin"}
			if insight == "apps" {
				apps = insightApplications
			}
			summary, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceReports, instrumentation.OperationList,
				func(ctx context.Context) (*reports.AppInsights, error) {
					return client.ApplicationActivity(ctx, apps, start, end, insightActivityLimit)
				})
			if err != nil {
				return nil, err
			}
			result.WriteString("Activity by Application:\n")
			for _, c := range summary.Applications {
				result.WriteString(fmt.Sprintf("   - %s: %d\n", c.Name, c.Count))
			}
			for _, app := range sortedKeys(summary.Errors) {
				result.WriteString(fmt.Sprintf("   - %s: unavailable (%s)\n", app, summary.Errors[app]))
			}

		default:
			logins, err := common.Call(ctx, sc.Metrics(), instrumentation.ServiceReports, instrumentation.OperationList,
				func(ctx context.Context) (*reports.LoginInsights, error) {
					return client.LoginInsights(ctx, start, end, insightActivityLimit)
				})
			if err != nil {
				return nil, err
			}
			if logins.Total == 0 {
				result.WriteString("No security activities found for this date.\n")
				break
			}
			result.WriteString("Security Activity Summary:\n")
			result.WriteString(fmt.Sprintf("   Total login events: %d\n", logins.Total))
			result.WriteString(fmt.Sprintf("   Distinct users: %d\n\n", logins.DistinctUsers))
			result.WriteString("Login Event Breakdown:\n")
			for i, c := range logins.ByEvent {
				if i == 5 {
					break
				}
				result.WriteString(fmt.Sprintf("   - %s: %d\n", c.Name, c.Count))
			}
			if logins.Failed > 0 || logins.Suspicious > 0 {
				result.WriteString("\nSecurity Alerts:\n")
				result.WriteString(fmt.Sprintf("   - Failed logins: %d\n", logins.Failed))
				result.WriteString(fmt.Sprintf("   - Suspicious activities: %d\n", logins.Suspicious))
			}
		}
		return dispatch.TextResult(result.String()), nil
	}
}
