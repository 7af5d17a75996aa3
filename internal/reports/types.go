package reports

import (
	"fmt"
	"strconv"
	"strings"

	reportsapi "google.golang.org/api/admin/reports/v1"
)

// UsageResult is a usage report for one date.
type UsageResult struct {
	Date     string
	Reports  []UsageReport
	Warnings []string
}

func (r *UsageResult) add(resp *reportsapi.UsageReports) {
	for _, u := range resp.UsageReports {
		r.Reports = append(r.Reports, toUsageReport(u))
	}
	for _, w := range resp.Warnings {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", w.Code, w.Message))
	}
}

// UsageReport is the usage of one entity (a user or the customer).
type UsageReport struct {
	EntityType string
	UserEmail  string
	ProfileID  string
	CustomerID string
	Parameters []Parameter
}

// Parameter is one usage metric. Value holds its rendered value.
type Parameter struct {
	Name  string
	Value string
	// Int is set for integer metrics.
	Int   int64
	IsInt bool
}

// FormatValue renders the parameter for display. Quota metrics reported in
// megabytes are shown in GB.
func (p Parameter) FormatValue() string {
	if p.IsInt && strings.Contains(p.Name, "quota_in_mb") {
		return fmt.Sprintf("%.2f GB", float64(p.Int)/1024)
	}
	return p.Value
}

func toUsageReport(u *reportsapi.UsageReport) UsageReport {
	r := UsageReport{}
	if u.Entity != nil {
		r.EntityType = u.Entity.Type
		r.UserEmail = u.Entity.UserEmail
		r.ProfileID = u.Entity.ProfileId
		r.CustomerID = u.Entity.CustomerId
	}
	for _, p := range u.Parameters {
		r.Parameters = append(r.Parameters, toParameter(p))
	}
	return r
}

func toParameter(p *reportsapi.UsageReportParameters) Parameter {
	out := Parameter{Name: p.Name}
	switch {
	case p.StringValue != "":
		out.Value = p.StringValue
	case p.DatetimeValue != "":
		out.Value = p.DatetimeValue
	case len(p.MsgValue) > 0:
		out.Value = fmt.Sprintf("%d entries", len(p.MsgValue))
	case p.BoolValue:
		out.Value = "true"
	default:
		out.Int = p.IntValue
		out.IsInt = true
		out.Value = strconv.FormatInt(p.IntValue, 10)
	}
	return out
}

// Activity is one audit log entry.
type Activity struct {
	Time            string
	UniqueQualifier string
	ApplicationName string
	ActorEmail      string
	ActorProfileID  string
	IPAddress       string
	Events          []Event
}

// Event is one event inside an activity.
type Event struct {
	Type       string
	Name       string
	Parameters map[string]string
}

func toActivity(a *reportsapi.Activity) Activity {
	out := Activity{IPAddress: a.IpAddress}
	if a.Id != nil {
		out.Time = a.Id.Time
		out.UniqueQualifier = strconv.FormatInt(a.Id.UniqueQualifier, 10)
		out.ApplicationName = a.Id.ApplicationName
	}
	if a.Actor != nil {
		out.ActorEmail = a.Actor.Email
		out.ActorProfileID = a.Actor.ProfileId
	}
	for _, e := range a.Events {
		ev := Event{Type: e.Type, Name: e.Name}
		for _, p := range e.Parameters {
			if ev.Parameters == nil {
				ev.Parameters = make(map[string]string)
			}
			ev.Parameters[p.Name] = eventParameterValue(p)
		}
		out.Events = append(out.Events, ev)
	}
	return out
}

func eventParameterValue(p *reportsapi.ActivityEventsParameters) string {
	switch {
	case p.Value != "":
		return p.Value
	case len(p.MultiValue) > 0:
		return strings.Join(p.MultiValue, ", ")
	case p.IntValue != 0:
		return strconv.FormatInt(p.IntValue, 10)
	default:
		return strconv.FormatBool(p.BoolValue)
	}
}
