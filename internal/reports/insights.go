package reports

import (
	"cmp"
	"context"
	"slices"
	"strings"
)

// LoginInsights summarizes the login audit log of one day.
type LoginInsights struct {
	Total         int
	ByEvent       []EventCount
	Failed        int
	Suspicious    int
	DistinctUsers int
}

// EventCount is the number of occurrences of one event name.
type EventCount struct {
	Name  string
	Count int
}

// LoginInsights analyzes up to limit login activities starting at startTime.
func (c *Client) LoginInsights(ctx context.Context, startTime, endTime string, limit int) (*LoginInsights, error) {
	activities, err := c.Activities(ctx, ActivityOptions{
		ApplicationName: "login",
		StartTime:       startTime,
		EndTime:         endTime,
		MaxResults:      limit,
	})
	if err != nil {
		return nil, err
	}
	return summarizeLogins(activities), nil
}

func summarizeLogins(activities []Activity) *LoginInsights {
	out := &LoginInsights{Total: len(activities)}
	counts := map[string]int{}
	users := map[string]struct{}{}
	for _, a := range activities {
		if a.ActorEmail != "" {
			users[a.ActorEmail] = struct{}{}
		}
		for _, e := range a.Events {
			counts[e.Name]++
			name := strings.ToLower(e.Name)
			if strings.Contains(name, "fail") {
				out.Failed++
			}
			if strings.Contains(name, "suspicious") {
				out.Suspicious++
			}
		}
	}
	out.DistinctUsers = len(users)
	out.ByEvent = topCounts(counts)
	return out
}

// AppInsights counts audit activity per application for one day.
type AppInsights struct {
	Applications []EventCount
	Errors       map[string]string
}

// ApplicationActivity counts activities of each application starting at
// startTime. Applications that fail are reported in Errors and do not
// abort the summary.
func (c *Client) ApplicationActivity(ctx context.Context, apps []string, startTime, endTime string, limit int) (*AppInsights, error) {
	out := &AppInsights{}
	counts := map[string]int{}
	for _, app := range apps {
		activities, err := c.Activities(ctx, ActivityOptions{
			ApplicationName: app,
			StartTime:       startTime,
			EndTime:         endTime,
			MaxResults:      limit,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if out.Errors == nil {
				out.Errors = make(map[string]string)
			}
			out.Errors[app] = err.Error()
			continue
		}
		counts[app] = len(activities)
	}
	out.Applications = topCounts(counts)
	return out, nil
}

// topCounts orders counts by descending count, then by name.
func topCounts(counts map[string]int) []EventCount {
	out := make([]EventCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, EventCount{Name: name, Count: n})
	}
	slices.SortFunc(out, func(a, b EventCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
