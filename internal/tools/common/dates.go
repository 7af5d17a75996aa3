package common

import (
	"strings"
	"time"

	"github.com/teemow/gsuiteadmin/internal/failure"
)

const reportDateLayout = "2006-01-02"

// ResolveReportDate turns a date argument into YYYY-MM-DD. "today" and
// empty resolve to yesterday because reports lag by about a day.
func ResolveReportDate(field, value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "", "today":
		return now.UTC().AddDate(0, 0, -1).Format(reportDateLayout), nil
	case "yesterday":
		return now.UTC().AddDate(0, 0, -2).Format(reportDateLayout), nil
	}
	d, err := time.Parse(reportDateLayout, value)
	if err != nil {
		return "", failure.InvalidArgument(field, "date %q must be YYYY-MM-DD or 'today'", value)
	}
	if d.After(now.UTC()) {
		return "", failure.InvalidArgument(field, "date %s is in the future", value)
	}
	return value, nil
}

// relativeWindows maps shorthand start times to their look-back window.
var relativeWindows = map[string]time.Duration{
	"today": 24 * time.Hour,
	"1d":    24 * time.Hour,
	"7d":    7 * 24 * time.Hour,
	"30d":   30 * 24 * time.Hour,
}

// ResolveStartTime turns a start_time argument into RFC 3339. It accepts
// the shorthands today, 1d, 7d and 30d, a date, or an RFC 3339 timestamp.
func ResolveStartTime(field, value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if w, ok := relativeWindows[strings.ToLower(value)]; ok {
		return now.UTC().Add(-w).Format(time.RFC3339), nil
	}
	return ResolveTimestamp(field, value)
}

// ResolveTimestamp accepts a date or an RFC 3339 timestamp and returns
// RFC 3339.
func ResolveTimestamp(field, value string) (string, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format(time.RFC3339), nil
	}
	if d, err := time.Parse(reportDateLayout, value); err == nil {
		return d.UTC().Format(time.RFC3339), nil
	}
	return "", failure.InvalidArgument(field, "%q is not a date, an RFC 3339 time or one of today, 1d, 7d, 30d", value)
}
