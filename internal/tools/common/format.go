package common

import (
	"strings"
	"time"
)

// YesNo renders a boolean for text output.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// OrDash renders empty strings as "-".
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// FormatTime renders t as RFC 3339 or "-" when zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}

// Plural returns singular when n is 1 and singular+"s" otherwise.
func Plural(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}
