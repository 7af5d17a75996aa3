package dispatch

import (
	"encoding/json"
	"math"
	"strings"
)

// Arguments are the decoded arguments of one tool call. JSON numbers arrive
// as float64.
type Arguments map[string]any

// Has reports whether key is present and not null.
func (a Arguments) Has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

// String returns the string value of key, or "" if it is absent or not a
// string.
func (a Arguments) String(key string) string {
	s, _ := a[key].(string)
	return strings.TrimSpace(s)
}

// StringDefault returns the string value of key or def if it is empty.
func (a Arguments) StringDefault(key, def string) string {
	if s := a.String(key); s != "" {
		return s
	}
	return def
}

// OptionalString returns the value of key and whether it was supplied.
func (a Arguments) OptionalString(key string) (string, bool) {
	s, ok := a[key].(string)
	return strings.TrimSpace(s), ok
}

// Bool returns the boolean value of key or def.
func (a Arguments) Bool(key string, def bool) bool {
	if b, ok := a.OptionalBool(key); ok {
		return b
	}
	return def
}

// OptionalBool returns the value of key and whether it was supplied.
func (a Arguments) OptionalBool(key string) (bool, bool) {
	b, ok := a[key].(bool)
	return b, ok
}

// Int returns the integer value of key or def.
func (a Arguments) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return def
}

// StringList accepts a single string, a comma-separated string or an array
// of strings and returns the non-empty entries.
func (a Arguments) StringList(key string) []string {
	var out []string
	add := func(s string) {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	switch v := a[key].(type) {
	case string:
		add(v)
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return out
}

// isNumber reports whether v is a JSON number.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case int, int32, int64:
		return true
	case float64:
		return n == math.Trunc(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n) == math.Trunc(float64(n))
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}
