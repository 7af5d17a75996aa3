package dispatch

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/failure"
)

// validateArguments checks args against schema: required keys present and
// non-null, declared types respected and enum values honoured. user_id is
// left to the dispatcher, which reports it with its own reason.
func validateArguments(schema mcp.ToolInputSchema, args Arguments) error {
	for _, key := range schema.Required {
		if key == UserIDArg {
			continue
		}
		if !args.Has(key) {
			return failure.Validation(failure.ReasonSchemaMismatch, key, "missing required argument %q", key)
		}
	}

	// Sorted so the reported field is stable when several are wrong.
	keys := make([]string, 0, len(args))
	for key := range args {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := args[key]
		if value == nil {
			continue
		}
		prop, ok := schema.Properties[key].(map[string]any)
		if !ok {
			continue
		}
		if err := checkType(key, prop, value); err != nil {
			return err
		}
		if err := checkEnum(key, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func checkType(key string, prop map[string]any, value any) error {
	want, _ := prop["type"].(string)

	var ok bool
	switch want {
	case "":
		return nil
	case "string":
		_, ok = value.(string)
	case "number":
		ok = isNumber(value)
	case "integer":
		ok = isInteger(value)
	case "boolean":
		_, ok = value.(bool)
	case "array":
		switch value.(type) {
		case []any, []string:
			ok = true
		}
	case "object":
		_, ok = value.(map[string]any)
	default:
		return nil
	}

	if !ok {
		return failure.Validation(failure.ReasonSchemaMismatch, key,
			"argument %q must be of type %s, got %s", key, want, jsonType(value))
	}
	if min, ok := prop["minimum"].(float64); ok && isNumber(value) && toFloat(value) < min {
		return failure.Validation(failure.ReasonSchemaMismatch, key, "argument %q must be at least %v", key, min)
	}
	if max, ok := prop["maximum"].(float64); ok && isNumber(value) && toFloat(value) > max {
		return failure.Validation(failure.ReasonSchemaMismatch, key, "argument %q must be at most %v", key, max)
	}
	return nil
}

func checkEnum(key string, prop map[string]any, value any) error {
	var allowed []string
	switch e := prop["enum"].(type) {
	case []string:
		allowed = e
	case []any:
		for _, v := range e {
			allowed = append(allowed, fmt.Sprint(v))
		}
	default:
		return nil
	}
	if len(allowed) == 0 {
		return nil
	}

	got := fmt.Sprint(value)
	for _, a := range allowed {
		if a == got {
			return nil
		}
	}
	return failure.Validation(failure.ReasonSchemaMismatch, key,
		"argument %q must be one of %v, got %q", key, allowed, got)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

func jsonType(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	}
	if isNumber(v) {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
