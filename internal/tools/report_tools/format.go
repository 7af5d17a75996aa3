package report_tools

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/teemow/gsuiteadmin/internal/reports"
)

func writeParameters(b *strings.Builder, params []reports.Parameter, limit int) {
	if len(params) == 0 {
		return
	}
	b.WriteString("   Usage Data:\n")
	for i, p := range params {
		if i == limit {
			b.WriteString(fmt.Sprintf("     ... and %d more\n", len(params)-limit))
			return
		}
		b.WriteString(fmt.Sprintf("     - %s: %s\n", p.Name, p.FormatValue()))
	}
}

func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	b.WriteString("Warnings:\n")
	for _, w := range warnings {
		b.WriteString(fmt.Sprintf("   - %s\n", w))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
