// Package report_tools provides read-only MCP tools over the Admin SDK
// Reports API: usage reports, audit activities and domain insights.
//
// Reports lag behind by about a day, so a date of "today" resolves to
// yesterday.
package report_tools
