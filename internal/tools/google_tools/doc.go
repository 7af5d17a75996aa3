// Package google_tools registers the complete set of Google Workspace
// admin tools with a dispatch registry.
package google_tools
