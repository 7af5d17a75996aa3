// Package group_tools provides the MCP tools for Workspace groups and their
// members.
package group_tools
