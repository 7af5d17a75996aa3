// Package user_tools provides the MCP tools that manage Workspace users:
// listing, inspecting, creating, updating, suspending, password resets
// and deletion.
package user_tools
