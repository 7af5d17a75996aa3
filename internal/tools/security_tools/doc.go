// Package security_tools provides the MCP tools for domain aliases, user
// account security, third-party tokens, admin role assignments and Drive
// data transfers.
//
// The manage_* tools bundle several actions behind an action argument.
// Actions that widen or remove privileges, or move data between owners,
// require confirm=true.
package security_tools
