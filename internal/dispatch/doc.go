// Package dispatch routes MCP tool calls to their handlers.
//
// A Registry holds one ToolDescriptor per tool, populated once at startup.
// The Dispatcher resolves the tool, validates the arguments against its
// input schema, enforces the confirmation rule for destructive actions,
// obtains a valid credential for the acting admin (the user_id argument),
// checks the credential's scopes and finally runs the handler under the
// retry policy. Every failure leaves the Dispatcher as a *failure.Error.
//
// Bind exposes the registered tools on an mcp-go server.
package dispatch
