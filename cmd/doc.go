// Package cmd implements the command-line interface for gsuiteadmin.
//
// This package provides the following commands:
//   - serve: Start the MCP server (the default when no subcommand is given)
//   - auth: Authorize an administrator account through the OAuth consent flow
//   - revoke: Revoke an account's grant and delete its stored credential
//   - accounts: List configured accounts and their credential status
//   - cleanup: Delete stored credentials of accounts no longer configured
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// All commands read the same settings: built-in defaults, the optional YAML
// file named by --config or GSUITE_ADMIN_CONFIG, then GSUITE_* variables
// (optionally from a .env file).
package cmd
