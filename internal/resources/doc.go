// Package resources provides read-only MCP resources. accounts://configured
// lists the configured admin accounts with the state of their stored
// credential, so clients can pick a user_id without calling a tool. Token
// material is never included.
package resources
