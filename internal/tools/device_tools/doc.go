// Package device_tools provides the MCP tools for mobile and ChromeOS
// devices. Wiping and deleting a mobile device requires confirm=true.
package device_tools
