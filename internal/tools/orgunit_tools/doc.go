// Package orgunit_tools provides the MCP tools for organizational units.
package orgunit_tools
