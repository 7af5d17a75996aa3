package dispatch

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gsuiteadmin/internal/failure"
)

// Bind adds every registered tool to s. Classified failures become IsError
// results carrying the rendered error; a cancelled call returns the context
// error to the transport.
func Bind(s *mcpserver.MCPServer, d *Dispatcher) {
	for _, desc := range d.registry.All() {
		s.AddTool(desc.Tool, d.ToolHandler(desc.Tool.Name))
	}
}

// ToolHandler returns the mcp-go handler for one tool.
func (d *Dispatcher) ToolHandler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := d.Dispatch(ctx, name, request.GetArguments())
		if err != nil {
			if fe, ok := failure.As(err); ok {
				return mcp.NewToolResultError(fe.Error()), nil
			}
			return nil, err
		}
		return res.CallToolResult(), nil
	}
}
