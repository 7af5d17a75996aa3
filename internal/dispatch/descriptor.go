package dispatch

import (
	"context"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/google"
)

// UserIDArg is the argument every tool declares for the acting admin.
const UserIDArg = "user_id"

// ConfirmArg is the flag destructive tools require to be true.
const ConfirmArg = "confirm"

// Invocation is one dispatch of one tool.
type Invocation struct {
	ID        string
	Tool      string
	UserID    string
	Arguments Arguments
	Attempt   int // current attempt, starting at 1
}

// Result is a successful tool result: one or more text segments.
type Result struct {
	Text []string
}

// TextResult builds a Result from text segments.
func TextResult(segments ...string) *Result {
	return &Result{Text: segments}
}

// CallToolResult converts r into the MCP result shape.
func (r *Result) CallToolResult() *mcp.CallToolResult {
	res := &mcp.CallToolResult{}
	for _, t := range r.Text {
		res.Content = append(res.Content, mcp.NewTextContent(t))
	}
	return res
}

// Handler executes one tool with a valid credential for the acting admin.
// Errors may be raw Admin SDK errors; the Dispatcher classifies them.
type Handler interface {
	Execute(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error)

// Execute calls f.
func (f HandlerFunc) Execute(ctx context.Context, inv *Invocation, cred *google.Credential) (*Result, error) {
	return f(ctx, inv, cred)
}

// ConfirmRule reports whether a call with args is destructive and must carry
// confirm=true.
type ConfirmRule func(args Arguments) bool

// AlwaysConfirm requires confirmation on every call.
func AlwaysConfirm(Arguments) bool { return true }

// ConfirmWhen requires confirmation when the string argument key takes one
// of values.
func ConfirmWhen(key string, values ...string) ConfirmRule {
	return func(args Arguments) bool {
		return slices.Contains(values, args.String(key))
	}
}

// ToolDescriptor is the static description of a tool.
type ToolDescriptor struct {
	Tool           mcp.Tool
	RequiredScopes []string
	Category       string
	ReadOnly       bool
	Confirm        ConfirmRule
	Handler        Handler
}

// Name returns the tool name.
func (d *ToolDescriptor) Name() string {
	return d.Tool.Name
}
