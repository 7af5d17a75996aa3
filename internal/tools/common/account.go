package common

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/gsuiteadmin/internal/dispatch"
	"github.com/teemow/gsuiteadmin/internal/directory"
)

// List caps applied to max_results.
const (
	DefaultMaxResults = 100
	MaxResultsCap     = 500
)

// WithUserID declares the required user_id argument naming the acting
// admin account.
func WithUserID() mcp.ToolOption {
	return mcp.WithString(dispatch.UserIDArg,
		mcp.Required(),
		mcp.Description("Email of the configured admin account to act as (e.g. 'admin@example.com')"),
	)
}

// WithConfirm declares the confirm argument of destructive tools.
func WithConfirm(what string) mcp.ToolOption {
	return mcp.WithBoolean(dispatch.ConfirmArg,
		mcp.Description("Must be true to "+what+". This action cannot be undone."),
	)
}

// WithCustomerID declares the optional customer_id argument.
func WithCustomerID() mcp.ToolOption {
	return mcp.WithString("customer_id",
		mcp.Description("Customer ID (default: 'my_customer', the admin's own customer)"),
	)
}

// WithMaxResults declares max_results with the shared default and cap.
func WithMaxResults() mcp.ToolOption {
	return mcp.WithNumber("max_results",
		mcp.Description("Maximum number of results to return (default: 100, max: 500)"),
		mcp.Min(1),
	)
}

// CustomerID returns customer_id or my_customer.
func CustomerID(args dispatch.Arguments) string {
	return args.StringDefault("customer_id", directory.MyCustomer)
}

// MaxResults returns max_results clamped to [1, MaxResultsCap].
func MaxResults(args dispatch.Arguments) int {
	n := args.Int("max_results", DefaultMaxResults)
	switch {
	case n < 1:
		return DefaultMaxResults
	case n > MaxResultsCap:
		return MaxResultsCap
	}
	return n
}
