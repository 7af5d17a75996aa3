package instrumentation

import "strings"

// Label values shared by metrics, spans and audit records.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OAuthResultSuccess     = "success"
	OAuthResultFailure     = "failure"
	OAuthResultRevoked     = "revoked"
	OAuthResultScopeDenied = "scope_denied"
)

// Admin SDK services, used as the service label of API call metrics and
// spans.
const (
	ServiceDirectory    = "directory"
	ServiceReports      = "reports"
	ServiceDataTransfer = "datatransfer"
)

// Admin SDK operation kinds.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationAction = "action"
)

const unknownDomain = "unknown"

// AccountDomain reduces an admin account to its lower-cased domain, the
// only part of an address that metrics and traces carry by default.
//
//	AccountDomain("Admin@Example.com") // "example.com"
//	AccountDomain("admin")             // "unknown"
func AccountDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return unknownDomain
	}
	return strings.ToLower(email[at+1:])
}
