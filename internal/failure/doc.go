// Package failure defines the closed error taxonomy shared by the credential
// store, the OAuth manager, the retry policy and the dispatcher.
//
// Every failure that reaches an MCP client is an *Error carrying a Kind, a
// Reason and, for upstream failures, the HTTP status and retry-after hint.
// Retry decisions are taken on Kind alone:
//
//	if fe, ok := failure.As(err); ok && fe.Retryable() {
//	    // back off and try again
//	}
//
// Classify converts raw errors from the Admin SDK (googleapi.Error), the
// network stack and per-attempt deadlines into the taxonomy.
package failure
