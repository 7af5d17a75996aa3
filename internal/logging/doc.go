// Package logging builds the process logger and holds the attribute helpers
// used across the server.
//
// Logs always go to stderr (or an explicit writer) because stdout carries the
// MCP stdio protocol. Admin addresses are logged as a short SHA-256 prefix via
// UserHash so entries for one account can be correlated without exposing it,
// and values under token-like keys are masked by the handler itself:
//
//	logger.Warn("retrying tool call",
//	    logging.Tool("admin_list_users"),
//	    logging.UserHash(account),
//	    logging.Attempt(2),
//	    logging.Err(err))
package logging
