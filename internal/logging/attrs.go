package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Attribute keys shared by the dispatcher, the OAuth manager and the CLI.
const (
	KeyTool       = "tool"
	KeyInvocation = "invocation_id"
	KeyUserHash   = "user_hash"
	KeyKind       = "error_kind"
	KeyReason     = "reason"
	KeyAttempt    = "attempt"
	KeyDelay      = "delay"
	KeyError      = "error"
)

// secretKeys are attribute keys whose values never reach a log sink.
var secretKeys = map[string]bool{
	"access_token":  true,
	"refresh_token": true,
	"client_secret": true,
	"token":         true,
	"code":          true,
}

func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

func Invocation(id string) slog.Attr {
	return slog.String(KeyInvocation, id)
}

// Kind records a failure kind. It accepts a Stringer so this package does
// not import the failure taxonomy.
func Kind(kind fmt.Stringer) slog.Attr {
	return slog.String(KeyKind, kind.String())
}

func Reason(reason string) slog.Attr {
	return slog.String(KeyReason, reason)
}

// Attempt is 1-based.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

func Delay(d time.Duration) slog.Attr {
	return slog.Duration(KeyDelay, d)
}

// Err returns an error attribute, or an empty group (dropped by every slog
// handler) when err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// UserHash identifies an admin account without writing its address. Equal
// addresses hash equally regardless of case.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, HashAccount(email))
}

// HashAccount returns "user:" followed by the first 8 bytes of the SHA-256 of
// the lower-cased address, or "" for an empty address.
func HashAccount(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(sum[:8])
}

// MaskSecret replaces a credential with its length.
func MaskSecret(s string) string {
	if s == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[redacted:%d chars]", len(s))
}

// redactSecrets is a slog ReplaceAttr hook masking string values stored
// under secretKeys.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] && a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, MaskSecret(a.Value.String()))
	}
	return a
}
