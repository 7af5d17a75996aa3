package failure

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind is the closed set of failure categories shared by every component.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthentication
	KindAuthorization
	KindRateLimited
	KindTransient
	KindUpstream
	KindInternal
)

// String returns the stable name used in logs, metrics and rendered errors.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindAuthentication:
		return "AuthenticationError"
	case KindAuthorization:
		return "AuthorizationError"
	case KindRateLimited:
		return "RateLimited"
	case KindTransient:
		return "TransientUpstreamError"
	case KindUpstream:
		return "UpstreamError"
	case KindInternal:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed if the same
// call is repeated later.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTransient:
		return true
	case KindValidation, KindAuthentication, KindAuthorization, KindUpstream, KindInternal:
		return false
	default:
		return false
	}
}

// Reason refines a Kind.
type Reason string

const (
	ReasonUnknownTool          Reason = "UnknownTool"
	ReasonSchemaMismatch       Reason = "SchemaMismatch"
	ReasonMissingUserID        Reason = "MissingUserId"
	ReasonConfirmationRequired Reason = "ConfirmationRequired"
	ReasonInvalidArgument      Reason = "InvalidArgument"

	ReasonNotAuthenticated        Reason = "NotAuthenticated"
	ReasonReauthorizationRequired Reason = "ReauthorizationRequired"
	ReasonScopeDenied             Reason = "ScopeDenied"
	ReasonInsufficientScope       Reason = "InsufficientScope"
	ReasonTokenRejected           Reason = "TokenRejected"
	ReasonClientRejected          Reason = "ClientRejected"

	ReasonForbidden Reason = "Forbidden"

	ReasonRateLimitExceeded Reason = "RateLimitExceeded"
	ReasonQuotaExceeded     Reason = "QuotaExceeded"

	ReasonTimeout     Reason = "Timeout"
	ReasonNetwork     Reason = "Network"
	ReasonServerError Reason = "ServerError"

	ReasonNotFound   Reason = "NotFound"
	ReasonBadRequest Reason = "BadRequest"
	ReasonConflict   Reason = "Conflict"
	ReasonUpstream   Reason = "Upstream"

	ReasonDuplicateTool     Reason = "DuplicateTool"
	ReasonCorruptCredential Reason = "CorruptCredential"
	ReasonInvariant         Reason = "Invariant"
)

// Error is the structured failure produced by any component and rendered by
// the dispatcher. It never carries token material.
type Error struct {
	Kind       Kind
	Reason     Reason
	Message    string
	Field      string        // offending argument, for validation failures
	StatusCode int           // upstream HTTP status, 0 if none
	RetryAfter time.Duration // upstream backoff hint, 0 if none
	Err        error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Reason != "" {
		sb.WriteString("(")
		sb.WriteString(string(e.Reason))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, " [status %d]", e.StatusCode)
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&sb, " [retry after %s]", e.RetryAfter)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and, when set on the target, reason.
// This lets callers write errors.Is(err, failure.ErrReauthorizationRequired).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Retryable reports whether the retry policy may repeat the failed call.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// Sentinels for errors.Is checks.
var (
	ErrNotAuthenticated        = &Error{Kind: KindAuthentication, Reason: ReasonNotAuthenticated}
	ErrReauthorizationRequired = &Error{Kind: KindAuthentication, Reason: ReasonReauthorizationRequired}
	ErrScopeDenied             = &Error{Kind: KindAuthentication, Reason: ReasonScopeDenied}
	ErrInsufficientScope       = &Error{Kind: KindAuthentication, Reason: ReasonInsufficientScope}
	ErrClientRejected          = &Error{Kind: KindAuthentication, Reason: ReasonClientRejected}
	ErrUnknownTool             = &Error{Kind: KindValidation, Reason: ReasonUnknownTool}
	ErrSchemaMismatch          = &Error{Kind: KindValidation, Reason: ReasonSchemaMismatch}
	ErrMissingUserID           = &Error{Kind: KindValidation, Reason: ReasonMissingUserID}
	ErrConfirmationRequired    = &Error{Kind: KindValidation, Reason: ReasonConfirmationRequired}
	ErrDuplicateTool           = &Error{Kind: KindInternal, Reason: ReasonDuplicateTool}
)

// New creates an Error of the given kind and reason.
func New(kind Kind, reason Reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind and reason that wraps cause.
func Wrap(cause error, kind Kind, reason Reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Validation returns a ValidationError naming the offending field.
func Validation(reason Reason, field, format string, args ...any) *Error {
	e := New(KindValidation, reason, format, args...)
	e.Field = field
	return e
}

// InvalidArgument is the validation failure handlers raise for arguments
// that are well-typed but malformed.
func InvalidArgument(field, format string, args ...any) *Error {
	return Validation(ReasonInvalidArgument, field, format, args...)
}

// Authentication returns an AuthenticationError.
func Authentication(reason Reason, format string, args ...any) *Error {
	return New(KindAuthentication, reason, format, args...)
}

// Internal returns an InternalError.
func Internal(reason Reason, format string, args ...any) *Error {
	return New(KindInternal, reason, format, args...)
}

// As extracts a *Error from err.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal if err is not classified.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return KindInternal
}
