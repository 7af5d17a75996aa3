package failure

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"google.golang.org/api/googleapi"
)

// Google error reasons that signal quota pressure even on a 403.
var rateLimitReasons = map[string]Reason{
	"rateLimitExceeded":     ReasonRateLimitExceeded,
	"userRateLimitExceeded": ReasonRateLimitExceeded,
	"quotaExceeded":         ReasonQuotaExceeded,
	"dailyLimitExceeded":    ReasonQuotaExceeded,
}

// Classify maps an error returned by a handler or the token endpoint onto the
// taxonomy. Already classified errors are returned as-is and cancellation of
// the caller's context passes through unchanged so it can be propagated.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := As(err); ok {
		return fe
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return classifyAPIError(gerr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, KindTransient, ReasonTimeout, "upstream call timed out")
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Wrap(err, KindTransient, ReasonTimeout, "upstream call timed out")
	}
	if isConnectionError(err) {
		return Wrap(err, KindTransient, ReasonNetwork, "upstream connection failed: %v", err)
	}

	return Wrap(err, KindInternal, ReasonInvariant, "%v", err)
}

func classifyAPIError(gerr *googleapi.Error) *Error {
	msg := gerr.Message
	if msg == "" {
		msg = http.StatusText(gerr.Code)
	}
	retryAfter := RetryDelay(gerr.Header, gerr.Body)

	e := &Error{
		Message:    msg,
		StatusCode: gerr.Code,
		RetryAfter: retryAfter,
		Err:        gerr,
	}

	switch {
	case gerr.Code == http.StatusUnauthorized:
		e.Kind, e.Reason = KindAuthentication, ReasonTokenRejected
	case gerr.Code == http.StatusForbidden:
		if reason, ok := rateLimitReason(gerr); ok {
			e.Kind, e.Reason = KindRateLimited, reason
		} else {
			e.Kind, e.Reason = KindAuthorization, ReasonForbidden
		}
	case gerr.Code == http.StatusTooManyRequests:
		e.Kind, e.Reason = KindRateLimited, ReasonRateLimitExceeded
		if reason, ok := rateLimitReason(gerr); ok {
			e.Reason = reason
		}
	case gerr.Code >= 500:
		if retryAfter > 0 {
			e.Kind, e.Reason = KindRateLimited, ReasonRateLimitExceeded
		} else {
			e.Kind, e.Reason = KindTransient, ReasonServerError
		}
	case gerr.Code == http.StatusNotFound:
		e.Kind, e.Reason = KindUpstream, ReasonNotFound
	case gerr.Code == http.StatusBadRequest:
		e.Kind, e.Reason = KindUpstream, ReasonBadRequest
	case gerr.Code == http.StatusConflict:
		e.Kind, e.Reason = KindUpstream, ReasonConflict
	default:
		e.Kind, e.Reason = KindUpstream, ReasonUpstream
	}
	return e
}

func rateLimitReason(gerr *googleapi.Error) (Reason, bool) {
	for _, item := range gerr.Errors {
		if r, ok := rateLimitReasons[item.Reason]; ok {
			return r, true
		}
	}
	return "", false
}

func isConnectionError(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}
	var operr *net.OpError
	return errors.As(err, &operr)
}

// googleErrorBody is the subset of Google's JSON error envelope that carries
// a retry hint.
type googleErrorBody struct {
	Error struct {
		Details []struct {
			Type       string            `json:"@type"`
			Reason     string            `json:"reason"`
			RetryDelay string            `json:"retryDelay"`
			Metadata   map[string]string `json:"metadata"`
		} `json:"details"`
	} `json:"error"`
}

// RetryDelay extracts a backoff hint from a Retry-After header (seconds or
// HTTP date) or from the retryDelay field of a Google JSON error body.
// It returns 0 when no hint is present.
func RetryDelay(header http.Header, body string) time.Duration {
	if header != nil {
		if v := strings.TrimSpace(header.Get("Retry-After")); v != "" {
			if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
			if t, err := http.ParseTime(v); err == nil {
				if d := time.Until(t); d > 0 {
					return d
				}
			}
		}
	}

	if body == "" {
		return 0
	}
	var parsed googleErrorBody
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return 0
	}
	for _, detail := range parsed.Error.Details {
		if d, err := time.ParseDuration(detail.RetryDelay); err == nil && d > 0 {
			return d
		}
		if delay, ok := detail.Metadata["retryDelay"]; ok {
			if d, err := time.ParseDuration(delay); err == nil && d > 0 {
				return d
			}
		}
	}
	return 0
}
