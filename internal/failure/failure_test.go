package failure

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_Retryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindValidation, false},
		{KindAuthentication, false},
		{KindAuthorization, false},
		{KindRateLimited, true},
		{KindTransient, true},
		{KindUpstream, false},
		{KindInternal, false},
		{Kind(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Retryable())
		})
	}
}

func TestError_Error(t *testing.T) {
	e := &Error{
		Kind:       KindRateLimited,
		Reason:     ReasonRateLimitExceeded,
		Message:    "Quota exceeded for quota metric",
		StatusCode: 429,
		RetryAfter: 2 * time.Second,
	}
	assert.Equal(t, "RateLimited(RateLimitExceeded): Quota exceeded for quota metric [status 429] [retry after 2s]", e.Error())

	v := InvalidArgument("email", "invalid email address: %q", "nope")
	assert.Equal(t, `ValidationError(InvalidArgument): invalid email address: "nope"`, v.Error())
	assert.Equal(t, "email", v.Field)
}

func TestError_IsMatchesKindAndReason(t *testing.T) {
	err := fmt.Errorf("loading credential: %w", Authentication(ReasonReauthorizationRequired, "refresh token revoked for account"))

	assert.True(t, errors.Is(err, ErrReauthorizationRequired))
	assert.False(t, errors.Is(err, ErrNotAuthenticated))
	assert.True(t, errors.Is(err, &Error{Kind: KindAuthentication}))
	assert.False(t, errors.Is(err, ErrUnknownTool))
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(cause, KindInternal, ReasonInvariant, "saving token")

	assert.ErrorIs(t, e, cause)
	assert.Equal(t, KindInternal, KindOf(e))
}

func TestAsAndKindOf(t *testing.T) {
	fe, ok := As(fmt.Errorf("outer: %w", New(KindUpstream, ReasonNotFound, "user not found")))
	require.True(t, ok)
	assert.Equal(t, ReasonNotFound, fe.Reason)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}
