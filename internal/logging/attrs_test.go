package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kindString string

func (k kindString) String() string { return string(k) }

func TestAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
		want string
	}{
		{"tool", Tool("admin_list_users"), KeyTool, "admin_list_users"},
		{"invocation", Invocation("6f1c2d3e"), KeyInvocation, "6f1c2d3e"},
		{"kind", Kind(kindString("RateLimited")), KeyKind, "RateLimited"},
		{"reason", Reason("quota_exceeded"), KeyReason, "quota_exceeded"},
		{"attempt", Attempt(3), KeyAttempt, "3"},
		{"delay", Delay(1500 * time.Millisecond), KeyDelay, "1.5s"},
		{"error", Err(errors.New("boom")), KeyError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.want, tt.attr.Value.String())
		})
	}
}

func TestErr_NilIsOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("done", Err(nil))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.NotContains(t, record, KeyError)
}

func TestHashAccount(t *testing.T) {
	a := HashAccount("Admin@Example.com")
	b := HashAccount(" admin@example.com")

	assert.Equal(t, a, b)
	assert.Regexp(t, `^user:[0-9a-f]{16}$`, a)
	assert.NotContains(t, a, "example")
	assert.NotEqual(t, a, HashAccount("other@example.com"))
	assert.Empty(t, HashAccount(""))
	assert.Equal(t, KeyUserHash, UserHash("admin@example.com").Key)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "<empty>", MaskSecret(""))
	assert.Equal(t, "[redacted:12 chars]", MaskSecret("ya29.a0AfH6S"))
}

func TestRedactSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Writer: &buf})
	require.NoError(t, err)

	logger.Info("token refreshed",
		slog.String("refresh_token", "1//0gSECRET"),
		slog.String("Access_Token", "ya29.SECRET"),
		Tool("admin_get_user"))

	out := buf.String()
	assert.NotContains(t, out, "SECRET")
	assert.Contains(t, out, `"refresh_token":"[redacted:11 chars]"`)
	assert.Contains(t, out, `"tool":"admin_get_user"`)
}
