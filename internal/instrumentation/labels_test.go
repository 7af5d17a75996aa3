package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountDomain(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "admin@example.com", want: "example.com"},
		{email: "Admin@Example.COM", want: "example.com"},
		{email: "first.last+ops@corp.example.org", want: "corp.example.org"},
		{email: "admin", want: "unknown"},
		{email: "@example.com", want: "unknown"},
		{email: "admin@", want: "unknown"},
		{email: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, AccountDomain(tt.email))
		})
	}
}
