package common

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"github.com/teemow/gsuiteadmin/internal/failure"
)

var (
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	domainPattern  = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]*(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}$`)
	orgUnitPattern = regexp.MustCompile(`^(/[a-zA-Z0-9\s\-_.]+)+/?$`)
)

const (
	maxOrgUnitPathLen = 255
	maxNameLen        = 60
	maxReasonLen      = 500
	minPasswordLen    = 8
	maxPasswordLen    = 100

	passwordSpecials = "!@#$%^&*()_+-=[]{}|;':\",./<>?"
	nameForbidden    = "<>{}[]()&;"
)

// ValidateEmail rejects anything that is not a plain address.
func ValidateEmail(field, value string) error {
	if value == "" {
		return failure.InvalidArgument(field, "%s must not be empty", field)
	}
	if !emailPattern.MatchString(value) {
		return failure.InvalidArgument(field, "invalid email address %q", value)
	}
	return nil
}

// ValidateDomain checks a DNS domain name.
func ValidateDomain(field, value string) error {
	if value == "" {
		return failure.InvalidArgument(field, "%s must not be empty", field)
	}
	if !domainPattern.MatchString(strings.ToLower(value)) {
		return failure.InvalidArgument(field, "invalid domain %q", value)
	}
	return nil
}

// ValidateOrgUnitPath checks an org unit path such as /Sales/EMEA. The root
// path / is valid.
func ValidateOrgUnitPath(field, value string) error {
	switch {
	case value == "":
		return failure.InvalidArgument(field, "%s must not be empty", field)
	case value == "/":
		return nil
	case !strings.HasPrefix(value, "/"):
		return failure.InvalidArgument(field, "org unit path %q must start with /", value)
	case strings.Contains(value, "//"):
		return failure.InvalidArgument(field, "org unit path %q contains consecutive slashes", value)
	case len(value) > maxOrgUnitPathLen:
		return failure.InvalidArgument(field, "org unit path is longer than %d characters", maxOrgUnitPathLen)
	case !orgUnitPattern.MatchString(value):
		return failure.InvalidArgument(field, "invalid org unit path %q", value)
	}
	return nil
}

// ValidatePassword enforces the Workspace minimum: 8 to 100 characters
// mixing lower and upper case with a digit or a symbol.
func ValidatePassword(field, value string) error {
	n := len([]rune(value))
	if n < minPasswordLen || n > maxPasswordLen {
		return failure.InvalidArgument(field, "password must be %d to %d characters long", minPasswordLen, maxPasswordLen)
	}

	var lower, upper, digitOrSpecial bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r), strings.ContainsRune(passwordSpecials, r):
			digitOrSpecial = true
		}
	}
	if !lower || !upper || !digitOrSpecial {
		return failure.InvalidArgument(field,
			"password must contain a lowercase letter, an uppercase letter and a digit or symbol")
	}
	return nil
}

// ValidateName checks a person or unit name.
func ValidateName(field, value string) error {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return failure.InvalidArgument(field, "%s must not be empty", field)
	case len([]rune(value)) > maxNameLen:
		return failure.InvalidArgument(field, "%s must be at most %d characters", field, maxNameLen)
	case strings.ContainsAny(value, nameForbidden):
		return failure.InvalidArgument(field, "%s contains one of %s", field, nameForbidden)
	}
	return nil
}

// ValidateReason checks a free-text reason such as a suspension reason.
func ValidateReason(field, value string) error {
	if len([]rune(value)) > maxReasonLen {
		return failure.InvalidArgument(field, "%s must be at most %d characters", field, maxReasonLen)
	}
	return nil
}

const (
	passwordLower  = "abcdefghijkmnopqrstuvwxyz"
	passwordUpper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordDigits = "23456789"
	passwordSymbol = "!@#$%&*?"
)

// GeneratePassword returns a random password of length n that satisfies
// ValidatePassword. n is raised to 12 when smaller.
func GeneratePassword(n int) (string, error) {
	n = max(n, 12)
	all := passwordLower + passwordUpper + passwordDigits + passwordSymbol

	out := make([]byte, 0, n)
	for _, set := range []string{passwordLower, passwordUpper, passwordDigits, passwordSymbol} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < n {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Shuffle so the guaranteed classes are not always in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func randomChar(set string) (byte, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[i.Int64()], nil
}

var userIDPattern = regexp.MustCompile(`^[0-9]{21}$`)

// ValidateUserKey accepts an email address or a 21-digit directory user id.
func ValidateUserKey(field, value string) error {
	if userIDPattern.MatchString(value) {
		return nil
	}
	if value == "" || !emailPattern.MatchString(value) {
		return failure.InvalidArgument(field, "%s must be an email address or a user id, got %q", field, value)
	}
	return nil
}

// NothingToUpdate is returned by update tools called without any field to
// change.
func NothingToUpdate(fields string) error {
	return failure.InvalidArgument("", "nothing to update; set at least one of %s", fields)
}
