package auth

import (
	"strings"

	"github.com/noticeboard-app/noticeboard/internal/shared"
)

// passwordPunctuation is the fixed set of punctuation characters allowed in
// passwords on top of letters and digits.
const passwordPunctuation = "!@#$%^&*()_+-=.,?"

// ValidateCredentials checks presence and charset of the submitted login and
// password. Disallowed characters are rejected, not stripped: the input is
// reduced to its allowed characters and any length difference against the
// original fails the check.
func ValidateCredentials(login, password string) error {
	if login == "" || password == "" {
		return shared.ErrBadRequest
	}
	if len(keepAllowed(login, "")) != len(login) {
		return shared.ErrInvalidFormat
	}
	if len(keepAllowed(password, passwordPunctuation)) != len(password) {
		return shared.ErrInvalidFormat
	}
	return nil
}

// ValidatePasswordStrength enforces the registration password policy: at
// least 6 characters containing an uppercase letter, a lowercase letter and
// a digit. Login does not apply this check.
func ValidatePasswordStrength(password string) error {
	if len(password) < 6 {
		return shared.ErrWeakPassword
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return shared.ErrWeakPassword
	}
	return nil
}

func keepAllowed(s, extra string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(extra, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}
