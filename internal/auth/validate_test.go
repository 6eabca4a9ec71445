package auth

import (
	"errors"
	"testing"

	"github.com/noticeboard-app/noticeboard/internal/shared"
)

func TestValidateCredentialsCharset(t *testing.T) {
	cases := []struct {
		name     string
		login    string
		password string
		want     error
	}{
		{"plain alphanumeric", "alice1", "Passw0rd", nil},
		{"password with allowed punctuation", "alice1", "Pa$$w0rd!", nil},
		{"empty login", "", "Passw0rd", shared.ErrBadRequest},
		{"empty password", "alice1", "", shared.ErrBadRequest},
		{"login with space", "alice smith", "Passw0rd", shared.ErrInvalidFormat},
		{"login with punctuation", "alice!", "Passw0rd", shared.ErrInvalidFormat},
		{"login with injection payload", `{"$gt":""}`, "Passw0rd", shared.ErrInvalidFormat},
		{"login with unicode", "alicé", "Passw0rd", shared.ErrInvalidFormat},
		{"password with space", "alice1", "Pass w0rd", shared.ErrInvalidFormat},
		{"password with quote", "alice1", `Pass"w0rd`, shared.ErrInvalidFormat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCredentials(tc.login, tc.password)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Fatalf("ValidateCredentials(%q, %q) = %v, want %v", tc.login, tc.password, err, tc.want)
			}
		})
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     error
	}{
		{"meets policy", "Passw0rd", nil},
		{"exactly six chars", "Pass1a", nil},
		{"too short", "Pa0rd", shared.ErrWeakPassword},
		{"no uppercase", "passw0rd", shared.ErrWeakPassword},
		{"no lowercase", "PASSW0RD", shared.ErrWeakPassword},
		{"no digit", "Password", shared.ErrWeakPassword},
		{"empty", "", shared.ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tc.password)
			if !errors.Is(err, tc.want) && !(err == nil && tc.want == nil) {
				t.Fatalf("ValidatePasswordStrength(%q) = %v, want %v", tc.password, err, tc.want)
			}
		})
	}
}
