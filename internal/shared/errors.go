package shared

import "errors"

var (
	// ErrBadRequest indicates missing or mistyped input fields.
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidFormat indicates input containing disallowed characters.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrWeakPassword indicates a password failing the strength policy.
	ErrWeakPassword = errors.New("weak password")
	// ErrDuplicateLogin indicates the login is already taken.
	ErrDuplicateLogin = errors.New("duplicate login")
	// ErrInvalidCredentials indicates login failure. Unknown login and wrong
	// password both map here so callers cannot tell which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a request without an authenticated session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
)
