package httpx

import (
	"errors"
	"net/http"

	"github.com/noticeboard-app/noticeboard/internal/shared"
)

// RespondError maps domain errors to an HTTP status and message envelope.
// Every error crossing the handler boundary goes through here so no failure
// leaves the service unhandled.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrBadRequest):
		Message(w, http.StatusBadRequest, "Bad request")
	case errors.Is(err, shared.ErrInvalidFormat):
		Message(w, http.StatusBadRequest, "Login or password contains forbidden characters")
	case errors.Is(err, shared.ErrWeakPassword):
		Message(w, http.StatusBadRequest, "Password must be at least 6 characters with an uppercase letter, a lowercase letter and a digit")
	case errors.Is(err, shared.ErrInvalidCredentials):
		Message(w, http.StatusBadRequest, "Login or password are incorrect")
	case errors.Is(err, shared.ErrDuplicateLogin):
		Message(w, http.StatusConflict, "User with this login already exists")
	case errors.Is(err, shared.ErrUnauthorized):
		Message(w, http.StatusUnauthorized, "You are not authorized")
	case errors.Is(err, shared.ErrNotFound):
		Message(w, http.StatusNotFound, "Not found")
	default:
		Message(w, http.StatusInternalServerError, "Internal server error")
	}
}
