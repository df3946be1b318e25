package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"meetingscheduler/internal/domain"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrEventClosed, http.StatusConflict, ErrCodeEventClosed, "event is closed"},
	{domain.ErrNotAdministrator, http.StatusForbidden, ErrCodeNotAdministrator, "only the event administrator can do this"},
	{domain.ErrOptionNotFound, http.StatusNotFound, ErrCodeOptionNotFound, "option not found"},
	{domain.ErrUserNotInGuestList, http.StatusForbidden, ErrCodeNotInGuestList, "user is not in the guest list"},
	{domain.ErrNoOptionVoted, http.StatusUnprocessableEntity, ErrCodeNoOptionVoted, "no option has any vote"},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "event not found"},
	{domain.ErrOptionAlreadyExists, http.StatusConflict, ErrCodeOptionExists, "option already exists"},
	{domain.ErrConflict, http.StatusConflict, ErrCodeConflict, "event was modified concurrently, retry"},
	{domain.ErrUserNotFound, http.StatusNotFound, ErrCodeUserNotFound, "user not found"},
	{domain.ErrDuplicateEmail, http.StatusConflict, ErrCodeEmailInUse, "email already in use"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials"},
}

// WriteServiceError maps a service error to its HTTP status and error code. Input errors
// keep their message; unknown errors are logged and reported as internal_error.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			WriteJSONError(w, m.status, m.code, m.message)
			return
		}
	}
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidOptionKey) {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
}
