package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"guestline/internal/delivery/http/helpers"
	"guestline/internal/domain"
)

// uuidRegex matches a canonical UUID string (8-4-4-4-12 hex).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// writeDomainError maps a service error to the API error envelope. Business
// rule failures each keep a distinct code so callers can present "event full",
// "already registered", etc. without parsing messages. Anything unrecognized
// is logged and surfaced as an opaque 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrDuplicateAttendee):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "an rsvp already exists for this email")
	case errors.Is(err, domain.ErrCapacityExceeded):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeCapacityExceeded, "event is at capacity")
	case errors.Is(err, domain.ErrEventNotPublished):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeRuleViolation, "event is not open for rsvps")
	case errors.Is(err, domain.ErrDeadlinePassed):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeRuleViolation, "rsvp deadline has passed")
	case errors.Is(err, domain.ErrInvalidSchedule):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeRuleViolation, "scheduled date must be in the future")
	case errors.Is(err, domain.ErrMissingSchedule):
		helpers.WriteJSONError(w, http.StatusUnprocessableEntity, helpers.ErrCodeRuleViolation, "scheduled date is required")
	case errors.Is(err, domain.ErrInvalidCredentials):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid email or password")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
