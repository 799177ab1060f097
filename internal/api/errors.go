package api

import (
	"errors"
	"net/http"

	"salon/internal/database"
	"salon/internal/service"
	"salon/internal/session"
)

// writeServiceError maps domain errors onto HTTP statuses. Anything
// unrecognised is logged and reported as 500 without details.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrClosedDay):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrSlotUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, database.ErrVersionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, session.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.logger.Error().Err(err).
			Str("request_id", requestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
