package api

import (
	"net/http"
	"strconv"

	"salon/internal/export"
	"salon/internal/models"
	"salon/internal/service"
)

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	from, to := s.dateRange(r)
	bookings, err := s.deps.Bookings.ListBookings(r.Context(), from, to, splitCSV(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"from":     from,
		"to":       to,
		"bookings": bookings,
	})
}

func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	from, to := s.dateRange(r)
	bookings, err := s.deps.Bookings.ListBookings(r.Context(), from, to, splitCSV(r.URL.Query().Get("status")))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(from, to)+`"`)
	if err := export.WriteBookings(w, from, to, bookings); err != nil {
		// Headers are already sent; only log.
		s.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("failed to write bookings export")
		return
	}
	s.logger.Info().Str("actor", actor.UserID).Str("from", from).Str("to", to).Int("rows", len(bookings)).Msg("bookings exported")
}

func (s *HTTPServer) handleUpdateBookingStatus(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	booking, err := s.deps.Bookings.UpdateStatus(r.Context(), id, body.Version, body.Status, actor.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleCreateService(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	var svc models.Service
	if err := decodeJSON(w, r, &svc); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	svc.ID = 0

	if err := s.deps.Catalog.CreateService(r.Context(), &svc); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

// handleUpdateService overlays the request body on the stored entry, so
// omitted fields keep their values.
func (s *HTTPServer) handleUpdateService(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	svc, err := s.deps.Catalog.GetService(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := decodeJSON(w, r, svc); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	svc.ID = id

	if err := s.deps.Catalog.UpdateService(r.Context(), svc); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *HTTPServer) handleDeactivateService(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Catalog.DeactivateService(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request, _ service.Actor) {
	accounts, err := s.deps.Admins.ListAccounts(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func (s *HTTPServer) handleCreateUser(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	var req service.CreateAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	account, err := s.deps.Admins.CreateAccount(r.Context(), actor, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *HTTPServer) handleUpdateUserPermissions(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	var body struct {
		Role        string          `json:"role"`
		Permissions map[string]bool `json:"permissions"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	account, err := s.deps.Admins.UpdatePermissions(r.Context(), actor, r.PathValue("id"), body.Role, body.Permissions)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *HTTPServer) handleSetUserActive(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	var body struct {
		Active *bool `json:"active"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if body.Active == nil {
		writeError(w, http.StatusBadRequest, "active is required")
		return
	}

	account, err := s.deps.Admins.SetActive(r.Context(), actor, r.PathValue("id"), *body.Active)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
