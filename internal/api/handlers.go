package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"salon/internal/models"
	"salon/internal/service"
)

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.deps.DB.PingContext(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.deps.Catalog.ListServices(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	serviceID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("service_id")), 10, 64)
	if err != nil || serviceID <= 0 {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	day, err := s.deps.Availability.GetSlots(r.Context(), serviceID, date)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	booking, err := s.deps.Bookings.RequestBooking(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	sess, err := s.deps.Sessions.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":   sess.Token,
		"user_id": sess.UserID,
	})
}

func (s *HTTPServer) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.deps.Sessions.SignOut(r.Context(), token); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, _ *http.Request, actor service.Actor) {
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        actor.UserID,
		"is_super_admin": actor.Resolution.SuperAdmin,
	})
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request, actor service.Actor) {
	account, err := s.deps.Admins.GetAccount(r.Context(), actor.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account":        account,
		"permissions":    actor.Resolution.Effective().Map(),
		"is_super_admin": actor.Resolution.SuperAdmin,
	})
}

// dateRange reads from/to query parameters, defaulting to today and
// thirty days after from.
func (s *HTTPServer) dateRange(r *http.Request) (string, string) {
	from := strings.TrimSpace(r.URL.Query().Get("from"))
	if from == "" {
		from = s.deps.Availability.Today()
	}
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if to == "" {
		if d, err := time.Parse(models.DateLayout, from); err == nil {
			to = d.AddDate(0, 0, defaultListRange).Format(models.DateLayout)
		}
	}
	return from, to
}
