package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"salon/internal/config"
	"salon/internal/metrics"
	"salon/internal/models"
	"salon/internal/permissions"
	"salon/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionCookie    = "salon_session"
	requestIDHeader  = "X-Request-ID"
	maxBodyBytes     = 1 << 20
	defaultListRange = 30
)

// SessionManager is the admin sign-in collaborator.
type SessionManager interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	Get(ctx context.Context, token string) (*models.Session, error)
}

// PermissionResolver resolves the effective permissions of a signed-in admin.
type PermissionResolver interface {
	Resolve(ctx context.Context, userID string) permissions.Resolution
}

// Dependencies are the collaborators the HTTP API dispatches to.
type Dependencies struct {
	Catalog      *service.CatalogService
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Admins       *service.AdminService
	Sessions     SessionManager
	Permissions  PermissionResolver
	DB           Pinger
}

// HTTPServer exposes the public booking API and the admin API.
type HTTPServer struct {
	cfg     config.APIConfig
	deps    Dependencies
	server  *http.Server
	limiter *rateLimiter
	logger  zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Dependencies, logger *zerolog.Logger) *HTTPServer {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "http").Logger()
	}

	srv := &HTTPServer{
		cfg:     cfg,
		deps:    deps,
		limiter: newRateLimiter(cfg.RateLimit),
		logger:  base,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(srv.limiter.Wrap(srv.routes())),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/v1/services", s.handleListServices)
	mux.HandleFunc("GET /api/v1/availability", s.handleAvailability)
	mux.HandleFunc("POST /api/v1/bookings", s.handleCreateBooking)

	mux.HandleFunc("POST /api/v1/auth/signin", s.handleSignIn)
	mux.HandleFunc("POST /api/v1/auth/signout", s.handleSignOut)
	mux.HandleFunc("GET /api/v1/auth/session", s.admin("", s.handleSession))

	mux.HandleFunc("GET /api/v1/admin/me", s.admin("", s.handleMe))
	mux.HandleFunc("GET /api/v1/admin/bookings", s.admin(permissions.ViewBookings, s.handleListBookings))
	mux.HandleFunc("GET /api/v1/admin/bookings/export", s.admin(permissions.ViewBookings, s.handleExportBookings))
	mux.HandleFunc("PATCH /api/v1/admin/bookings/{id}/status", s.admin(permissions.ManageBookings, s.handleUpdateBookingStatus))

	mux.HandleFunc("POST /api/v1/admin/services", s.admin(permissions.ManageServices, s.handleCreateService))
	mux.HandleFunc("PUT /api/v1/admin/services/{id}", s.admin(permissions.ManageServices, s.handleUpdateService))
	mux.HandleFunc("DELETE /api/v1/admin/services/{id}", s.admin(permissions.ManageServices, s.handleDeactivateService))

	mux.HandleFunc("GET /api/v1/admin/users", s.admin(permissions.ManageUsers, s.handleListUsers))
	mux.HandleFunc("POST /api/v1/admin/users", s.admin(permissions.ManageUsers, s.handleCreateUser))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/permissions", s.admin(permissions.ManageUsers, s.handleUpdateUserPermissions))
	mux.HandleFunc("PUT /api/v1/admin/users/{id}/active", s.admin(permissions.ManageUsers, s.handleSetUserActive))

	return mux
}

func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type adminHandler func(w http.ResponseWriter, r *http.Request, actor service.Actor)

// admin requires a live session and, when perm is set, that permission.
// An admin whose permissions cannot be resolved gets the default set, so
// protected routes answer 403 rather than 500.
func (s *HTTPServer) admin(perm permissions.Key, next adminHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.deps.Sessions.Get(r.Context(), sessionToken(r))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		res := s.deps.Permissions.Resolve(r.Context(), sess.UserID)
		if perm != "" && !res.Has(perm) {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}

		next(w, r, service.Actor{UserID: sess.UserID, Resolution: res})
	}
}

func sessionToken(r *http.Request) string {
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

type ctxKey int

const requestIDKey ctxKey = iota

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint)

		s.logger.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", service.ErrInvalidRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
