package domain

import (
	"context"
	"time"

	"salon/internal/models"
)

type ServiceRepository interface {
	UpsertService(ctx context.Context, svc *models.Service) error
	CreateService(ctx context.Context, svc *models.Service) error
	UpdateService(ctx context.Context, svc *models.Service) error
	DeactivateService(ctx context.Context, id int64) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	ListActiveServices(ctx context.Context) ([]*models.Service, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookingsByDateRange(ctx context.Context, from, to string, statuses []string) ([]*models.Booking, error)
	ListActiveBookingsForDate(ctx context.Context, serviceID int64, date string) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, version int64, status string) error
}

type AdminRepository interface {
	GetAdminAccount(ctx context.Context, id string) (*models.AdminAccount, error)
	GetAdminAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error)
	CreateAdminAccount(ctx context.Context, account *models.AdminAccount) error
	ListAdminAccounts(ctx context.Context) ([]*models.AdminAccount, error)
	UpdateAdminPermissions(ctx context.Context, id, role, permissions string) error
	SetAdminActive(ctx context.Context, id string, active bool) error
}

// Repository is the full storage surface implemented by *database.DB.
type Repository interface {
	ServiceRepository
	BookingRepository
	AdminRepository
}

// SessionStore keeps admin sessions. GetSession returns nil, nil for an
// unknown or expired token. CheckRateLimit counts attempts per key in a
// fixed window and reports whether the current one is within limit.
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
