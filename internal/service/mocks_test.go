package service

import (
	"context"
	"io"

	"salon/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) UpsertService(ctx context.Context, svc *models.Service) error {
	return m.Called(ctx, svc).Error(0)
}
func (m *mockRepo) CreateService(ctx context.Context, svc *models.Service) error {
	return m.Called(ctx, svc).Error(0)
}
func (m *mockRepo) UpdateService(ctx context.Context, svc *models.Service) error {
	return m.Called(ctx, svc).Error(0)
}
func (m *mockRepo) DeactivateService(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockRepo) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *mockRepo) ListActiveServices(ctx context.Context) ([]*models.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *mockRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) ListBookingsByDateRange(ctx context.Context, from, to string, statuses []string) ([]*models.Booking, error) {
	args := m.Called(ctx, from, to, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) ListActiveBookingsForDate(ctx context.Context, serviceID int64, date string) ([]*models.Booking, error) {
	args := m.Called(ctx, serviceID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBookingStatus(ctx context.Context, id, version int64, status string) error {
	return m.Called(ctx, id, version, status).Error(0)
}
func (m *mockRepo) GetAdminAccount(ctx context.Context, id string) (*models.AdminAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminAccount), args.Error(1)
}
func (m *mockRepo) GetAdminAccountByEmail(ctx context.Context, email string) (*models.AdminAccount, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminAccount), args.Error(1)
}
func (m *mockRepo) CreateAdminAccount(ctx context.Context, a *models.AdminAccount) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockRepo) ListAdminAccounts(ctx context.Context) ([]*models.AdminAccount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AdminAccount), args.Error(1)
}
func (m *mockRepo) UpdateAdminPermissions(ctx context.Context, id, role, perms string) error {
	return m.Called(ctx, id, role, perms).Error(0)
}
func (m *mockRepo) SetAdminActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
