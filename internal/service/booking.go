package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"salon/internal/availability"
	"salon/internal/database"
	"salon/internal/domain"
	"salon/internal/events"
	"salon/internal/metrics"
	"salon/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// maxListRangeDays ограничение диапазона выборки бронирований
const maxListRangeDays = 366

// BookingRequest is a customer's request for a time slot.
type BookingRequest struct {
	ServiceID    int64  `json:"service_id" validate:"gt=0"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,hhmm"`
	CustomerName string `json:"customer_name" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"required,phone"`
	Email        string `json:"email" validate:"omitempty,email,max=254"`
	Notes        string `json:"notes" validate:"max=500"`
}

type BookingService struct {
	repo         domain.Repository
	availability *AvailabilityService
	eventBus     domain.EventPublisher
	validate     *validator.Validate
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.Repository, availability *AvailabilityService, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:         repo,
		availability: availability,
		eventBus:     eventBus,
		validate:     newValidator(),
		logger:       logger,
	}
}

// RequestBooking stores a pending booking if the requested start time is
// currently offered as available.
func (s *BookingService) RequestBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	booking, err := s.requestBooking(ctx, req)
	metrics.IncBooking(bookingOutcome(err))
	return booking, err
}

func (s *BookingService) requestBooking(ctx context.Context, req BookingRequest) (*models.Booking, error) {
	if err := s.normalizeRequest(&req); err != nil {
		return nil, err
	}

	// Пересчитываем слоты на момент запроса
	day, err := s.availability.GetSlots(ctx, req.ServiceID, req.Date)
	if err != nil {
		return nil, err
	}
	if day.Closed {
		return nil, ErrClosedDay
	}
	slot, ok := availability.FindSlot(day.Slots, req.StartTime)
	if !ok || !slot.Available {
		return nil, ErrSlotUnavailable
	}

	svc, err := s.repo.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		CustomerName:    req.CustomerName,
		Phone:           req.Phone,
		Email:           req.Email,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: svc.DurationMinutes,
		Status:          models.StatusPending,
		Notes:           req.Notes,
	}

	// Хранилище повторно проверяет пересечение в транзакции
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, database.ErrSlotTaken) {
			return nil, ErrSlotUnavailable
		}
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("service_id", booking.ServiceID).
		Str("date", booking.Date).
		Str("start_time", booking.StartTime).
		Msg("booking requested")
	s.publishEvent(events.EventBookingRequested, booking, "", "customer")

	return booking, nil
}

// UpdateStatus moves a booking along its lifecycle. A zero version means
// "whatever is stored now".
func (s *BookingService) UpdateStatus(ctx context.Context, id, version int64, status, actorID string) (*models.Booking, error) {
	current, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(current.Status, status) {
		return nil, ErrInvalidTransition
	}
	if version == 0 {
		version = current.Version
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, version, status); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("booking_id", id).
		Str("from", current.Status).
		Str("to", status).
		Str("actor", actorID).
		Msg("booking status changed")
	s.publishEvent(events.EventBookingStatusChanged, updated, current.Status, actorID)

	return updated, nil
}

// ListBookings returns bookings between from and to inclusive.
func (s *BookingService) ListBookings(ctx context.Context, from, to string, statuses []string) ([]*models.Booking, error) {
	fromDate, err := time.Parse(models.DateLayout, from)
	if err != nil {
		return nil, invalid("from must be YYYY-MM-DD")
	}
	toDate, err := time.Parse(models.DateLayout, to)
	if err != nil {
		return nil, invalid("to must be YYYY-MM-DD")
	}
	if toDate.Before(fromDate) {
		return nil, invalid("to must not be before from")
	}
	if toDate.Sub(fromDate) > maxListRangeDays*24*time.Hour {
		return nil, invalid("range must not exceed %d days", maxListRangeDays)
	}
	for _, st := range statuses {
		if !validStatus(st) {
			return nil, invalid("unknown status %q", st)
		}
	}

	bookings, err := s.repo.ListBookingsByDateRange(ctx, from, to, statuses)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return bookings, nil
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, previous, actor string) {
	payload := events.BookingEventPayload{
		BookingID:      b.ID,
		ServiceID:      b.ServiceID,
		ServiceName:    b.ServiceName,
		CustomerName:   b.CustomerName,
		Date:           b.Date,
		StartTime:      b.StartTime,
		Status:         b.Status,
		PreviousStatus: previous,
		ChangedBy:      actor,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Int64("booking_id", b.ID).Msg("failed to publish event")
	}
}

func (s *BookingService) normalizeRequest(req *BookingRequest) error {
	req.Date = strings.TrimSpace(req.Date)
	req.StartTime = strings.TrimSpace(req.StartTime)
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	req.Notes = strings.TrimSpace(req.Notes)

	return checkStruct(s.validate, req)
}

func validStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusConfirmed, models.StatusCancelled, models.StatusCompleted:
		return true
	}
	return false
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrClosedDay):
		return "unavailable"
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrPastDate), errors.Is(err, ErrDateTooFar), isNotFound(err):
		return "invalid"
	default:
		return "error"
	}
}
