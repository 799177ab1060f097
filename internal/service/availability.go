package service

import (
	"context"
	"errors"
	"time"

	"salon/internal/availability"
	"salon/internal/config"
	"salon/internal/database"
	"salon/internal/domain"
	"salon/internal/metrics"
	"salon/internal/models"

	"github.com/rs/zerolog"
)

// DayAvailability is the slot grid of one service on one date.
type DayAvailability struct {
	ServiceID       int64               `json:"service_id"`
	Date            string              `json:"date"`
	DurationMinutes int                 `json:"duration_minutes"`
	Closed          bool                `json:"closed"`
	Slots           []availability.Slot `json:"slots"`
}

type AvailabilityService struct {
	services       domain.ServiceRepository
	bookings       domain.BookingRepository
	openTime       string
	closeTime      string
	closedDays     map[time.Weekday]bool
	maxAdvanceDays int
	loc            *time.Location
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewAvailabilityService(
	services domain.ServiceRepository,
	bookings domain.BookingRepository,
	business config.BusinessConfig,
	logger *zerolog.Logger,
) (*AvailabilityService, error) {
	closed, err := business.ClosedDays()
	if err != nil {
		return nil, err
	}
	return &AvailabilityService{
		services:       services,
		bookings:       bookings,
		openTime:       business.OpenTime,
		closeTime:      business.CloseTime,
		closedDays:     closed,
		maxAdvanceDays: business.MaxAdvanceDays,
		loc:            business.Location(),
		now:            time.Now,
		logger:         logger,
	}, nil
}

// SetClock replaces the time source. It is a test hook; production code
// keeps the wall clock set by NewAvailabilityService.
func (s *AvailabilityService) SetClock(now func() time.Time) {
	s.now = now
}

// Today returns the current date in the business timezone.
func (s *AvailabilityService) Today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// GetSlots returns the candidate start times for a service on a date.
// Closed days yield an empty grid flagged Closed.
func (s *AvailabilityService) GetSlots(ctx context.Context, serviceID int64, date string) (*DayAvailability, error) {
	day, err := s.checkDate(date)
	if err != nil {
		return nil, err
	}

	svc, err := s.services.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, database.ErrNotFound
	}

	result := &DayAvailability{
		ServiceID:       svc.ID,
		Date:            date,
		DurationMinutes: svc.DurationMinutes,
		Slots:           []availability.Slot{},
	}
	if s.closedDays[day.Weekday()] {
		result.Closed = true
		return result, nil
	}

	booked, err := s.bookedTimes(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	slots, err := availability.GenerateSlots(s.openTime, s.closeTime, svc.DurationMinutes, booked, date, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}
	metrics.AddSlotsGenerated(len(slots))

	result.Slots = slots
	return result, nil
}

// bookedTimes expands every holding booking into its occupied 30-minute cells.
func (s *AvailabilityService) bookedTimes(ctx context.Context, serviceID int64, date string) ([]string, error) {
	bookings, err := s.bookings.ListActiveBookingsForDate(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}

	var booked []string
	for _, b := range bookings {
		if !b.Holds() {
			continue
		}
		start, err := availability.ParseTimeOfDay(b.StartTime)
		if err != nil {
			s.logger.Warn().Int64("booking_id", b.ID).Str("start_time", b.StartTime).Msg("skipping booking with malformed start time")
			continue
		}
		for _, cell := range availability.OccupiedCells(start, b.DurationMinutes) {
			booked = append(booked, availability.FormatTimeOfDay(cell))
		}
	}
	return booked, nil
}

func (s *AvailabilityService) checkDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateLayout, date, s.loc)
	if err != nil {
		return time.Time{}, invalid("date must be YYYY-MM-DD")
	}

	today, _ := time.ParseInLocation(models.DateLayout, s.Today(), s.loc)
	if day.Before(today) {
		return time.Time{}, ErrPastDate
	}
	if s.maxAdvanceDays > 0 && day.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return time.Time{}, ErrDateTooFar
	}
	return day, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
