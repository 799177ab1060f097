package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"salon/internal/availability"
	"salon/internal/models"
)

const bookingColumns = `id, service_id, service_name, customer_name, phone, email, date, start_time, duration_minutes, status, notes, created_at, updated_at, version`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.ServiceID,
		&b.ServiceName,
		&b.CustomerName,
		&b.Phone,
		&b.Email,
		&b.Date,
		&b.StartTime,
		&b.DurationMinutes,
		&b.Status,
		&b.Notes,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// CreateBooking stores a pending booking. The occupied cells of every
// pending or confirmed booking for the same service and date are re-checked
// inside the transaction; ErrSlotTaken is returned on overlap.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return fmt.Errorf("booking is nil")
	}
	start, err := availability.ParseTimeOfDay(booking.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	held, err := holdingBookings(ctx, tx, booking.ServiceID, booking.Date)
	if err != nil {
		return err
	}

	taken := make(map[int]struct{})
	for _, h := range held {
		hStart, err := availability.ParseTimeOfDay(h.StartTime)
		if err != nil {
			db.logger.Warn().Int64("booking_id", h.ID).Str("start_time", h.StartTime).Msg("skipping booking with malformed start time")
			continue
		}
		for _, cell := range availability.OccupiedCells(hStart, h.DurationMinutes) {
			taken[cell] = struct{}{}
		}
	}
	for _, cell := range availability.OccupiedCells(start, booking.DurationMinutes) {
		if _, ok := taken[cell]; ok {
			return ErrSlotTaken
		}
	}

	now := time.Now()
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO bookings (
            service_id, service_name, customer_name, phone, email, date, start_time,
            duration_minutes, status, notes, created_at, updated_at, version
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		booking.ServiceID, booking.ServiceName, booking.CustomerName, booking.Phone, booking.Email,
		booking.Date, booking.StartTime, booking.DurationMinutes, booking.Status, booking.Notes, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	db.logger.Debug().
		Int64("booking_id", id).
		Int64("service_id", booking.ServiceID).
		Str("date", booking.Date).
		Str("start_time", booking.StartTime).
		Msg("booking created")
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func holdingBookings(ctx context.Context, q queryer, serviceID int64, date string) ([]*models.Booking, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings
        WHERE service_id = ? AND date = ? AND status IN (?, ?)
        ORDER BY start_time`,
		serviceID, date, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	return scanBooking(row)
}

// ListActiveBookingsForDate returns the pending and confirmed bookings that
// hold cells of the given service on the given date.
func (db *DB) ListActiveBookingsForDate(ctx context.Context, serviceID int64, date string) ([]*models.Booking, error) {
	return holdingBookings(ctx, db, serviceID, date)
}

// ListBookingsByDateRange returns bookings with from <= date <= to, optionally
// filtered by status, ordered by date and start time.
func (db *DB) ListBookingsByDateRange(ctx context.Context, from, to string, statuses []string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE date >= ? AND date <= ?`
	args := []any{from, to}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(", ?", len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY date, start_time, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateBookingStatus changes the status if the stored version still matches.
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, version int64, status string) error {
	res, err := db.ExecContext(ctx, `UPDATE bookings
        SET status = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?`,
		status, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("failed to update booking %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	return nil
}
