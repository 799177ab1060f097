package models

import "time"

type Booking struct {
	ID              int64     `json:"id"`
	ServiceID       int64     `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	CustomerName    string    `json:"customer_name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	Date            string    `json:"date"`       // YYYY-MM-DD
	StartTime       string    `json:"start_time"` // HH:MM
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"` // pending, confirmed, cancelled, completed
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Version         int64     `json:"version"`
}

// Holds reports whether the booking still reserves its time cells.
func (b *Booking) Holds() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}
