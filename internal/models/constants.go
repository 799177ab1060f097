package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

const (
	// DefaultSessionIdleTimeout сессия администратора без активности, в секундах
	DefaultSessionIdleTimeout = 30 * 60

	// DefaultMaxAdvanceDays насколько вперёд можно записаться
	DefaultMaxAdvanceDays = 90

	// RateLimitRPS запросов в секунду на клиента для публичного API
	RateLimitRPS = 5

	// RateLimitBurst всплеск запросов на клиента
	RateLimitBurst = 10

	// MaxNotesLength ограничение комментария клиента
	MaxNotesLength = 500
)
