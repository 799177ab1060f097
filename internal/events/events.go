package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventBookingRequested     = "booking_requested"
	EventBookingStatusChanged = "booking_status_changed"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID      int64  `json:"booking_id"`
	ServiceID      int64  `json:"service_id"`
	ServiceName    string `json:"service_name"`
	CustomerName   string `json:"customer_name"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	ChangedBy      string `json:"changed_by,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      zerolog.Logger
}

// NewEventBus constructs an empty bus. Handler errors are logged to logger.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "events").Logger()
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: base}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	// Handlers run synchronously; caller decides concurrency model.
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// LogBookingEvents returns a handler writing booking events to logger.
func LogBookingEvents(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		var p BookingEventPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			return err
		}
		logger.Info().
			Str("event", event.Type).
			Int64("booking_id", p.BookingID).
			Str("service", p.ServiceName).
			Str("date", p.Date).
			Str("start_time", p.StartTime).
			Str("status", p.Status).
			Str("previous_status", p.PreviousStatus).
			Str("changed_by", p.ChangedBy).
			Msg("booking event")
		return nil
	}
}
