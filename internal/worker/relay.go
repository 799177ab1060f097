package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salon/internal/events"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	// RelayKey список Redis, куда публикуются события бронирований
	RelayKey = "salon:events"
	// relayMaxLen ограничение длины списка, старые события отбрасываются
	relayMaxLen    = 1000
	relayQueueSize = 128
)

var ErrRelayQueueFull = errors.New("event relay queue is full")

// relayedEvent is the JSON document pushed to Redis.
type relayedEvent struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventRelay forwards booking events to a capped Redis list for
// out-of-process consumers. Handle only enqueues; Start does the pushing.
type EventRelay struct {
	client *redis.Client
	key    string
	retry  RetryPolicy
	queue  chan events.Event
	logger zerolog.Logger
}

func NewEventRelay(client *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *EventRelay {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "event_relay").Logger()
	}
	return &EventRelay{
		client: client,
		key:    RelayKey,
		retry:  retry,
		queue:  make(chan events.Event, relayQueueSize),
		logger: base,
	}
}

// Handle is an events.EventHandler. It never blocks the publisher.
func (r *EventRelay) Handle(event *events.Event) error {
	if event == nil {
		return nil
	}
	select {
	case r.queue <- *event:
		return nil
	default:
		return ErrRelayQueueFull
	}
}

// Start pushes queued events until ctx is done.
func (r *EventRelay) Start(ctx context.Context) {
	r.logger.Info().Str("key", r.key).Msg("event relay started")
	defer r.logger.Info().Msg("event relay stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.queue:
			if err := r.deliver(ctx, ev); err != nil && ctx.Err() == nil {
				r.logger.Error().Err(err).Str("event", ev.Type).Msg("event dropped after retries")
			}
		}
	}
}

func (r *EventRelay) deliver(ctx context.Context, ev events.Event) error {
	data, err := json.Marshal(relayedEvent{Type: ev.Type, Payload: ev.Payload, CreatedAt: ev.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	attempt := 0
	return r.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		pipe := r.client.TxPipeline()
		pipe.LPush(ctx, r.key, data)
		pipe.LTrim(ctx, r.key, 0, relayMaxLen-1)
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Warn().Err(err).Int("attempt", attempt).Str("event", ev.Type).Msg("event relay push failed")
			return err
		}
		return nil
	})
}
