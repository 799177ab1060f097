package repository

import (
	"context"
	"sync/atomic"
	"time"

	"salon/internal/domain"
	"salon/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionStore uses primary until it errors, then serves from
// fallback and probes primary again once per recoveryInterval.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverSessionStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

// usePrimary reports whether the next call should go to primary.
func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionStore) recovered() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

func (r *FailoverSessionStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	if r.usePrimary() {
		session, err := r.primary.GetSession(ctx, token)
		if err == nil {
			r.recovered()
			if session != nil {
				return session, nil
			}
			// may have been saved while primary was down
			return r.fallback.GetSession(ctx, token)
		}
		r.markDown(err)
	}
	return r.fallback.GetSession(ctx, token)
}

func (r *FailoverSessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	if r.usePrimary() {
		err := r.primary.SaveSession(ctx, session)
		if err == nil {
			r.recovered()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.SaveSession(ctx, session)
}

func (r *FailoverSessionStore) DeleteSession(ctx context.Context, token string) error {
	// the session may live in either store
	fallbackErr := r.fallback.DeleteSession(ctx, token)
	if r.usePrimary() {
		err := r.primary.DeleteSession(ctx, token)
		if err == nil {
			r.recovered()
			return fallbackErr
		}
		r.markDown(err)
	}
	return fallbackErr
}

func (r *FailoverSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.recovered()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
