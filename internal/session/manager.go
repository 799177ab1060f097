package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"salon/internal/domain"
	"salon/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	signInLimit   = 5
	signInWindow  = time.Minute
	expireTimeout = 5 * time.Second
)

// Manager owns admin sessions and their inactivity timers.
type Manager struct {
	store    domain.SessionStore
	auth     Authenticator
	idle     time.Duration
	logger   zerolog.Logger
	onExpire func()
	now      func() time.Time

	mu     sync.Mutex
	timers map[string]sessionTimer
	nextID uint64
}

type sessionTimer struct {
	id    uint64
	timer *IdleTimer
}

// NewManager builds a Manager. onExpire, when set, is called after each
// idle expiry.
func NewManager(store domain.SessionStore, auth Authenticator, idle time.Duration, logger *zerolog.Logger, onExpire func()) *Manager {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "session").Logger()
	}
	return &Manager{
		store:    store,
		auth:     auth,
		idle:     idle,
		logger:   base,
		onExpire: onExpire,
		now:      time.Now,
		timers:   make(map[string]sessionTimer),
	}
}

// SignIn authenticates the admin and opens a new session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	allowed, err := m.store.CheckRateLimit(ctx, "signin:"+email, signInLimit, signInWindow)
	if err != nil {
		return nil, fmt.Errorf("check sign-in rate limit: %w", err)
	}
	if !allowed {
		m.logger.Warn().Str("email", email).Msg("sign-in rate limit exceeded")
		return nil, ErrTooManyAttempts
	}

	userID, err := m.auth.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := m.now()
	session := &models.Session{
		Token:      uuid.NewString(),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := m.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.touchTimer(session.Token)

	m.logger.Info().Str("user_id", userID).Msg("admin signed in")
	return session, nil
}

// Get returns the session and records activity, pushing back its expiry.
func (m *Manager) Get(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	session, err := m.store.GetSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		m.stopTimer(token)
		return nil, ErrSessionNotFound
	}

	session.LastSeenAt = m.now()
	if err := m.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.touchTimer(token)
	return session, nil
}

// SignOut ends the session. Unknown tokens are not an error.
func (m *Manager) SignOut(ctx context.Context, token string) error {
	m.stopTimer(token)
	if err := m.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info().Msg("admin signed out")
	return nil
}

// Close stops every pending inactivity timer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, t := range m.timers {
		t.timer.Stop()
		delete(m.timers, token)
	}
}

// activeTimers reports how many sessions currently have an armed timer.
func (m *Manager) activeTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manager) touchTimer(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[token]; ok && t.timer.Restart() {
		return
	}
	m.nextID++
	id := m.nextID
	m.timers[token] = sessionTimer{id: id, timer: NewIdleTimer(m.idle, func() { m.expire(token, id) })}
}

func (m *Manager) stopTimer(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[token]; ok {
		t.timer.Stop()
		delete(m.timers, token)
	}
}

func (m *Manager) expire(token string, id uint64) {
	m.mu.Lock()
	if t, ok := m.timers[token]; !ok || t.id != id {
		m.mu.Unlock()
		return
	}
	delete(m.timers, token)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), expireTimeout)
	defer cancel()
	if err := m.store.DeleteSession(ctx, token); err != nil {
		m.logger.Error().Err(err).Msg("failed to delete expired session")
	}
	m.logger.Info().Dur("idle", m.idle).Msg("admin session expired")
	if m.onExpire != nil {
		m.onExpire()
	}
}
