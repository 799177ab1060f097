package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"salon/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticAuth struct {
	userID   string
	password string
}

func (a staticAuth) Authenticate(_ context.Context, _ string, password string) (string, error) {
	if password != a.password {
		return "", ErrInvalidCredentials
	}
	return a.userID, nil
}

func newTestManager(t *testing.T, idle time.Duration, onExpire func()) (*Manager, *repository.MemorySessionStore) {
	t.Helper()
	store := repository.NewMemorySessionStore(time.Hour)
	m := NewManager(store, staticAuth{userID: "admin-1", password: "secret"}, idle, nil, onExpire)
	t.Cleanup(m.Close)
	return m, store
}

func TestManagerSignInAndGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, time.Hour, nil)

	session, err := m.SignIn(ctx, "Owner@Salon.test", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "admin-1", session.UserID)
	assert.Equal(t, 1, m.activeTimers())

	got, err := m.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)
	assert.False(t, got.LastSeenAt.Before(session.LastSeenAt))

	_, err = m.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = m.Get(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerSignInRejectsBadPassword(t *testing.T) {
	m, _ := newTestManager(t, time.Hour, nil)

	_, err := m.SignIn(context.Background(), "owner@salon.test", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, m.activeTimers())
}

func TestManagerSignInRateLimited(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, time.Hour, nil)

	for i := 0; i < signInLimit; i++ {
		_, err := m.SignIn(ctx, "owner@salon.test", "nope")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := m.SignIn(ctx, " OWNER@salon.test", "secret")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestManagerSignOut(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t, time.Hour, nil)

	session, err := m.SignIn(ctx, "owner@salon.test", "secret")
	require.NoError(t, err)

	require.NoError(t, m.SignOut(ctx, session.Token))
	assert.Equal(t, 0, m.activeTimers())

	stored, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.NoError(t, m.SignOut(ctx, session.Token))
}

func TestManagerIdleExpiry(t *testing.T) {
	ctx := context.Background()
	var expired atomic.Int32
	m, store := newTestManager(t, 50*time.Millisecond, func() { expired.Add(1) })

	session, err := m.SignIn(ctx, "owner@salon.test", "secret")
	require.NoError(t, err)

	// activity keeps the session alive
	for i := 0; i < 3; i++ {
		time.Sleep(25 * time.Millisecond)
		_, err := m.Get(ctx, session.Token)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(0), expired.Load())

	require.Eventually(t, func() bool { return expired.Load() == 1 }, time.Second, 5*time.Millisecond)

	stored, err := store.GetSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Equal(t, 0, m.activeTimers())

	_, err = m.Get(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
