package repository

import (
	"context"
	"testing"
	"time"

	"salon/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionStore(client, 30*time.Minute)
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := &models.Session{
			Token:      "tok-1",
			UserID:     "user-1",
			CreatedAt:  time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
			LastSeenAt: time.Date(2030, 1, 1, 9, 5, 0, 0, time.UTC),
		}
		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.UserID, got.UserID)
		assert.True(t, session.LastSeenAt.Equal(got.LastSeenAt))
		assert.Equal(t, 30*time.Minute, s.TTL(sessionKeyPrefix+"tok-1"))
	})

	t.Run("IdleSessionExpires", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "tok-2"}))
		s.FastForward(31 * time.Minute)

		got, err := repo.GetSession(ctx, "tok-2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteSession", func(t *testing.T) {
		require.NoError(t, repo.SaveSession(ctx, &models.Session{Token: "tok-3"}))
		require.NoError(t, repo.DeleteSession(ctx, "tok-3"))

		got, _ := repo.GetSession(ctx, "tok-3")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "signin:owner@salon.test"
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, 2, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("RateLimitWindowIsNotExtended", func(t *testing.T) {
		key := "signin:admin@salon.test"
		window := time.Minute

		_, err := repo.CheckRateLimit(ctx, key, 5, window)
		require.NoError(t, err)
		assert.Equal(t, window, s.TTL(rateLimitKeyPrefix+key))

		s.FastForward(20 * time.Second)
		_, err = repo.CheckRateLimit(ctx, key, 5, window)
		require.NoError(t, err)
		assert.Equal(t, 40*time.Second, s.TTL(rateLimitKeyPrefix+key))
	})

	t.Run("RateLimitUnavailable", func(t *testing.T) {
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
		defer down.Close()

		allowed, err := NewRedisSessionStore(down, time.Hour).CheckRateLimit(ctx, "k", 1, time.Minute)
		assert.Error(t, err)
		assert.False(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionStore(nil, time.Hour)
		_, err := repo.GetSession(ctx, "x")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
	})
}
