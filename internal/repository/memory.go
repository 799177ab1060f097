package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"salon/internal/models"
)

// sweepInterval как часто удаляются истекшие сессии и счетчики
const sweepInterval = time.Minute

type memorySession struct {
	session   models.Session
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in process memory with the same
// sliding TTL as the Redis store.
type MemorySessionStore struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time
	lastSweep  atomic.Int64
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemorySessionStore) GetSession(_ context.Context, token string) (*models.Session, error) {
	val, ok := r.sessions.Load(token)
	if !ok {
		return nil, nil
	}
	entry := val.(*memorySession)
	if r.ttl > 0 && r.now().After(entry.expiresAt) {
		r.sessions.CompareAndDelete(token, val)
		return nil, nil
	}
	session := entry.session
	return &session, nil
}

func (r *MemorySessionStore) SaveSession(_ context.Context, session *models.Session) error {
	now := r.now()
	r.sweep(now)
	r.sessions.Store(session.Token, &memorySession{
		session:   *session,
		expiresAt: now.Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionStore) DeleteSession(_ context.Context, token string) error {
	r.sessions.Delete(token)
	return nil
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

// CheckRateLimit counts a hit for key in a fixed window. Expired windows
// are dropped from memory, so one-off keys do not accumulate.
func (r *MemorySessionStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := r.now()
	r.sweep(now)

	val, _ := r.rateLimits.LoadOrStore(key, &rateLimitEntry{expiresAt: now.Add(window)})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if now.After(entry.expiresAt) {
		entry.count = 0
		entry.expiresAt = now.Add(window)
	}
	entry.count++
	return entry.count <= limit, nil
}

// sweep removes expired sessions and rate-limit windows at most once per
// sweepInterval.
func (r *MemorySessionStore) sweep(now time.Time) {
	last := r.lastSweep.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < sweepInterval {
		return
	}
	if !r.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	r.rateLimits.Range(func(key, val any) bool {
		entry := val.(*rateLimitEntry)
		entry.mu.Lock()
		expired := now.After(entry.expiresAt)
		entry.mu.Unlock()
		if expired {
			r.rateLimits.CompareAndDelete(key, val)
		}
		return true
	})

	if r.ttl <= 0 {
		return
	}
	r.sessions.Range(func(key, val any) bool {
		if now.After(val.(*memorySession).expiresAt) {
			r.sessions.CompareAndDelete(key, val)
		}
		return true
	})
}
