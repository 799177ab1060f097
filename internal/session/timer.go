package session

import (
	"sync"
	"time"
)

// IdleTimer fires fn once after d of inactivity. Restart re-arms it;
// a fire that raced with Restart or Stop is dropped.
type IdleTimer struct {
	mu      sync.Mutex
	d       time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewIdleTimer(d time.Duration, fn func()) *IdleTimer {
	t := &IdleTimer{d: d, fn: fn}
	t.mu.Lock()
	t.arm()
	t.mu.Unlock()
	return t
}

func (t *IdleTimer) arm() {
	gen := t.gen
	t.timer = time.AfterFunc(t.d, func() { t.fire(gen) })
}

func (t *IdleTimer) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	t.fn()
}

// Restart cancels the pending fire and schedules a new one. It returns
// false once the timer has fired or been stopped.
func (t *IdleTimer) Restart() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.timer.Stop()
	t.gen++
	t.arm()
	return true
}

// Stop cancels the timer for good.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.timer.Stop()
}
