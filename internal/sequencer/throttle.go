package sequencer

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultSeekWindow is the throttle window for backend seek calls.
const DefaultSeekWindow = 250 * time.Millisecond

// SeekThrottle coalesces rapid seek requests into at most one backend call
// per window. The first request in a window fires immediately; later ones
// overwrite the pending target, which is flushed when the window closes.
// Displayed position is the caller's concern and updates before the backend
// call is even scheduled.
type SeekThrottle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	window  time.Duration
	send    func(seconds float64)

	pending *float64
	timer   *time.Timer
}

// NewSeekThrottle creates a throttle that delivers targets through send.
func NewSeekThrottle(window time.Duration, send func(float64)) *SeekThrottle {
	if window <= 0 {
		window = DefaultSeekWindow
	}
	return &SeekThrottle{
		limiter: rate.NewLimiter(rate.Every(window), 1),
		window:  window,
		send:    send,
	}
}

// Request asks for a seek to the given absolute position.
func (t *SeekThrottle) Request(seconds float64) {
	t.mu.Lock()
	if t.limiter.Allow() {
		// This request supersedes anything still waiting to flush;
		// drop it so an older target can never land after this one.
		t.pending = nil
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
		t.mu.Unlock()
		t.send(seconds)
		return
	}
	t.pending = &seconds
	if t.timer == nil {
		t.timer = time.AfterFunc(t.window, t.flush)
	}
	t.mu.Unlock()
}

func (t *SeekThrottle) flush() {
	t.mu.Lock()
	target := t.pending
	t.pending = nil
	t.timer = nil
	t.mu.Unlock()
	if target != nil {
		t.send(*target)
	}
}

// Stop drops any pending target and cancels the flush timer.
func (t *SeekThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
