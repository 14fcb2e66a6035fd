// Package crossfade computes time-based volume transitions between an
// outgoing and an incoming track.
//
// A crossfade is two half-sessions: a fade-out on the current track that
// signals its midpoint so the caller can swap tracks, and a fade-in on the
// incoming one. The engine only writes volume through the callback it is
// given; it never talks to the backend directly.
package crossfade

import (
	"errors"
	"math"
	"sync"
	"time"
)

const (
	// MinDuration and MaxDuration bound the configured crossfade length.
	MinDuration = 1 * time.Second
	MaxDuration = 12 * time.Second

	// DefaultDuration matches the stock configuration.
	DefaultDuration = 3 * time.Second

	sampleInterval = 50 * time.Millisecond

	// minRemaining is the slice of track end below which starting a fade is
	// pointless: the track ends before the curve becomes audible.
	minRemaining = 0.1
)

// ErrFadeActive is returned when a fade-out is requested while one runs.
var ErrFadeActive = errors.New("crossfade already in progress")

// Config controls the engine.
type Config struct {
	Enabled  bool
	Duration time.Duration
}

func (c Config) clamped() Config {
	if c.Duration <= 0 {
		c.Duration = DefaultDuration
	}
	if c.Duration < MinDuration {
		c.Duration = MinDuration
	}
	if c.Duration > MaxDuration {
		c.Duration = MaxDuration
	}
	return c
}

// FadeOut describes a fade-out session on the playing track.
type FadeOut struct {
	SetVolume     func(float64)
	CurrentVolume float64
	OnMidpoint    func() // swap tracks here; fired exactly once
	OnComplete    func()
}

// FadeIn describes a fade-in session on the incoming track.
type FadeIn struct {
	SetVolume    func(float64)
	TargetVolume float64
	OnComplete   func()
}

// Engine runs at most one fade-out and one fade-in at a time, each sampled
// on its own 50ms timer.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	// sample is swappable in tests.
	sample time.Duration

	fading         bool
	originalVolume float64
	fadeOutStop    chan struct{}
	fadeInStop     chan struct{}
}

// New creates an engine with the given config, duration clamped to
// [MinDuration, MaxDuration].
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.clamped(), sample: sampleInterval}
}

// SetConfig replaces the configuration. An active session keeps the timing
// it started with.
func (e *Engine) SetConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg.clamped()
}

// Config returns the current configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Active reports whether a fade-out session is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fading
}

// ShouldCrossfade reports whether a fade should begin, given the current
// position and track duration in seconds. True only when enabled, no session
// is active, the duration is known, and the remaining time is inside the
// crossfade window but not already at the very end.
func (e *Engine) ShouldCrossfade(position, trackDuration float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cfg.Enabled || e.fading || trackDuration <= 0 {
		return false
	}
	remaining := trackDuration - position
	return remaining > minRemaining && remaining <= e.cfg.Duration.Seconds()
}

// StartCrossfade begins a fade-out session. With crossfade disabled the
// session completes immediately so callers need no special case. A second
// start while one is running returns ErrFadeActive.
func (e *Engine) StartCrossfade(f FadeOut) error {
	e.mu.Lock()
	if !e.cfg.Enabled {
		e.mu.Unlock()
		if f.OnComplete != nil {
			f.OnComplete()
		}
		return nil
	}
	if e.fading {
		e.mu.Unlock()
		return ErrFadeActive
	}
	e.fading = true
	e.originalVolume = f.CurrentVolume
	stop := make(chan struct{})
	e.fadeOutStop = stop
	duration := e.cfg.Duration
	sample := e.sample
	e.mu.Unlock()

	go e.runFadeOut(f, duration, sample, stop)
	return nil
}

func (e *Engine) runFadeOut(f FadeOut, duration, sample time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(sample)
	defer ticker.Stop()

	start := time.Now()
	midpointFired := false

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			progress := math.Min(1, float64(elapsed)/float64(duration))
			f.SetVolume(math.Cos(progress*math.Pi/2) * f.CurrentVolume)

			if !midpointFired && elapsed >= duration/2 {
				midpointFired = true
				if f.OnMidpoint != nil {
					f.OnMidpoint()
				}
			}
			if elapsed >= duration {
				e.mu.Lock()
				if e.fadeOutStop == stop {
					e.fading = false
					e.fadeOutStop = nil
				}
				e.mu.Unlock()
				f.SetVolume(f.CurrentVolume)
				if f.OnComplete != nil {
					f.OnComplete()
				}
				return
			}
		}
	}
}

// StartFadeIn ramps the incoming track from silence to the target volume
// over half the configured crossfade duration. With crossfade disabled the
// target is applied immediately. The returned func cancels the ramp without
// touching the volume.
func (e *Engine) StartFadeIn(f FadeIn) (cancel func()) {
	e.mu.Lock()
	if !e.cfg.Enabled {
		e.mu.Unlock()
		f.SetVolume(f.TargetVolume)
		if f.OnComplete != nil {
			f.OnComplete()
		}
		return func() {}
	}
	if e.fadeInStop != nil {
		close(e.fadeInStop)
	}
	stop := make(chan struct{})
	e.fadeInStop = stop
	// Fade-in runs over half the crossfade duration; the asymmetry with the
	// full-length fade-out is inherited behavior.
	duration := e.cfg.Duration / 2
	sample := e.sample
	e.mu.Unlock()

	f.SetVolume(0)
	go e.runFadeIn(f, duration, sample, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if e.fadeInStop == stop {
				e.fadeInStop = nil
			}
			e.mu.Unlock()
			close(stop)
		})
	}
}

func (e *Engine) runFadeIn(f FadeIn, duration, sample time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(sample)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			progress := math.Min(1, float64(elapsed)/float64(duration))
			if progress >= 1 {
				e.mu.Lock()
				if e.fadeInStop == stop {
					e.fadeInStop = nil
				}
				e.mu.Unlock()
				f.SetVolume(f.TargetVolume)
				if f.OnComplete != nil {
					f.OnComplete()
				}
				return
			}
			f.SetVolume(math.Sin(progress*math.Pi/2) * f.TargetVolume)
		}
	}
}

// Cancel stops any pending fade-out and fade-in timers. If a fade-out was
// active the remembered pre-fade volume is restored through setVolume.
// Leaving either timer running after Cancel would leak a competing volume
// writer, so both are cleared unconditionally.
func (e *Engine) Cancel(setVolume func(float64)) {
	e.mu.Lock()
	wasFading := e.fading
	original := e.originalVolume
	if e.fadeOutStop != nil {
		close(e.fadeOutStop)
		e.fadeOutStop = nil
	}
	if e.fadeInStop != nil {
		close(e.fadeInStop)
		e.fadeInStop = nil
	}
	e.fading = false
	e.mu.Unlock()

	if wasFading && setVolume != nil {
		setVolume(original)
	}
}
