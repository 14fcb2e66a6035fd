package backend

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// StateWriter is the slice of the shared playback state the bridge mutates.
// The bridge is the sole writer of live position and duration.
type StateWriter interface {
	SetPosition(seconds float64)
	SetDuration(seconds float64)
	Duration() float64
	SetPlayingIntent(playing bool)
	SetBackendError(msg string)
	ClearBackendError()
	BackendError() string
}

// Health describes the backend relationship as last observed.
type Health struct {
	Available bool
	LastError error
}

// Bridge owns the relationship with the native engine. All commands funnel
// through it so that backend failures are tracked in one place, and engine
// event completions are serialized onto a single goroutine.
type Bridge struct {
	mu      sync.Mutex
	backend Backend
	state   StateWriter
	logger  *log.Logger

	health Health

	onTick  func(Tick)
	onEnded func()

	done    chan struct{}
	stopped sync.Once
}

// NewBridge creates a bridge over the given engine. Start must be called
// before any command is issued.
func NewBridge(b Backend, state StateWriter, logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridge{
		backend: b,
		state:   state,
		logger:  logger.With("component", "bridge"),
		done:    make(chan struct{}),
	}
}

// Start probes the engine and starts the event loop. A failed probe does not
// fail Start: the error is recorded on the shared state and every command
// short-circuits until Reprobe succeeds.
func (br *Bridge) Start() {
	if err := br.Reprobe(); err != nil {
		br.logger.Error("backend probe failed", "err", err)
	}
	go br.eventLoop()
}

// Reprobe checks engine availability and updates the shared backend error.
func (br *Bridge) Reprobe() error {
	_, err := br.backend.IsPlaying()
	br.mu.Lock()
	defer br.mu.Unlock()
	if err != nil {
		br.health = Health{Available: false, LastError: err}
		br.state.SetBackendError(UnavailableMessage)
		return fmt.Errorf("probe backend: %w", err)
	}
	br.health = Health{Available: true}
	br.state.ClearBackendError()
	return nil
}

// Health returns the backend health as last observed.
func (br *Bridge) Health() Health {
	br.mu.Lock()
	defer br.mu.Unlock()
	return br.health
}

// OnTick registers the single tick handler. Must be called before Start.
func (br *Bridge) OnTick(fn func(Tick)) {
	br.onTick = fn
}

// OnEnded registers the single track-ended handler. Must be called before
// Start.
func (br *Bridge) OnEnded(fn func()) {
	br.onEnded = fn
}

func (br *Bridge) unavailable() bool {
	return br.state.BackendError() != ""
}

// Load loads a track into the engine. Unlike the transport commands it
// surfaces unavailability as an error: callers must know the load failed.
func (br *Bridge) Load(path string) error {
	if br.unavailable() {
		return ErrBackendUnavailable
	}
	if err := br.backend.Load(path); err != nil {
		br.noteFailure(err)
		return err
	}
	return nil
}

// Play starts the engine transport. If no output device is present the call
// declines silently: skipping playback is better than surfacing an error on
// every keypress while headphones are unplugged. A rejected play gets exactly
// one recovery cycle (device-changed check, recover, retry) before failing.
func (br *Bridge) Play() error {
	if br.unavailable() {
		return ErrBackendUnavailable
	}
	if !br.backend.IsDeviceAvailable() {
		br.logger.Warn("play declined, no audio device available")
		return nil
	}
	err := br.backend.Play()
	if err == nil {
		return nil
	}
	br.logger.Warn("play rejected, attempting device recovery", "err", err)
	if br.backend.HasDeviceChanged() {
		br.logger.Info("audio device changed since last play")
	}
	if ok, recErr := br.backend.Recover(); recErr != nil || !ok {
		br.noteFailure(err)
		return &StreamError{Op: "play", Err: err}
	}
	if retryErr := br.backend.Play(); retryErr != nil {
		br.noteFailure(retryErr)
		return &StreamError{Op: "play", Err: retryErr}
	}
	br.logger.Info("play recovered after device change")
	return nil
}

// Pause pauses the engine transport. No-op while the backend is unavailable:
// there is nothing audible to pause and the persistent banner already tells
// the user what is wrong.
func (br *Bridge) Pause() error {
	if br.unavailable() {
		br.logger.Debug("pause skipped, backend unavailable")
		return nil
	}
	if err := br.backend.Pause(); err != nil {
		return &StreamError{Op: "pause", Err: err}
	}
	return nil
}

// Stop stops the engine transport. No-op while unavailable.
func (br *Bridge) Stop() error {
	if br.unavailable() {
		return nil
	}
	return br.backend.Stop()
}

// Seek moves the engine position. No-op while unavailable.
func (br *Bridge) Seek(seconds float64) error {
	if br.unavailable() {
		br.logger.Debug("seek skipped, backend unavailable")
		return nil
	}
	if err := br.backend.Seek(seconds); err != nil {
		return &StreamError{Op: "seek", Err: err}
	}
	return nil
}

// SetVolume forwards the volume to the engine. No-op while unavailable.
func (br *Bridge) SetVolume(v float64) error {
	if br.unavailable() {
		return nil
	}
	return br.backend.SetVolume(v)
}

// TrackDuration returns the engine-reported duration in seconds, 0 when
// unknown.
func (br *Bridge) TrackDuration() float64 {
	return br.backend.Duration()
}

// noteFailure records a failed command on the health record without marking
// the backend unavailable; only a failed probe does that.
func (br *Bridge) noteFailure(err error) {
	br.mu.Lock()
	br.health.LastError = err
	br.mu.Unlock()
}

// eventLoop serializes engine events onto one goroutine. All live position
// and duration writes happen here.
func (br *Bridge) eventLoop() {
	for {
		select {
		case <-br.done:
			return
		case t, ok := <-br.backend.Ticks():
			if !ok {
				return
			}
			br.handleTick(t)
		case _, ok := <-br.backend.Ended():
			if !ok {
				return
			}
			br.handleEnded()
		}
	}
}

func (br *Bridge) handleTick(t Tick) {
	if t.Duration != br.state.Duration() {
		br.state.SetDuration(t.Duration)
	}
	pos := t.Position
	if pos < 0 {
		pos = 0
	}
	if t.Duration > 0 && pos > t.Duration {
		pos = t.Duration
	}
	br.state.SetPosition(pos)
	if br.onTick != nil {
		br.onTick(t)
	}
}

// handleEnded resets the intent and position before notifying the sequencer
// reaction, so a consumer reading state right after the event never sees a
// stale "playing" at the old position.
func (br *Bridge) handleEnded() {
	br.state.SetPlayingIntent(false)
	br.state.SetPosition(0)
	if br.onEnded != nil {
		br.onEnded()
	}
}

// Close stops the event loop. The engine itself is closed by its owner.
func (br *Bridge) Close() {
	br.stopped.Do(func() { close(br.done) })
}
