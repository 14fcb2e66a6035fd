package playback

import "sync"

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// State is a snapshot of the shared playback state.
//
// CurrentIndex and LoadingIndex are -1 when no track is current/loading.
// Position and Duration are in seconds. BackendError is empty while the
// backend is healthy.
type State struct {
	CurrentIndex  int
	PlayingIntent bool
	Position      float64
	Duration      float64
	Volume        float64
	Muted         bool
	Shuffle       bool
	RepeatMode    RepeatMode
	LoadingIndex  int
	BackendError  string
}

// Store is the single source of truth for playback state. All mutation goes
// through the named operations below; consumers read via Snapshot or the
// typed getters. Writers are the bridge (position/duration/intent on engine
// events), the loader (duration/position on load) and the service.
type Store struct {
	mu       sync.RWMutex
	s        State
	queueLen int
}

// NewStore creates a store with nothing loaded and full volume.
func NewStore() *Store {
	return &Store{
		s: State{
			CurrentIndex: -1,
			LoadingIndex: -1,
			Volume:       1.0,
		},
	}
}

// Snapshot returns a copy of the current state.
func (st *Store) Snapshot() State {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// SetQueueLength records the bound used for index validation.
func (st *Store) SetQueueLength(n int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.queueLen = n
	if st.s.CurrentIndex >= n {
		st.s.CurrentIndex = -1
	}
}

// QueueLength returns the recorded track count.
func (st *Store) QueueLength() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.queueLen
}

// SetCurrentIndex sets the current track index. Out-of-bounds values clear
// the index instead of going out of range.
func (st *Store) SetCurrentIndex(i int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if i < 0 || i >= st.queueLen {
		st.s.CurrentIndex = -1
		return
	}
	st.s.CurrentIndex = i
}

// CurrentIndex returns the current track index (-1 if none).
func (st *Store) CurrentIndex() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.CurrentIndex
}

// SetLoadingIndex marks the index of the track being loaded (-1 when idle).
func (st *Store) SetLoadingIndex(i int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.LoadingIndex = i
}

// IsLoading returns true while a track load is in flight.
func (st *Store) IsLoading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.LoadingIndex >= 0
}

// SetPlayingIntent records the desired transport state.
func (st *Store) SetPlayingIntent(playing bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.PlayingIntent = playing
}

// PlayingIntent returns the desired transport state.
func (st *Store) PlayingIntent() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.PlayingIntent
}

// SetPosition writes the playback position, clamped to [0, duration].
func (st *Store) SetPosition(seconds float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Position = clampPosition(seconds, st.s.Duration)
}

// Position returns the playback position in seconds.
func (st *Store) Position() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Position
}

// SetDuration writes the track duration and re-clamps the position.
func (st *Store) SetDuration(seconds float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	st.s.Duration = seconds
	st.s.Position = clampPosition(st.s.Position, seconds)
}

// Duration returns the track duration in seconds.
func (st *Store) Duration() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Duration
}

// SetVolume stores the volume, clamped to [0, 1].
func (st *Store) SetVolume(v float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Volume = clampVolume(v)
}

// Volume returns the stored volume.
func (st *Store) Volume() float64 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Volume
}

// SetMuted records the muted flag. The effective volume is handled by the
// caller; mute is implemented as volume=0.
func (st *Store) SetMuted(muted bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Muted = muted
}

// Muted returns the muted flag.
func (st *Store) Muted() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Muted
}

// SetShuffle records the shuffle flag.
func (st *Store) SetShuffle(enabled bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Shuffle = enabled
}

// Shuffle returns the shuffle flag.
func (st *Store) Shuffle() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Shuffle
}

// SetRepeatMode records the repeat mode.
func (st *Store) SetRepeatMode(mode RepeatMode) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.RepeatMode = mode
}

// RepeatMode returns the repeat mode.
func (st *Store) RepeatMode() RepeatMode {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.RepeatMode
}

// SetBackendError records a persistent backend failure message.
func (st *Store) SetBackendError(msg string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.BackendError = msg
}

// ClearBackendError clears the persistent failure message.
func (st *Store) ClearBackendError() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.BackendError = ""
}

// BackendError returns the persistent failure message, empty when healthy.
func (st *Store) BackendError() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.BackendError
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampPosition(pos, duration float64) float64 {
	if pos < 0 {
		return 0
	}
	if duration > 0 && pos > duration {
		return duration
	}
	return pos
}
