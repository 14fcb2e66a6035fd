package playback

// Persister receives best-effort persistence callbacks. Failures must be
// absorbed by the implementation; playback never depends on them.
type Persister interface {
	SavePosition(trackID int64, position float64)
	IncrementPlayCount(trackID int64) error
}

// Scrobbler receives fire-and-forget now-playing notifications.
type Scrobbler interface {
	NowPlaying(track Track)
	Scrobble(track Track)
}

// Service is the playback orchestration surface exposed to collaborators
// (shell, MPRIS, remote control).
type Service interface {
	// State queries
	IsPlaying() bool
	IsLoading() bool
	Progress() float64
	Duration() float64
	Volume() float64
	IsMuted() bool
	BackendError() string
	CurrentTrack() *Track
	CurrentIndex() int
	Snapshot() State

	// Track list (owned by the library collaborator, read-only here)
	SetTracks(tracks []Track)
	Tracks() []Track

	// Transport
	LoadTrack(index int) error
	Play() error
	Pause() error
	Stop() error
	Seek(seconds float64) error
	Skip(delta float64) error
	ChangeVolume(v float64) error
	ToggleMute() error

	// Sequencer actions
	HandleNextTrack() error
	HandlePrevTrack() error
	HandleSeek(percent float64)
	HandleVolumeChange(v float64) error
	HandleToggleMute() error

	// Mode control
	Shuffle() bool
	SetShuffle(enabled bool)
	ToggleShuffle() bool
	RepeatMode() RepeatMode
	SetRepeatMode(mode RepeatMode)
	CycleRepeatMode() RepeatMode

	// A-B loop
	SetLoopPoints(pointA, pointB float64)
	ClearLoop()

	// Event subscription
	Subscribe() *Subscription

	// Lifecycle
	Close() error
}
