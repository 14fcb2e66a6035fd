package playback

// StateChange is emitted when the playing intent or the loading flag flips.
type StateChange struct {
	Playing bool
	Loading bool
}

// TrackChange is emitted when a track load completes, whether user-initiated
// or an automatic advance. Pause/Stop do not emit. The shell handles track
// side effects (notifications, MPRIS metadata) in response to this event.
type TrackChange struct {
	Previous      *Track
	Current       *Track
	PreviousIndex int
	Index         int
}

// PositionChange is emitted when a seek occurs. Periodic ticks do not emit;
// consumers poll Progress for those.
type PositionChange struct {
	Position float64
}

// VolumeChange is emitted when volume or mute changes.
type VolumeChange struct {
	Volume float64
	Muted  bool
}

// ErrorEvent is emitted when an operation fails. Persistent backend
// unavailability additionally sets Store.BackendError; everything else is a
// transient notice.
type ErrorEvent struct {
	Operation string // e.g. "play", "seek", "load track"
	Path      string // track path if applicable
	Err       error
}
