package playback

// Track is an immutable description of a playable file. It is owned by the
// library collaborator; this engine only reads it. Duration is the library's
// stated duration in seconds, used as a fallback when the backend reports 0.
type Track struct {
	ID          int64
	Path        string
	DisplayName string
	Title       string
	Artist      string
	Album       string
	Duration    float64
}

// Name returns the best available display string for the track.
func (t Track) Name() string {
	if t.Title != "" {
		return t.Title
	}
	return t.DisplayName
}
