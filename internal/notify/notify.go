// Package notify sends desktop notifications over D-Bus.
package notify

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// TrackNotifier sends one now-playing notification per track change,
// replacing the previous one so track skipping does not stack bubbles.
type TrackNotifier struct {
	notifier Notifier
	lastID   uint32
}

// NewTrackNotifier wraps a Notifier for now-playing announcements.
func NewTrackNotifier(n Notifier) *TrackNotifier {
	return &TrackNotifier{notifier: n}
}

// NowPlaying announces a track change.
func (t *TrackNotifier) NowPlaying(title, artist string) {
	id, err := t.notifier.Notify(Notification{
		Title:      title,
		Body:       artist,
		Icon:       "audio-x-generic",
		Timeout:    5000,
		ReplacesID: t.lastID,
		Urgency:    UrgencyLow,
	})
	if err == nil && id != 0 {
		t.lastID = id
	}
}
