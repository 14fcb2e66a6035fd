package state

import (
	"database/sql"
	"errors"

	dbutil "github.com/ndelorme/attune/internal/db"
)

// PlaybackSettings is the persisted slice of playback state restored at
// startup: user preferences plus the resume point.
type PlaybackSettings struct {
	Volume              float64
	Muted               bool
	Shuffle             bool
	RepeatMode          int
	LastTrackID         int64 // 0 when none
	LastPosition        float64
	CrossfadeEnabled    bool
	CrossfadeDurationMs int
}

// GetPlayback returns the saved playback settings, or defaults when nothing
// was saved yet.
func (m *Manager) GetPlayback() (*PlaybackSettings, error) {
	var s PlaybackSettings
	var lastTrackID sql.NullInt64

	row := m.db.QueryRow(`
		SELECT volume, muted, shuffle, repeat_mode,
		       last_track_id, last_position,
		       crossfade_enabled, crossfade_duration_ms
		FROM playback_state WHERE id = 1
	`)
	err := row.Scan(
		&s.Volume, &s.Muted, &s.Shuffle, &s.RepeatMode,
		&lastTrackID, &s.LastPosition,
		&s.CrossfadeEnabled, &s.CrossfadeDurationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return &PlaybackSettings{Volume: 1.0, CrossfadeDurationMs: 3000}, nil
	}
	if err != nil {
		return nil, err
	}

	s.LastTrackID = dbutil.NullInt64Value(lastTrackID)
	return &s, nil
}

// SavePlayback persists the playback settings.
func (m *Manager) SavePlayback(s PlaybackSettings) error {
	var lastTrackID any
	if s.LastTrackID > 0 {
		lastTrackID = s.LastTrackID
	}
	_, err := m.db.Exec(`
		INSERT INTO playback_state (
			id, volume, muted, shuffle, repeat_mode,
			last_track_id, last_position,
			crossfade_enabled, crossfade_duration_ms
		)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			muted = excluded.muted,
			shuffle = excluded.shuffle,
			repeat_mode = excluded.repeat_mode,
			last_track_id = excluded.last_track_id,
			last_position = excluded.last_position,
			crossfade_enabled = excluded.crossfade_enabled,
			crossfade_duration_ms = excluded.crossfade_duration_ms
	`, s.Volume, s.Muted, s.Shuffle, s.RepeatMode,
		lastTrackID, s.LastPosition,
		s.CrossfadeEnabled, s.CrossfadeDurationMs)
	return err
}

func savePosition(db *sql.DB, trackID int64, position float64) error {
	_, err := db.Exec(`
		INSERT INTO playback_state (id, last_track_id, last_position)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_track_id = excluded.last_track_id,
			last_position = excluded.last_position
	`, trackID, position)
	return err
}
