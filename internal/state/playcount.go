package state

import (
	"database/sql"
	"errors"
	"time"
)

// IncrementPlayCount bumps the play count for a track.
func (m *Manager) IncrementPlayCount(trackID int64) error {
	_, err := m.db.Exec(`
		INSERT INTO play_counts (track_id, count, last_played_at)
		VALUES (?, 1, ?)
		ON CONFLICT(track_id) DO UPDATE SET
			count = count + 1,
			last_played_at = excluded.last_played_at
	`, trackID, time.Now().Unix())
	return err
}

// PlayCount returns the recorded play count for a track.
func (m *Manager) PlayCount(trackID int64) (int, error) {
	var count int
	row := m.db.QueryRow(`SELECT count FROM play_counts WHERE track_id = ?`, trackID)
	err := row.Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
