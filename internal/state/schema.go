package state

import (
	"database/sql"

	dbutil "github.com/ndelorme/attune/internal/db"
)

const currentSchemaVersion = 2

func initSchema(db *sql.DB) error {
	err := dbutil.WithTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS playback_state (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				volume REAL NOT NULL DEFAULT 1.0,
				muted INTEGER NOT NULL DEFAULT 0,
				shuffle INTEGER NOT NULL DEFAULT 0,
				repeat_mode INTEGER NOT NULL DEFAULT 0,
				last_track_id INTEGER,
				last_position REAL NOT NULL DEFAULT 0,
				crossfade_enabled INTEGER NOT NULL DEFAULT 0,
				crossfade_duration_ms INTEGER NOT NULL DEFAULT 3000
			);

			CREATE TABLE IF NOT EXISTS play_counts (
				track_id INTEGER PRIMARY KEY,
				count INTEGER NOT NULL DEFAULT 0,
				last_played_at INTEGER NOT NULL
			);
		`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT OR IGNORE INTO schema_version (version) VALUES (?)
		`, currentSchemaVersion)
		return err
	})
	if err != nil {
		return err
	}

	// Migration: add crossfade columns to databases created before version 2.
	// Errors are expected when the columns already exist.
	_, _ = db.Exec(`ALTER TABLE playback_state ADD COLUMN crossfade_enabled INTEGER NOT NULL DEFAULT 0`)
	_, _ = db.Exec(`ALTER TABLE playback_state ADD COLUMN crossfade_duration_ms INTEGER NOT NULL DEFAULT 3000`)

	return nil
}
