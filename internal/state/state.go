package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "attune"
	dbFileName   = "attune.db"
	saveDebounce = 500 * time.Millisecond
)

// Manager persists playback settings, the last position and play counts.
type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *positionCheckpoint
}

type positionCheckpoint struct {
	trackID  int64
	position float64
}

// Open opens (or creates) the state database in the XDG data directory.
func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(dbPath)
}

// OpenPath opens a state database at an explicit path. Used by tests.
func OpenPath(dbPath string) (*Manager, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// Close flushes any pending checkpoint and closes the database.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	if pending != nil {
		_ = savePosition(m.db, pending.trackID, pending.position)
	}

	return m.db.Close()
}

// DB exposes the underlying handle for collaborators that share the file.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// SavePosition records the playback position for a track, debounced so tick
// driven checkpoints do not hammer the disk. Best-effort by design.
func (m *Manager) SavePosition(trackID int64, position float64) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &positionCheckpoint{trackID: trackID, position: position}

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = savePosition(m.db, pending.trackID, pending.position)
		}
	})
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
