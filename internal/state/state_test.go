package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := OpenPath(filepath.Join(t.TempDir(), "attune.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestGetPlayback_DefaultsWhenEmpty(t *testing.T) {
	m := openTestManager(t)

	s, err := m.GetPlayback()
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Volume)
	assert.Equal(t, 3000, s.CrossfadeDurationMs)
	assert.Zero(t, s.LastTrackID)
	assert.False(t, s.Muted)
	assert.False(t, s.Shuffle)
}

func TestSavePlayback_RoundTrip(t *testing.T) {
	m := openTestManager(t)

	saved := PlaybackSettings{
		Volume:              0.65,
		Muted:               true,
		Shuffle:             true,
		RepeatMode:          2,
		LastTrackID:         42,
		LastPosition:        123.5,
		CrossfadeEnabled:    true,
		CrossfadeDurationMs: 5000,
	}
	require.NoError(t, m.SavePlayback(saved))

	got, err := m.GetPlayback()
	require.NoError(t, err)
	assert.Equal(t, saved, *got)
}

func TestSavePlayback_Upserts(t *testing.T) {
	m := openTestManager(t)

	require.NoError(t, m.SavePlayback(PlaybackSettings{Volume: 0.5}))
	require.NoError(t, m.SavePlayback(PlaybackSettings{Volume: 0.9, Shuffle: true}))

	got, err := m.GetPlayback()
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.Volume)
	assert.True(t, got.Shuffle)
}

func TestIncrementPlayCount(t *testing.T) {
	m := openTestManager(t)

	count, err := m.PlayCount(7)
	require.NoError(t, err)
	assert.Zero(t, count, "count before any play")

	for range 3 {
		require.NoError(t, m.IncrementPlayCount(7))
	}
	count, err = m.PlayCount(7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Counts are per track.
	require.NoError(t, m.IncrementPlayCount(8))
	count, err = m.PlayCount(8)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSavePosition_DebouncedWrite(t *testing.T) {
	m := openTestManager(t)

	m.SavePosition(42, 10)
	m.SavePosition(42, 15)
	m.SavePosition(42, 20)

	// One flush carrying the latest value once the debounce window closes.
	require.Eventually(t, func() bool {
		s, err := m.GetPlayback()
		require.NoError(t, err)
		return s.LastTrackID == 42 && s.LastPosition == 20
	}, 5*time.Second, 20*time.Millisecond, "debounced save never landed")
}

func TestClose_FlushesPendingPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attune.db")
	m, err := OpenPath(path)
	require.NoError(t, err)

	m.SavePosition(9, 33.5)
	require.NoError(t, m.Close())

	reopened, err := OpenPath(path)
	require.NoError(t, err)
	defer reopened.Close()

	s, err := reopened.GetPlayback()
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.LastTrackID)
	assert.Equal(t, 33.5, s.LastPosition)
}

func TestOpenPath_SchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attune.db")

	m, err := OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, m.SavePlayback(PlaybackSettings{Volume: 0.4}))
	require.NoError(t, m.Close())

	m2, err := OpenPath(path)
	require.NoError(t, err)
	defer m2.Close()

	s, err := m2.GetPlayback()
	require.NoError(t, err)
	assert.Equal(t, 0.4, s.Volume)
}
