package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/ndelorme/attune/internal/backend"
)

func newTestLoader(cfg LoaderConfig) (*Loader, *backend.Mock, *Store) {
	mock := backend.NewMock()
	store := NewStore()
	bridge := backend.NewBridge(mock, store, nil)
	l := NewLoader(bridge, store, cfg, nil)
	l.sleep = func(time.Duration) {}
	return l, mock, store
}

func TestLoader_SuccessFirstAttempt(t *testing.T) {
	l, mock, store := newTestLoader(LoaderConfig{})
	mock.SetDuration(180)

	res, err := l.Load(Track{Path: "/music/a.mp3"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Stale {
		t.Error("result marked stale")
	}
	if res.Duration != 180 {
		t.Errorf("Duration = %v, want 180", res.Duration)
	}
	if calls := mock.LoadCalls(); len(calls) != 1 || calls[0] != "/music/a.mp3" {
		t.Errorf("LoadCalls = %v, want one call", calls)
	}
	if store.Duration() != 180 {
		t.Errorf("store duration = %v, want 180", store.Duration())
	}
	if store.Position() != 0 {
		t.Errorf("store position = %v, want 0", store.Position())
	}
}

func TestLoader_DurationFallsBackToTrack(t *testing.T) {
	l, mock, store := newTestLoader(LoaderConfig{})
	mock.SetDuration(0)

	res, err := l.Load(Track{Path: "/music/a.mp3", Duration: 240})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Duration != 240 {
		t.Errorf("Duration = %v, want fallback 240", res.Duration)
	}
	if store.Duration() != 240 {
		t.Errorf("store duration = %v, want 240", store.Duration())
	}
}

func TestLoader_RetriesThenSucceeds(t *testing.T) {
	l, mock, _ := newTestLoader(LoaderConfig{MaxRetries: 3})

	var delays []time.Duration
	l.sleep = func(d time.Duration) { delays = append(delays, d) }

	mock.SetLoadError(errors.New("transient decode error"), 2)

	_, err := l.Load(Track{Path: "/music/a.mp3"})
	if err != nil {
		t.Fatalf("Load after retries: %v", err)
	}
	if calls := mock.LoadCalls(); len(calls) != 3 {
		t.Errorf("got %d load calls, want 3 (2 failures + success)", len(calls))
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestLoader_ExhaustionIsHardFailure(t *testing.T) {
	l, mock, store := newTestLoader(LoaderConfig{MaxRetries: 3})

	var delays []time.Duration
	l.sleep = func(d time.Duration) { delays = append(delays, d) }

	loadErr := errors.New("file unreadable")
	mock.SetLoadError(loadErr, 0)

	_, err := l.Load(Track{Path: "/music/broken.mp3"})
	if err == nil {
		t.Fatal("Load should fail after exhausting retries")
	}
	if !errors.Is(err, loadErr) {
		t.Errorf("error %v does not wrap the backend error", err)
	}
	if calls := mock.LoadCalls(); len(calls) != 4 {
		t.Errorf("got %d load calls, want 4 (initial + 3 retries)", len(calls))
	}
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
	if store.Duration() != 0 {
		t.Errorf("store duration = %v, want untouched 0", store.Duration())
	}
}

func TestLoader_DelayCappedAtMax(t *testing.T) {
	l, _, _ := newTestLoader(LoaderConfig{
		MaxRetries:   6,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     1200 * time.Millisecond,
	})

	want := []time.Duration{
		500 * time.Millisecond,
		1000 * time.Millisecond,
		1200 * time.Millisecond,
		1200 * time.Millisecond,
	}
	for i, w := range want {
		if got := l.retryDelay(i); got != w {
			t.Errorf("retryDelay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestLoader_BackendUnavailableShortCircuits(t *testing.T) {
	l, mock, store := newTestLoader(LoaderConfig{})
	store.SetBackendError(backend.UnavailableMessage)

	_, err := l.Load(Track{Path: "/music/a.mp3"})
	if !errors.Is(err, backend.ErrBackendUnavailable) {
		t.Errorf("err = %v, want ErrBackendUnavailable", err)
	}
	if calls := mock.LoadCalls(); len(calls) != 0 {
		t.Errorf("load calls = %v, want none while unavailable", calls)
	}
}

func TestLoader_SupersededLoadIsStale(t *testing.T) {
	l, mock, store := newTestLoader(LoaderConfig{MaxRetries: 3})
	mock.SetDuration(100)

	// First load fails once; during its backoff sleep a second load arrives
	// and wins the generation race.
	mock.SetLoadError(errors.New("transient"), 1)

	var second LoadResult
	var secondErr error
	l.sleep = func(time.Duration) {
		l.sleep = func(time.Duration) {}
		second, secondErr = l.Load(Track{Path: "/music/b.mp3", Duration: 90})
	}

	first, err := l.Load(Track{Path: "/music/a.mp3"})
	if err != nil {
		t.Fatalf("superseded load should not error, got %v", err)
	}
	if !first.Stale {
		t.Error("superseded load not marked stale")
	}
	if secondErr != nil {
		t.Fatalf("second load: %v", secondErr)
	}
	if second.Stale {
		t.Error("winning load marked stale")
	}
	if first.Generation >= second.Generation {
		t.Errorf("generations not ordered: first=%d second=%d",
			first.Generation, second.Generation)
	}
	// The store reflects the winner only.
	if store.Duration() != 100 {
		t.Errorf("store duration = %v, want the winner's 100", store.Duration())
	}
}
