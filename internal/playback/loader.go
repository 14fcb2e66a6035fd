package playback

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ndelorme/attune/internal/backend"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 500 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
)

// LoaderConfig bounds the load retry loop.
type LoaderConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultLoaderConfig returns the stock retry settings.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
	}
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = defaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	return c
}

// LoadResult reports a completed load. Generation identifies the load call;
// Stale is set when a newer load started while this one was in flight, in
// which case nothing was written to the store and the caller must discard
// the result.
type LoadResult struct {
	Generation uint64
	Duration   float64
	Stale      bool
}

// Loader loads tracks into the backend with bounded retries. Each retry
// reissues the identical load; the delay doubles per attempt and is capped.
// The retry loop is not cancellable mid-attempt: a superseded load runs to
// completion and is discarded by its stale generation.
type Loader struct {
	bridge *backend.Bridge
	store  *Store
	cfg    LoaderConfig
	logger *log.Logger

	// sleep is swappable so tests can observe delays without waiting.
	sleep func(time.Duration)

	gen atomic.Uint64
}

// NewLoader creates a loader over the bridge.
func NewLoader(br *backend.Bridge, store *Store, cfg LoaderConfig, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		bridge: br,
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "loader"),
		sleep:  time.Sleep,
	}
}

// Generation returns the token of the most recent load call.
func (l *Loader) Generation() uint64 {
	return l.gen.Load()
}

// Load loads the track into the backend. On success the track duration is
// written to the store (falling back to the track's stated duration when the
// backend reports 0) and the position resets to 0. Retry exhaustion is a hard
// failure that must reach the caller.
func (l *Loader) Load(track Track) (LoadResult, error) {
	gen := l.gen.Add(1)

	if l.store.BackendError() != "" {
		return LoadResult{Generation: gen}, backend.ErrBackendUnavailable
	}

	var lastErr error
	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := l.retryDelay(attempt - 1)
			l.logger.Warn("retrying track load",
				"path", track.Path, "attempt", attempt, "delay", delay, "err", lastErr)
			l.sleep(delay)
		}
		lastErr = l.bridge.Load(track.Path)
		if l.gen.Load() != gen {
			// Superseded while loading or sleeping; the newer load owns the
			// store now.
			return LoadResult{Generation: gen, Stale: true}, nil
		}
		if lastErr == nil {
			duration := l.bridge.TrackDuration()
			if duration == 0 {
				duration = track.Duration
			}
			l.store.SetDuration(duration)
			l.store.SetPosition(0)
			return LoadResult{Generation: gen, Duration: duration}, nil
		}
	}
	return LoadResult{Generation: gen}, fmt.Errorf("failed to load track %s: %w", track.Path, lastErr)
}

// retryDelay computes min(maxDelay, initialDelay * 2^attempt).
func (l *Loader) retryDelay(attempt int) time.Duration {
	delay := l.cfg.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= l.cfg.MaxDelay {
			return l.cfg.MaxDelay
		}
	}
	return min(delay, l.cfg.MaxDelay)
}
