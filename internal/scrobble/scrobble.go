// Package scrobble submits plays to Last.fm as a fire-and-forget side
// effect of playback. Failures are logged and never reach the caller.
package scrobble

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shkh/lastfm-go/lastfm"

	"github.com/ndelorme/attune/internal/playback"
)

// ErrNotAuthenticated is returned when no session key is configured.
var ErrNotAuthenticated = errors.New("not authenticated")

// Client wraps the Last.fm API for scrobbling operations.
type Client struct {
	api        *lastfm.Api
	sessionKey string
	logger     *log.Logger
}

// New creates a client with the given API credentials. The session key is
// obtained once through the Last.fm desktop auth flow and carried in config.
func New(apiKey, apiSecret, sessionKey string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	api := lastfm.New(apiKey, apiSecret)
	if sessionKey != "" {
		api.SetSession(sessionKey)
	}
	return &Client{
		api:        api,
		sessionKey: sessionKey,
		logger:     logger.With("component", "scrobble"),
	}
}

// IsAuthenticated returns true if a session key is set.
func (c *Client) IsAuthenticated() bool {
	return c.sessionKey != ""
}

// NowPlaying sends a "now playing" notification. Fire-and-forget: errors
// are logged, never returned.
func (c *Client) NowPlaying(track playback.Track) {
	if err := c.updateNowPlaying(track); err != nil {
		c.logger.Warn("now playing not sent", "track", track.Name(), "err", err)
	}
}

// Scrobble submits a completed play. Fire-and-forget.
func (c *Client) Scrobble(track playback.Track) {
	if err := c.scrobble(track); err != nil {
		c.logger.Warn("scrobble not sent", "track", track.Name(), "err", err)
	}
}

func (c *Client) updateNowPlaying(track playback.Track) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	_, err := c.api.Track.UpdateNowPlaying(c.params(track, false))
	if err != nil {
		return fmt.Errorf("update now playing: %w", err)
	}
	return nil
}

func (c *Client) scrobble(track playback.Track) error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	_, err := c.api.Track.Scrobble(c.params(track, true))
	if err != nil {
		return fmt.Errorf("scrobble: %w", err)
	}
	return nil
}

func (c *Client) params(track playback.Track, stamped bool) lastfm.P {
	params := lastfm.P{
		"artist": track.Artist,
		"track":  track.Name(),
	}
	if track.Album != "" {
		params["album"] = track.Album
	}
	if track.Duration > 0 {
		params["duration"] = int(track.Duration)
	}
	if stamped {
		params["timestamp"] = time.Now().Unix()
	}
	return params
}

// Verify Client implements the playback contract at compile time.
var _ playback.Scrobbler = (*Client)(nil)
