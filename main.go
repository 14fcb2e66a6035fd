package main

import (
	"fmt"
	"hash/fnv"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ndelorme/attune/internal/backend"
	"github.com/ndelorme/attune/internal/config"
	"github.com/ndelorme/attune/internal/crossfade"
	"github.com/ndelorme/attune/internal/errmsg"
	"github.com/ndelorme/attune/internal/mpris"
	"github.com/ndelorme/attune/internal/notify"
	"github.com/ndelorme/attune/internal/playback"
	"github.com/ndelorme/attune/internal/scrobble"
	"github.com/ndelorme/attune/internal/state"
	"github.com/ndelorme/attune/internal/tags"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(errmsg.Format(errmsg.OpInitialize, err))
	}

	stateMgr, err := state.Open()
	if err != nil {
		logger.Fatal(errmsg.Format(errmsg.OpStateLoad, err))
	}
	defer stateMgr.Close()

	settings, err := stateMgr.GetPlayback()
	if err != nil {
		logger.Warn(errmsg.Format(errmsg.OpStateLoad, err))
		settings = &state.PlaybackSettings{Volume: 1.0, CrossfadeDurationMs: 3000}
	}

	tracks, err := collectTracks(cfg, os.Args[1:])
	if err != nil {
		logger.Fatal(errmsg.Format(errmsg.OpInitialize, err))
	}
	if len(tracks) == 0 {
		logger.Fatal("no playable files found; pass paths or set music_folder in the config")
	}

	store := playback.NewStore()
	store.SetVolume(settings.Volume)
	store.SetMuted(settings.Muted)
	store.SetShuffle(settings.Shuffle)
	store.SetRepeatMode(playback.RepeatMode(settings.RepeatMode))

	engine := backend.NewEngine()
	bridge := backend.NewBridge(engine, store, logger)
	loader := playback.NewLoader(bridge, store, loaderConfig(cfg), logger)

	fadeCfg := fadeConfig(cfg, settings)
	fade := crossfade.New(fadeCfg)

	opts := playback.Options{Persister: stateMgr, Logger: logger}
	if cfg.HasLastfmConfig() {
		opts.Scrobbler = scrobble.New(
			cfg.Lastfm.APIKey, cfg.Lastfm.APISecret, cfg.Lastfm.SessionKey, logger)
	}

	svc := playback.New(store, bridge, loader, fade, opts)
	defer svc.Close()

	svc.SetTracks(tracks)

	mprisAdapter, err := mpris.New(svc)
	if err != nil {
		logger.Warn("mpris unavailable", "err", err)
	} else {
		defer mprisAdapter.Close()
	}

	notifier, _ := notify.New()
	go logEvents(svc.Subscribe(), notify.NewTrackNotifier(notifier), logger)

	startIndex, resumePos := resumePoint(tracks, settings)
	if err := svc.LoadTrack(startIndex); err != nil {
		logger.Fatal(errmsg.FormatWith(errmsg.OpTrackLoad, tracks[startIndex].Path, err))
	}
	if resumePos > 0 {
		if err := svc.Seek(resumePos); err != nil {
			logger.Warn(errmsg.Format(errmsg.OpPlaybackSeek, err))
		}
	}
	if err := svc.Play(); err != nil {
		logger.Error(errmsg.Format(errmsg.OpPlaybackStart, err))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := saveSettings(stateMgr, svc, fadeCfg); err != nil {
		logger.Warn(errmsg.Format(errmsg.OpStateSave, err))
	}
}

// resumePoint maps the persisted last track back to an index in the current
// list. A track that is no longer present falls back to the start.
func resumePoint(tracks []playback.Track, settings *state.PlaybackSettings) (int, float64) {
	if settings.LastTrackID == 0 {
		return 0, 0
	}
	for i, t := range tracks {
		if t.ID == settings.LastTrackID {
			return i, settings.LastPosition
		}
	}
	return 0, 0
}

func saveSettings(stateMgr *state.Manager, svc playback.Service, fadeCfg crossfade.Config) error {
	snap := svc.Snapshot()
	settings := state.PlaybackSettings{
		Volume:              snap.Volume,
		Muted:               snap.Muted,
		Shuffle:             snap.Shuffle,
		RepeatMode:          int(snap.RepeatMode),
		LastPosition:        snap.Position,
		CrossfadeEnabled:    fadeCfg.Enabled,
		CrossfadeDurationMs: int(fadeCfg.Duration / time.Millisecond),
	}
	if track := svc.CurrentTrack(); track != nil {
		settings.LastTrackID = track.ID
	}
	return stateMgr.SavePlayback(settings)
}

func loaderConfig(cfg *config.Config) playback.LoaderConfig {
	lc := cfg.GetLoaderConfig()
	return playback.LoaderConfig{
		MaxRetries:   lc.MaxRetries,
		InitialDelay: time.Duration(lc.InitialDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(lc.MaxDelayMs) * time.Millisecond,
	}
}

// fadeConfig merges the config file defaults with the persisted settings; the
// persisted values win once the user has toggled crossfade in a session.
func fadeConfig(cfg *config.Config, settings *state.PlaybackSettings) crossfade.Config {
	cc := cfg.GetCrossfadeConfig()
	merged := crossfade.Config{
		Enabled:  cc.Enabled,
		Duration: time.Duration(cc.DurationMs) * time.Millisecond,
	}
	if settings.CrossfadeDurationMs > 0 {
		merged.Enabled = settings.CrossfadeEnabled || cc.Enabled
		merged.Duration = time.Duration(settings.CrossfadeDurationMs) * time.Millisecond
	}
	return merged
}

// logEvents reports playback events on the console and as desktop
// notifications until the service closes.
func logEvents(sub *playback.Subscription, tn *notify.TrackNotifier, logger *log.Logger) {
	for {
		select {
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			if e.Current != nil {
				logger.Info("now playing",
					"track", e.Current.Name(), "artist", e.Current.Artist)
				tn.NowPlaying(e.Current.Name(), e.Current.Artist)
			}
		case e := <-sub.Error:
			logger.Error(e.Err.Error(), "op", e.Operation, "path", e.Path)
		case <-sub.StateChanged:
		case <-sub.PositionChanged:
		case <-sub.VolumeChanged:
		}
	}
}

var playableExts = map[string]bool{
	".mp3":  true,
	".flac": true,
	".wav":  true,
	".ogg":  true,
}

// collectTracks builds the playable track list from the command line
// arguments, falling back to the configured music folder when none are given.
func collectTracks(cfg *config.Config, args []string) ([]playback.Track, error) {
	roots := args
	if len(roots) == 0 {
		if cfg.MusicFolder == "" {
			return nil, nil
		}
		roots = []string{cfg.MusicFolder}
	}

	var tracks []playback.Track
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if playableExts[strings.ToLower(filepath.Ext(root))] {
				tracks = append(tracks, trackFromPath(root))
			}
			continue
		}
		err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !playableExts[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			tracks = append(tracks, trackFromPath(path))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}
	return tracks, nil
}

// trackFromPath reads the file tags when present; a file with no readable
// tags still plays under its file name.
func trackFromPath(path string) playback.Track {
	t := playback.Track{
		ID:          trackID(path),
		Path:        path,
		DisplayName: tags.DisplayName(path),
	}
	meta, err := tags.Read(path)
	if err != nil {
		return t
	}
	t.Title = meta.Title
	t.Artist = meta.Artist
	t.Album = meta.Album
	return t
}

// trackID derives a stable identifier from the file path so play counts and
// resume positions survive restarts without a library database.
func trackID(path string) int64 {
	h := fnv.New64a()
	h.Write([]byte(path))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}
