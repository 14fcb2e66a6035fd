package playback

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ndelorme/attune/internal/backend"
	"github.com/ndelorme/attune/internal/crossfade"
	"github.com/ndelorme/attune/internal/sequencer"
)

// checkpointInterval is the position granularity (seconds) at which the
// current position is persisted.
const checkpointInterval = 5.0

// Verify serviceImpl implements Service at compile time.
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	mu sync.Mutex

	store  *Store
	bridge *backend.Bridge
	loader *Loader
	fade   *crossfade.Engine
	logger *log.Logger

	persist   Persister // may be nil
	scrobbler Scrobbler // may be nil

	tracks []Track
	rng    *rand.Rand

	seekThrottle *sequencer.SeekThrottle

	// lastIntent is the intent value at the previous reconciliation; no
	// transport call is made when the intent has not changed since.
	lastIntent bool

	volumeBeforeMute float64
	fadeInCancel     func()

	loopEnabled  bool
	loopA, loopB float64

	lastCheckpoint int // position bucket of the last persisted checkpoint

	subs   []*Subscription
	subsMu sync.RWMutex

	closed bool
}

// Options carries the optional collaborators of the service.
type Options struct {
	Persister Persister
	Scrobbler Scrobbler
	Logger    *log.Logger
	Rand      *rand.Rand
}

// New wires the service to the bridge and starts the bridge event loop.
func New(store *Store, br *backend.Bridge, loader *Loader, fade *crossfade.Engine, opts Options) Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	s := &serviceImpl{
		store:     store,
		bridge:    br,
		loader:    loader,
		fade:      fade,
		logger:    logger.With("component", "playback"),
		persist:   opts.Persister,
		scrobbler: opts.Scrobbler,
		rng:       rng,
	}
	s.seekThrottle = sequencer.NewSeekThrottle(sequencer.DefaultSeekWindow, func(seconds float64) {
		if err := s.bridge.Seek(seconds); err != nil {
			s.emitError("seek", "", err)
		}
	})

	br.OnTick(s.handleTick)
	br.OnEnded(s.handleEnded)
	br.Start()
	return s
}

// --- State queries ---

func (s *serviceImpl) IsPlaying() bool { return s.store.PlayingIntent() }

func (s *serviceImpl) IsLoading() bool { return s.store.IsLoading() }

func (s *serviceImpl) Progress() float64 { return s.store.Position() }

func (s *serviceImpl) Duration() float64 { return s.store.Duration() }

func (s *serviceImpl) Volume() float64 { return s.store.Volume() }

func (s *serviceImpl) IsMuted() bool { return s.store.Muted() }

func (s *serviceImpl) BackendError() string { return s.store.BackendError() }

func (s *serviceImpl) Snapshot() State { return s.store.Snapshot() }

func (s *serviceImpl) CurrentIndex() int { return s.store.CurrentIndex() }

func (s *serviceImpl) CurrentTrack() *Track {
	idx := s.store.CurrentIndex()
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.tracks) {
		return nil
	}
	t := s.tracks[idx]
	return &t
}

// --- Track list ---

func (s *serviceImpl) SetTracks(tracks []Track) {
	s.mu.Lock()
	s.tracks = append([]Track(nil), tracks...)
	s.mu.Unlock()
	s.store.SetQueueLength(len(tracks))
}

func (s *serviceImpl) Tracks() []Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Track(nil), s.tracks...)
}

func (s *serviceImpl) trackAt(index int) (Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.tracks) {
		return Track{}, false
	}
	return s.tracks[index], true
}

// --- Transport ---

// LoadTrack loads the track at index into the backend. A load superseded by
// a newer one while retrying is discarded silently; only the most recent
// load's outcome is observable.
func (s *serviceImpl) LoadTrack(index int) error {
	s.cancelFades()
	return s.loadTrack(index)
}

// loadTrack is LoadTrack without the fade cancellation, so the crossfade
// midpoint can swap tracks while its own fade-out session keeps running.
func (s *serviceImpl) loadTrack(index int) error {
	track, ok := s.trackAt(index)
	if !ok {
		return fmt.Errorf("load track: index %d out of range", index)
	}

	s.store.SetLoadingIndex(index)
	s.emitState()

	res, err := s.loader.Load(track)
	if res.Stale {
		return nil
	}
	s.store.SetLoadingIndex(-1)
	if err != nil {
		s.emitState()
		s.emitError("load track", track.Path, err)
		return err
	}

	prevIndex := s.store.CurrentIndex()
	prevTrack := s.currentTrackCopy(prevIndex)
	s.store.SetCurrentIndex(index)
	s.lastCheckpointReset()
	s.emitState()
	s.emitTrack(TrackChange{
		Previous:      prevTrack,
		Current:       &track,
		PreviousIndex: prevIndex,
		Index:         index,
	})
	return nil
}

func (s *serviceImpl) currentTrackCopy(index int) *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.tracks) {
		return nil
	}
	t := s.tracks[index]
	return &t
}

// Play flips the intent to playing and reconciles it with the backend
// transport. A rejected play reverts the intent so the UI never shows a
// playing state the backend refused.
func (s *serviceImpl) Play() error {
	s.store.SetPlayingIntent(true)
	if err := s.reconcile(); err != nil {
		return err
	}
	return nil
}

// Pause flips the intent to paused. A pause failure is surfaced but the
// intent stays paused: silently resuming would be worse than a stuck stream.
func (s *serviceImpl) Pause() error {
	s.store.SetPlayingIntent(false)
	return s.reconcile()
}

// reconcile compares the current intent with the one seen at the previous
// reconciliation and issues at most one transport call. No call is made when
// the intent did not change.
func (s *serviceImpl) reconcile() error {
	intent := s.store.PlayingIntent()

	s.mu.Lock()
	last := s.lastIntent
	s.lastIntent = intent
	s.mu.Unlock()

	if intent == last {
		return nil
	}

	if intent {
		if err := s.bridge.Play(); err != nil {
			s.store.SetPlayingIntent(false)
			s.mu.Lock()
			s.lastIntent = false
			s.mu.Unlock()
			s.emitState()
			s.emitError("play", "", err)
			return err
		}
		s.recordPlayStarted()
		s.emitState()
		return nil
	}

	if err := s.bridge.Pause(); err != nil {
		s.emitState()
		s.emitError("pause", "", err)
		return err
	}
	s.emitState()
	return nil
}

func (s *serviceImpl) Stop() error {
	s.cancelFades()
	s.seekThrottle.Stop()
	s.store.SetPlayingIntent(false)
	s.mu.Lock()
	s.lastIntent = false
	s.mu.Unlock()
	err := s.bridge.Stop()
	s.store.SetPosition(0)
	s.emitState()
	return err
}

// Seek moves to an absolute position. The displayed position updates
// immediately; the backend call goes through the bridge directly (only
// percent-based HandleSeek is throttled).
func (s *serviceImpl) Seek(seconds float64) error {
	s.store.SetPosition(seconds)
	s.emitPosition(s.store.Position())
	if err := s.bridge.Seek(s.store.Position()); err != nil {
		s.emitError("seek", "", err)
		return err
	}
	return nil
}

// Skip moves by a relative number of seconds.
func (s *serviceImpl) Skip(delta float64) error {
	return s.Seek(s.store.Position() + delta)
}

func (s *serviceImpl) ChangeVolume(v float64) error {
	s.store.SetVolume(v)
	// Mute is volume=0: any explicit volume write unmutes.
	s.store.SetMuted(false)
	stored := s.store.Volume()
	s.emitVolume()
	if err := s.bridge.SetVolume(stored); err != nil {
		s.emitError("set volume", "", err)
		return err
	}
	return nil
}

// ToggleMute remembers the current volume and drives the backend to 0, or
// restores the remembered value. There is no independent mute rail in the
// backend; mute is volume=0.
func (s *serviceImpl) ToggleMute() error {
	if s.store.Muted() {
		s.mu.Lock()
		restored := s.volumeBeforeMute
		s.mu.Unlock()
		s.store.SetMuted(false)
		s.store.SetVolume(restored)
		s.emitVolume()
		return s.bridge.SetVolume(restored)
	}
	current := s.store.Volume()
	s.mu.Lock()
	s.volumeBeforeMute = current
	s.mu.Unlock()
	s.store.SetMuted(true)
	s.store.SetVolume(0)
	s.emitVolume()
	return s.bridge.SetVolume(0)
}

// --- Sequencer actions ---

func (s *serviceImpl) HandleNextTrack() error {
	snap := s.store.Snapshot()
	decision := sequencer.Next(
		snap.CurrentIndex, s.store.QueueLength(),
		snap.Shuffle, sequencer.Mode(snap.RepeatMode), s.rng,
	)
	if !decision.Advance {
		return nil
	}
	return s.advanceTo(decision.Index)
}

func (s *serviceImpl) HandlePrevTrack() error {
	snap := s.store.Snapshot()
	decision := sequencer.Previous(snap.CurrentIndex, snap.Position)
	switch {
	case decision.Restart:
		return s.Seek(0)
	case decision.Advance:
		return s.advanceTo(decision.Index)
	default:
		return nil
	}
}

// advanceTo loads the track at index and resumes the transport if the
// intent is playing. Any active fade is cancelled before the switch so the
// stale session cannot keep writing volume over the new track.
func (s *serviceImpl) advanceTo(index int) error {
	s.cancelFades()
	return s.advance(index)
}

// advance is advanceTo without the fade cancellation.
func (s *serviceImpl) advance(index int) error {
	wasPlaying := s.store.PlayingIntent()
	if err := s.loadTrack(index); err != nil {
		return err
	}
	if wasPlaying {
		s.store.SetPlayingIntent(true)
		if err := s.bridge.Play(); err != nil {
			s.store.SetPlayingIntent(false)
			s.mu.Lock()
			s.lastIntent = false
			s.mu.Unlock()
			s.emitError("play", "", err)
			return err
		}
		s.mu.Lock()
		s.lastIntent = true
		s.mu.Unlock()
		s.recordPlayStarted()
	}
	s.emitState()
	return nil
}

// HandleSeek seeks to a percentage of the track. The stored position updates
// immediately; backend calls are throttled so scrubbing coalesces to one
// call per window.
func (s *serviceImpl) HandleSeek(percent float64) {
	target := sequencer.SeekTarget(percent, s.store.Duration())
	s.store.SetPosition(target)
	s.emitPosition(s.store.Position())
	s.seekThrottle.Request(target)
}

func (s *serviceImpl) HandleVolumeChange(v float64) error { return s.ChangeVolume(v) }

func (s *serviceImpl) HandleToggleMute() error { return s.ToggleMute() }

// --- Mode control ---

func (s *serviceImpl) Shuffle() bool { return s.store.Shuffle() }

func (s *serviceImpl) SetShuffle(enabled bool) { s.store.SetShuffle(enabled) }

func (s *serviceImpl) ToggleShuffle() bool {
	next := !s.store.Shuffle()
	s.store.SetShuffle(next)
	return next
}

func (s *serviceImpl) RepeatMode() RepeatMode { return s.store.RepeatMode() }

func (s *serviceImpl) SetRepeatMode(mode RepeatMode) { s.store.SetRepeatMode(mode) }

func (s *serviceImpl) CycleRepeatMode() RepeatMode {
	var next RepeatMode
	switch s.store.RepeatMode() {
	case RepeatOff:
		next = RepeatAll
	case RepeatAll:
		next = RepeatOne
	default:
		next = RepeatOff
	}
	s.store.SetRepeatMode(next)
	return next
}

// --- A-B loop ---

// SetLoopPoints enables looping between two positions of the current track.
// Invalid pairs are ignored.
func (s *serviceImpl) SetLoopPoints(pointA, pointB float64) {
	if pointA < 0 || pointB <= pointA {
		return
	}
	s.mu.Lock()
	s.loopEnabled = true
	s.loopA = pointA
	s.loopB = pointB
	s.mu.Unlock()
}

func (s *serviceImpl) ClearLoop() {
	s.mu.Lock()
	s.loopEnabled = false
	s.mu.Unlock()
}

// --- Engine events ---

// handleTick runs on the bridge event loop after the bridge has written the
// clamped position and duration.
func (s *serviceImpl) handleTick(t backend.Tick) {
	s.checkLoop()
	s.checkpoint()
	s.maybeCrossfade()
}

// checkLoop seeks back to point A once the position reaches point B. It
// never fires strictly inside the loop or while disabled.
func (s *serviceImpl) checkLoop() {
	s.mu.Lock()
	enabled, a, b := s.loopEnabled, s.loopA, s.loopB
	s.mu.Unlock()
	if !enabled {
		return
	}
	if s.store.Position() >= b {
		if err := s.Seek(a); err != nil {
			s.logger.Warn("loop seek failed", "err", err)
		}
	}
}

// checkpoint persists the position every time it crosses a 5 second
// boundary. Best-effort: a skipped checkpoint never affects playback.
func (s *serviceImpl) checkpoint() {
	if s.persist == nil {
		return
	}
	track := s.CurrentTrack()
	if track == nil {
		return
	}
	pos := s.store.Position()
	bucket := int(math.Floor(pos / checkpointInterval))
	s.mu.Lock()
	crossed := bucket != s.lastCheckpoint
	if crossed {
		s.lastCheckpoint = bucket
	}
	s.mu.Unlock()
	if crossed {
		s.persist.SavePosition(track.ID, pos)
	}
}

func (s *serviceImpl) lastCheckpointReset() {
	s.mu.Lock()
	s.lastCheckpoint = 0
	s.mu.Unlock()
}

// maybeCrossfade starts a fade-out once the track enters the crossfade
// window. The midpoint swaps to the sequencer's next track; completion
// starts the fade-in toward the stored volume.
func (s *serviceImpl) maybeCrossfade() {
	if !s.store.PlayingIntent() || s.store.IsLoading() {
		return
	}
	if !s.fade.ShouldCrossfade(s.store.Position(), s.store.Duration()) {
		return
	}
	snap := s.store.Snapshot()
	decision := sequencer.Next(
		snap.CurrentIndex, s.store.QueueLength(),
		snap.Shuffle, sequencer.Mode(snap.RepeatMode), s.rng,
	)
	if !decision.Advance {
		return
	}

	currentVolume := s.store.Volume()
	outgoing := snap.CurrentIndex
	err := s.fade.StartCrossfade(crossfade.FadeOut{
		SetVolume:     s.setBackendVolume,
		CurrentVolume: currentVolume,
		OnMidpoint: func() {
			s.scrobbleFinished(outgoing)
			if err := s.advance(decision.Index); err != nil {
				s.logger.Warn("crossfade advance failed", "err", err)
			}
		},
		OnComplete: func() {
			s.startFadeIn(currentVolume)
		},
	})
	if err != nil {
		s.logger.Debug("crossfade not started", "err", err)
	}
}

func (s *serviceImpl) startFadeIn(target float64) {
	cancel := s.fade.StartFadeIn(crossfade.FadeIn{
		SetVolume:    s.setBackendVolume,
		TargetVolume: target,
		OnComplete: func() {
			s.mu.Lock()
			s.fadeInCancel = nil
			s.mu.Unlock()
		},
	})
	s.mu.Lock()
	s.fadeInCancel = cancel
	s.mu.Unlock()
}

// setBackendVolume writes a transient fade volume to the backend without
// touching the stored user volume.
func (s *serviceImpl) setBackendVolume(v float64) {
	if err := s.bridge.SetVolume(v); err != nil {
		s.logger.Debug("fade volume write failed", "err", err)
	}
}

// cancelFades stops both fade timers before a track switch so no stale
// session keeps writing volume.
func (s *serviceImpl) cancelFades() {
	s.mu.Lock()
	cancel := s.fadeInCancel
	s.fadeInCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.fade.Cancel(s.setBackendVolume)
}

// handleEnded runs on the bridge event loop. The bridge has already cleared
// the intent and reset the position; from here the sequencer decides whether
// playback continues.
func (s *serviceImpl) handleEnded() {
	s.mu.Lock()
	s.lastIntent = false
	s.mu.Unlock()
	s.emitState()

	// A crossfade has already swapped to the next track when it was active.
	if s.fade.Active() {
		return
	}

	snap := s.store.Snapshot()
	if snap.CurrentIndex < 0 {
		return
	}
	s.scrobbleFinished(snap.CurrentIndex)

	if snap.RepeatMode == RepeatOne {
		s.replay(snap.CurrentIndex)
		return
	}

	decision := sequencer.Next(
		snap.CurrentIndex, s.store.QueueLength(),
		snap.Shuffle, sequencer.Mode(snap.RepeatMode), s.rng,
	)
	if !decision.Advance {
		// End of list, repeat off: playback ends here.
		s.logger.Info("queue finished")
		return
	}
	s.replay(decision.Index)
}

func (s *serviceImpl) replay(index int) {
	if err := s.LoadTrack(index); err != nil {
		s.logger.Error("auto-advance load failed", "index", index, "err", err)
		return
	}
	if err := s.Play(); err != nil {
		s.logger.Error("auto-advance play failed", "index", index, "err", err)
	}
}

// scrobbleFinished submits a completed play for the track at index.
func (s *serviceImpl) scrobbleFinished(index int) {
	if s.scrobbler == nil {
		return
	}
	if track, ok := s.trackAt(index); ok {
		go s.scrobbler.Scrobble(track)
	}
}

// recordPlayStarted fires the play side effects once per transition into
// the playing state: play-count increment and scrobble, both fire-and-forget.
func (s *serviceImpl) recordPlayStarted() {
	track := s.CurrentTrack()
	if track == nil {
		return
	}
	t := *track
	if s.persist != nil {
		go func() {
			if err := s.persist.IncrementPlayCount(t.ID); err != nil {
				s.logger.Warn("play count not recorded", "track", t.Name(), "err", err)
			}
		}()
	}
	if s.scrobbler != nil {
		go s.scrobbler.NowPlaying(t)
	}
}

// --- Events ---

func (s *serviceImpl) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}

func (s *serviceImpl) emitState() {
	e := StateChange{Playing: s.store.PlayingIntent(), Loading: s.store.IsLoading()}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(e)
	}
}

func (s *serviceImpl) emitTrack(e TrackChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *serviceImpl) emitPosition(pos float64) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendPosition(pos)
	}
}

func (s *serviceImpl) emitVolume() {
	e := VolumeChange{Volume: s.store.Volume(), Muted: s.store.Muted()}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendVolume(e)
	}
}

func (s *serviceImpl) emitError(op, path string, err error) {
	s.logger.Warn("operation failed", "op", op, "err", err)
	e := ErrorEvent{Operation: op, Path: path, Err: err}
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
}

// --- Lifecycle ---

func (s *serviceImpl) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancelFades()
	s.seekThrottle.Stop()
	s.bridge.Close()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()
	return nil
}
