package backend

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

const tickInterval = 200 * time.Millisecond

// Engine is an in-process implementation of Backend on top of beep. It
// stands in for the out-of-process native engine when the shell runs
// standalone; the rest of the system cannot tell the difference.
type Engine struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	file     *os.File

	loaded  bool
	playing bool

	speakerReady bool
	initErr      error

	ticks chan Tick
	ended chan struct{}
	done  chan struct{}
}

// The speaker is process-global in beep, so its init state is shared by all
// Engine values and carries its own lock rather than riding any one engine's
// mutex. Lock order is always Engine.mu before speakerState.
var speakerState struct {
	sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

var speakerInit = speaker.Init

// NewEngine creates an engine. The speaker is initialized lazily on the
// first load so a missing audio device surfaces as a load/play failure, not
// a construction failure.
func NewEngine() *Engine {
	e := &Engine{
		ticks: make(chan Tick, 16),
		ended: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go e.tickLoop()
	return e
}

// Load decodes the file and stages it paused at position 0.
func (e *Engine) Load(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	ext := strings.ToLower(filepath.Ext(path))
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return &DecodeError{Path: path, Err: fmt.Errorf("unsupported format: %s", ext)}
	}
	if err != nil {
		f.Close()
		return &DecodeError{Path: path, Err: err}
	}

	speakerState.Lock()
	if !speakerState.initialized {
		if err := speakerInit(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			speakerState.Unlock()
			streamer.Close()
			f.Close()
			e.initErr = err
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		speakerState.initialized = true
		speakerState.sampleRate = format.SampleRate
	}
	outRate := speakerState.sampleRate
	speakerState.Unlock()
	e.speakerReady = true
	e.initErr = nil

	e.file = f
	e.streamer = streamer
	e.format = format

	// Resample if the track's sample rate differs from the speaker's
	var playStreamer beep.Streamer = streamer
	if format.SampleRate != outRate {
		playStreamer = beep.Resample(4, format.SampleRate, outRate, streamer)
	}
	e.ctrl = &beep.Ctrl{Streamer: playStreamer, Paused: true}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2, Volume: 0, Silent: false}

	e.loaded = true
	e.playing = false

	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		e.mu.Lock()
		e.playing = false
		e.mu.Unlock()
		select {
		case e.ended <- struct{}{}:
		default:
		}
	})))

	return nil
}

func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.ctrl == nil {
		return &StreamError{Op: "play", Err: fmt.Errorf("no track loaded")}
	}
	speaker.Lock()
	e.ctrl.Paused = false
	speaker.Unlock()
	e.playing = true
	return nil
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.ctrl == nil {
		return nil
	}
	speaker.Lock()
	e.ctrl.Paused = true
	speaker.Unlock()
	e.playing = false
	return nil
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	return nil
}

func (e *Engine) stopLocked() {
	if !e.loaded {
		return
	}
	speaker.Clear()
	if e.streamer != nil {
		e.streamer.Close()
		e.streamer = nil
	}
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.ctrl = nil
	e.volume = nil
	e.loaded = false
	e.playing = false
}

func (e *Engine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.streamer == nil {
		return nil
	}
	target := e.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	target = max(target, 0)
	if target >= e.streamer.Len() {
		target = e.streamer.Len() - 1
	}
	speaker.Lock()
	err := e.streamer.Seek(target)
	speaker.Unlock()
	if err != nil {
		return &StreamError{Op: "seek", Err: err}
	}
	return nil
}

// SetVolume maps a 0..1 level onto beep's log2 volume scale.
// 1.0 -> 0, 0.5 -> -1, 0.25 -> -2; 0 mutes outright.
func (e *Engine) SetVolume(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.volume == nil {
		return nil
	}
	speaker.Lock()
	if v <= 0 {
		e.volume.Silent = true
	} else {
		e.volume.Silent = false
		e.volume.Volume = levelToVolume(v)
	}
	speaker.Unlock()
	return nil
}

func levelToVolume(level float64) float64 {
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	return e.format.SampleRate.D(e.streamer.Len()).Seconds()
}

func (e *Engine) IsPlaying() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initErr != nil {
		return false, e.initErr
	}
	return e.playing, nil
}

func (e *Engine) IsDeviceAvailable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initErr == nil
}

// HasDeviceChanged always reports false: beep pins the device chosen at
// speaker init and has no change notification.
func (e *Engine) HasDeviceChanged() bool { return false }

// Recover retries speaker initialization after a failed one.
func (e *Engine) Recover() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initErr == nil {
		return true, nil
	}
	speakerState.Lock()
	sr := speakerState.sampleRate
	if sr == 0 {
		sr = 44100
	}
	if err := speakerInit(sr, sr.N(time.Second/10)); err != nil {
		speakerState.Unlock()
		return false, err
	}
	speakerState.initialized = true
	speakerState.sampleRate = sr
	speakerState.Unlock()
	e.initErr = nil
	return true, nil
}

func (e *Engine) Ticks() <-chan Tick { return e.ticks }

func (e *Engine) Ended() <-chan struct{} { return e.ended }

func (e *Engine) tickLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			t, ok := e.snapshotTick()
			if !ok {
				continue
			}
			select {
			case e.ticks <- t:
			default:
			}
		}
	}
}

func (e *Engine) snapshotTick() (Tick, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded || e.streamer == nil {
		return Tick{}, false
	}
	speaker.Lock()
	pos := e.format.SampleRate.D(e.streamer.Position()).Seconds()
	length := e.format.SampleRate.D(e.streamer.Len()).Seconds()
	speaker.Unlock()
	return Tick{
		Position:   pos,
		Duration:   length,
		IsPlaying:  e.playing,
		IsFinished: pos >= length,
	}, true
}

func (e *Engine) Close() error {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()
	close(e.done)
	return nil
}

// Verify Engine implements Backend at compile time.
var _ Backend = (*Engine)(nil)
