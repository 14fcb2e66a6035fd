// Package backend defines the command surface of the native audio engine
// and the bridge that owns the relationship with it.
package backend

// Tick is the periodic progress report emitted by the native engine while a
// track is loaded. Position and Duration are in seconds.
type Tick struct {
	Position   float64
	Duration   float64
	IsPlaying  bool
	IsFinished bool
}

// Backend is the command surface of the native audio engine. Decoding,
// mixing and output all happen behind this interface; the rest of the
// system only ever talks to it through the Bridge.
type Backend interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error
	Seek(seconds float64) error
	SetVolume(v float64) error

	// Duration reports the loaded track's duration in seconds,
	// 0 when unknown.
	Duration() float64
	IsPlaying() (bool, error)

	IsDeviceAvailable() bool
	HasDeviceChanged() bool
	Recover() (bool, error)

	// Ticks delivers periodic progress reports.
	Ticks() <-chan Tick
	// Ended delivers one signal per track that plays to completion.
	Ended() <-chan struct{}

	Close() error
}
