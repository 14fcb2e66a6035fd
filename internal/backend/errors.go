package backend

import (
	"errors"
	"fmt"
)

// UnavailableMessage is the user-facing text recorded on the shared state
// while the backend probe is failing.
const UnavailableMessage = "audio system unavailable"

var (
	// ErrBackendUnavailable is returned by every mutating command while the
	// backend probe is failing. Cleared only by a successful re-probe.
	ErrBackendUnavailable = errors.New(UnavailableMessage)

	// ErrDeviceUnavailable is returned when no output device is present.
	ErrDeviceUnavailable = errors.New("no audio device available")
)

// StreamError reports a recoverable failure in the active stream, such as a
// play rejection after a device change.
type StreamError struct {
	Op  string
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s failed: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// DecodeError reports a track the engine could not decode.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
