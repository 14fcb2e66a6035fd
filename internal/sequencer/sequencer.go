// Package sequencer decides which track index becomes current next.
//
// The decision functions are pure over the inputs they are given; the
// playback service applies them and performs the actual load/seek. Repeat
// modes mirror the playback package's enum by value, the same way repeat
// modes travel between the queue and service layers by int conversion.
package sequencer

import "math/rand"

// Mode is the repeat behavior, matching playback.RepeatMode by value.
type Mode int

const (
	ModeOff Mode = iota
	ModeOne
	ModeAll
)

// PreviousThreshold is the position (seconds) above which "previous"
// restarts the current track instead of moving back.
const PreviousThreshold = 3.0

// NextDecision is the outcome of Next.
type NextDecision struct {
	// Advance is false at the end of the list with repeat off: ending
	// playback is the ended-handler's call, not the sequencer's.
	Advance bool
	Index   int
}

// Next picks the index following current. Shuffle draws uniformly over the
// whole list and may land on the current index again; there is deliberately
// no adjacency exclusion. ModeOne is not handled here: replaying the same
// track is decided by the ended handler.
func Next(current, length int, shuffle bool, repeat Mode, rng *rand.Rand) NextDecision {
	if length == 0 {
		return NextDecision{}
	}
	if shuffle {
		return NextDecision{Advance: true, Index: rng.Intn(length)}
	}
	if current >= length-1 {
		if repeat == ModeAll {
			return NextDecision{Advance: true, Index: 0}
		}
		return NextDecision{}
	}
	return NextDecision{Advance: true, Index: current + 1}
}

// PrevDecision is the outcome of Previous.
type PrevDecision struct {
	// Restart seeks the current track to 0 without changing the index.
	Restart bool
	Advance bool
	Index   int
}

// Previous restarts the current track when more than PreviousThreshold
// seconds have played, otherwise steps back one index. At index 0 with a
// fresh position it is a no-op.
func Previous(current int, position float64) PrevDecision {
	if position > PreviousThreshold {
		return PrevDecision{Restart: true}
	}
	if current > 0 {
		return PrevDecision{Advance: true, Index: current - 1}
	}
	return PrevDecision{}
}

// SeekTarget converts a percentage of the track into absolute seconds.
func SeekTarget(percent, duration float64) float64 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return percent / 100 * duration
}
