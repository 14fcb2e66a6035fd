package sequencer

import (
	"math/rand"
	"testing"
)

func TestNext_Sequential(t *testing.T) {
	tests := []struct {
		name    string
		current int
		length  int
		repeat  Mode
		want    NextDecision
	}{
		{"middle of list", 1, 5, ModeOff, NextDecision{Advance: true, Index: 2}},
		{"first of list", 0, 5, ModeOff, NextDecision{Advance: true, Index: 1}},
		{"end repeat off", 4, 5, ModeOff, NextDecision{}},
		{"end repeat all wraps", 4, 5, ModeAll, NextDecision{Advance: true, Index: 0}},
		{"end repeat one", 4, 5, ModeOne, NextDecision{}},
		{"single track repeat off", 0, 1, ModeOff, NextDecision{}},
		{"single track repeat all", 0, 1, ModeAll, NextDecision{Advance: true, Index: 0}},
		{"empty list", -1, 0, ModeAll, NextDecision{}},
	}
	rng := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Next(tt.current, tt.length, false, tt.repeat, rng)
			if got != tt.want {
				t.Errorf("Next(%d, %d, false, %v) = %+v, want %+v",
					tt.current, tt.length, tt.repeat, got, tt.want)
			}
		})
	}
}

func TestNext_Shuffle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const length = 10

	seen := map[int]bool{}
	for range 200 {
		got := Next(3, length, true, ModeOff, rng)
		if !got.Advance {
			t.Fatal("shuffle should always advance on a non-empty list")
		}
		if got.Index < 0 || got.Index >= length {
			t.Fatalf("shuffle index %d out of range [0, %d)", got.Index, length)
		}
		seen[got.Index] = true
	}

	// Uniform draw over the whole list: with 200 draws every index should
	// appear, including the current one.
	for i := range length {
		if !seen[i] {
			t.Errorf("index %d never drawn in 200 shuffles", i)
		}
	}
}

func TestNext_ShuffleAtEndOfList(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	got := Next(4, 5, true, ModeOff, rng)
	if !got.Advance {
		t.Error("shuffle at the last index should still advance")
	}
}

func TestPrevious(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		position float64
		want     PrevDecision
	}{
		{"deep into track restarts", 2, 10.0, PrevDecision{Restart: true}},
		{"just past threshold restarts", 2, 3.01, PrevDecision{Restart: true}},
		{"at threshold steps back", 2, 3.0, PrevDecision{Advance: true, Index: 1}},
		{"fresh track steps back", 2, 0.5, PrevDecision{Advance: true, Index: 1}},
		{"first track fresh is no-op", 0, 1.0, PrevDecision{}},
		{"first track deep restarts", 0, 20.0, PrevDecision{Restart: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Previous(tt.current, tt.position)
			if got != tt.want {
				t.Errorf("Previous(%d, %v) = %+v, want %+v",
					tt.current, tt.position, got, tt.want)
			}
		})
	}
}

func TestSeekTarget(t *testing.T) {
	tests := []struct {
		percent  float64
		duration float64
		want     float64
	}{
		{0, 200, 0},
		{50, 200, 100},
		{100, 200, 200},
		{-10, 200, 0},
		{150, 200, 200},
		{50, 0, 0},
	}
	for _, tt := range tests {
		got := SeekTarget(tt.percent, tt.duration)
		if got != tt.want {
			t.Errorf("SeekTarget(%v, %v) = %v, want %v",
				tt.percent, tt.duration, got, tt.want)
		}
	}
}
