package playback

import "testing"

func TestStore_Defaults(t *testing.T) {
	st := NewStore()
	snap := st.Snapshot()
	if snap.CurrentIndex != -1 {
		t.Errorf("CurrentIndex = %d, want -1", snap.CurrentIndex)
	}
	if snap.LoadingIndex != -1 {
		t.Errorf("LoadingIndex = %d, want -1", snap.LoadingIndex)
	}
	if snap.Volume != 1.0 {
		t.Errorf("Volume = %v, want 1.0", snap.Volume)
	}
}

func TestStore_VolumeClamped(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{0, 0},
		{1, 1},
		{-0.3, 0},
		{1.7, 1},
	}
	st := NewStore()
	for _, tt := range tests {
		st.SetVolume(tt.in)
		if got := st.Volume(); got != tt.want {
			t.Errorf("SetVolume(%v): Volume() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStore_PositionClampedToDuration(t *testing.T) {
	st := NewStore()
	st.SetDuration(200)

	st.SetPosition(100)
	if got := st.Position(); got != 100 {
		t.Errorf("Position = %v, want 100", got)
	}

	st.SetPosition(205)
	if got := st.Position(); got != 200 {
		t.Errorf("Position past end = %v, want clamped to 200", got)
	}

	st.SetPosition(-5)
	if got := st.Position(); got != 0 {
		t.Errorf("negative Position = %v, want 0", got)
	}
}

func TestStore_PositionUnclampedWithoutDuration(t *testing.T) {
	// Before the duration is known, positions pass through unclamped above.
	st := NewStore()
	st.SetPosition(500)
	if got := st.Position(); got != 500 {
		t.Errorf("Position = %v, want 500 while duration unknown", got)
	}
}

func TestStore_SetDurationReclampsPosition(t *testing.T) {
	st := NewStore()
	st.SetDuration(300)
	st.SetPosition(250)

	st.SetDuration(200)
	if got := st.Position(); got != 200 {
		t.Errorf("Position after shorter duration = %v, want 200", got)
	}
}

func TestStore_CurrentIndexBounds(t *testing.T) {
	st := NewStore()
	st.SetQueueLength(3)

	st.SetCurrentIndex(2)
	if got := st.CurrentIndex(); got != 2 {
		t.Errorf("CurrentIndex = %d, want 2", got)
	}

	st.SetCurrentIndex(3)
	if got := st.CurrentIndex(); got != -1 {
		t.Errorf("out-of-range index: CurrentIndex = %d, want -1", got)
	}

	st.SetCurrentIndex(-7)
	if got := st.CurrentIndex(); got != -1 {
		t.Errorf("negative index: CurrentIndex = %d, want -1", got)
	}
}

func TestStore_ShrinkingQueueClearsIndex(t *testing.T) {
	st := NewStore()
	st.SetQueueLength(5)
	st.SetCurrentIndex(4)

	st.SetQueueLength(3)
	if got := st.CurrentIndex(); got != -1 {
		t.Errorf("CurrentIndex after shrink = %d, want -1", got)
	}
}

func TestStore_LoadingIndex(t *testing.T) {
	st := NewStore()
	if st.IsLoading() {
		t.Error("IsLoading true on a fresh store")
	}
	st.SetLoadingIndex(2)
	if !st.IsLoading() {
		t.Error("IsLoading false while an index is loading")
	}
	st.SetLoadingIndex(-1)
	if st.IsLoading() {
		t.Error("IsLoading true after clearing")
	}
}

func TestRepeatMode_String(t *testing.T) {
	tests := []struct {
		mode RepeatMode
		want string
	}{
		{RepeatOff, "Off"},
		{RepeatOne, "One"},
		{RepeatAll, "All"},
		{RepeatMode(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
