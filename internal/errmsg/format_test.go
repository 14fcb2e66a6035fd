package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	err := errors.New("device busy")
	got := Format(OpPlaybackStart, err)
	want := "Failed to start playback: device busy"
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestFormat_NilError(t *testing.T) {
	if got := Format(OpTrackLoad, nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestFormatWith(t *testing.T) {
	err := errors.New("no such file")
	got := FormatWith(OpTrackLoad, "/music/a.mp3", err)
	want := "Failed to load track '/music/a.mp3': no such file"
	if got != want {
		t.Errorf("FormatWith = %q, want %q", got, want)
	}

	if got := FormatWith(OpTrackLoad, "", err); got != Format(OpTrackLoad, err) {
		t.Errorf("FormatWith empty context = %q, want plain Format", got)
	}
}
