package tags

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/music/artist/album/01 - Song.mp3", "01 - Song"},
		{"song.flac", "song"},
		{"/music/no-extension", "no-extension"},
		{"/music/dotted.name.ogg", "dotted.name"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.path); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestRead_MissingFile(t *testing.T) {
	if _, err := Read("/does/not/exist.mp3"); err == nil {
		t.Error("Read of a missing file should fail")
	}
}

func TestRead_UntaggedFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.mp3")
	if err := os.WriteFile(path, []byte("not actually audio"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read of an untagged file = %v, want empty tag", err)
	}
	if got != (Tag{}) {
		t.Errorf("Read = %+v, want zero Tag", got)
	}
}
