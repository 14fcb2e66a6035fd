package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Chdir(dir)
}

func TestLoad_NoFileYieldsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MusicFolder != "" {
		t.Errorf("MusicFolder = %q, want empty", cfg.MusicFolder)
	}
	if cfg.HasLastfmConfig() {
		t.Error("HasLastfmConfig true with no config")
	}
}

func TestLoad_ReadsTOML(t *testing.T) {
	writeConfig(t, `
music_folder = "/srv/music"

[crossfade]
enabled = true
duration_ms = 5000

[loader]
max_retries = 5
initial_delay_ms = 250

[lastfm]
api_key = "key"
api_secret = "secret"
session_key = "session"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MusicFolder != "/srv/music" {
		t.Errorf("MusicFolder = %q, want /srv/music", cfg.MusicFolder)
	}
	if !cfg.Crossfade.Enabled || cfg.Crossfade.DurationMs != 5000 {
		t.Errorf("Crossfade = %+v, want enabled at 5000ms", cfg.Crossfade)
	}
	if cfg.Loader.MaxRetries != 5 || cfg.Loader.InitialDelayMs != 250 {
		t.Errorf("Loader = %+v, want 5 retries at 250ms", cfg.Loader)
	}
	if !cfg.HasLastfmConfig() {
		t.Error("HasLastfmConfig false with key and secret set")
	}
}

func TestLoad_ExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeConfig(t, `music_folder = "~/Music"`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(home, "Music"); cfg.MusicFolder != want {
		t.Errorf("MusicFolder = %q, want %q", cfg.MusicFolder, want)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/Music", filepath.Join(home, "Music")},
		{"~alice/music", "~alice/music"},
		{"/srv/music", "/srv/music"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetCrossfadeConfig_Bounds(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 3000},
		{-100, 3000},
		{500, 1000},
		{3000, 3000},
		{60000, 12000},
	}
	for _, tt := range tests {
		cfg := &Config{Crossfade: CrossfadeConfig{DurationMs: tt.in}}
		if got := cfg.GetCrossfadeConfig().DurationMs; got != tt.want {
			t.Errorf("DurationMs %d -> %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGetLoaderConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	lc := cfg.GetLoaderConfig()
	if lc.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", lc.MaxRetries)
	}
	if got := time.Duration(lc.InitialDelayMs) * time.Millisecond; got != 500*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 500ms", got)
	}
	if got := time.Duration(lc.MaxDelayMs) * time.Millisecond; got != 5*time.Second {
		t.Errorf("MaxDelay = %v, want 5s", got)
	}

	cfg.Loader = LoaderConfig{MaxRetries: 7, InitialDelayMs: 100, MaxDelayMs: 2000}
	lc = cfg.GetLoaderConfig()
	if lc.MaxRetries != 7 || lc.InitialDelayMs != 100 || lc.MaxDelayMs != 2000 {
		t.Errorf("configured loader = %+v, want passthrough", lc)
	}
}

func TestHasLastfmConfig(t *testing.T) {
	cfg := &Config{Lastfm: LastfmConfig{APIKey: "key"}}
	if cfg.HasLastfmConfig() {
		t.Error("key without secret should not count as configured")
	}
	cfg.Lastfm.APISecret = "secret"
	if !cfg.HasLastfmConfig() {
		t.Error("key and secret should count as configured")
	}
}
