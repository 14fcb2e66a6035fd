package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	// Library folder scanned by the shell for playable files.
	MusicFolder string `koanf:"music_folder"`

	Crossfade CrossfadeConfig `koanf:"crossfade"`
	Loader    LoaderConfig    `koanf:"loader"`

	// Last.fm scrobbling (enabled when configured)
	Lastfm LastfmConfig `koanf:"lastfm"`
}

// CrossfadeConfig holds the crossfade defaults; the persisted state wins
// over these once the user has toggled crossfade in a session.
type CrossfadeConfig struct {
	Enabled    bool `koanf:"enabled"`
	DurationMs int  `koanf:"duration_ms"` // clamped to [1000, 12000], default 3000
}

// LoaderConfig bounds the track load retry loop.
type LoaderConfig struct {
	MaxRetries     int `koanf:"max_retries"`      // default 3
	InitialDelayMs int `koanf:"initial_delay_ms"` // default 500
	MaxDelayMs     int `koanf:"max_delay_ms"`     // default 5000
}

// LastfmConfig holds Last.fm scrobbling configuration.
type LastfmConfig struct {
	APIKey     string `koanf:"api_key"`
	APISecret  string `koanf:"api_secret"`
	SessionKey string `koanf:"session_key"`
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.MusicFolder != "" {
		cfg.MusicFolder = expandPath(cfg.MusicFolder)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/attune/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "attune", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// expandPath expands a leading "~" or "~/" to the home directory.
// "~user" paths are left alone.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasLastfmConfig returns true if Last.fm scrobbling is configured.
func (c *Config) HasLastfmConfig() bool {
	return c.Lastfm.APIKey != "" && c.Lastfm.APISecret != ""
}

// GetCrossfadeConfig returns the crossfade configuration with defaults and
// bounds applied.
func (c *Config) GetCrossfadeConfig() CrossfadeConfig {
	cfg := c.Crossfade
	if cfg.DurationMs <= 0 {
		cfg.DurationMs = 3000
	}
	if cfg.DurationMs < 1000 {
		cfg.DurationMs = 1000
	}
	if cfg.DurationMs > 12000 {
		cfg.DurationMs = 12000
	}
	return cfg
}

// GetLoaderConfig returns the loader configuration with defaults applied.
func (c *Config) GetLoaderConfig() LoaderConfig {
	cfg := c.Loader
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialDelayMs <= 0 {
		cfg.InitialDelayMs = 500
	}
	if cfg.MaxDelayMs <= 0 {
		cfg.MaxDelayMs = 5000
	}
	return cfg
}
