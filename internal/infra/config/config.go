// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Engine types
const (
	EngineBeep      = "beep"
	EngineSimulated = "simulated"
)

// SourceSpotify is the catalog source type backed by a Spotify playlist.
const SourceSpotify = "spotify"

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Player  PlayerConfig  `yaml:"player"`
	Engine  EngineConfig  `yaml:"engine"`
	Catalog CatalogConfig `yaml:"catalog"`
	Spotify SpotifyConfig `yaml:"spotify"`
}

// ServerConfig represents the remote-control server configuration.
type ServerConfig struct {
	Addr         string      `yaml:"addr" default:":8080"`
	ControlToken string      `yaml:"control_token"`
	Hooks        HooksConfig `yaml:"hooks"`
}

// HooksConfig lists shell commands run after the server starts and after it stops.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// PlayerConfig represents playback controller configuration.
type PlayerConfig struct {
	DefaultPlaylistName string   `yaml:"default_playlist_name" default:"All songs" validate:"required"`
	InitialVolume       *float64 `yaml:"initial_volume" default:"0.8" validate:"omitempty,gte=0,lte=1"`
	RestartThresholdMs  int      `yaml:"restart_threshold_ms" default:"3000" validate:"gte=0,lte=60000"`
	AutoAdvance         bool     `yaml:"auto_advance"`
	EventBuffer         int      `yaml:"event_buffer" default:"32" validate:"gte=1,lte=4096"`
}

// Volume returns the initial volume, 0.8 when unset.
func (p PlayerConfig) Volume() float64 {
	if p.InitialVolume == nil {
		return 0.8
	}
	return *p.InitialVolume
}

// RestartThreshold returns the position at which Previous restarts the current song.
func (p PlayerConfig) RestartThreshold() time.Duration {
	return time.Duration(p.RestartThresholdMs) * time.Millisecond
}

// EngineConfig selects the audio engine. Settings are engine specific.
type EngineConfig struct {
	Type     string         `yaml:"type" default:"beep" validate:"oneof=beep simulated"`
	Settings map[string]any `yaml:"settings"`
}

// CatalogConfig lists the songs known to the player.
type CatalogConfig struct {
	Songs   []SongConfig            `yaml:"songs" validate:"dive"`
	Sources []SourceConfig          `yaml:"sources" validate:"dive"`
	Filters map[string]FilterConfig `yaml:"filters"`
}

// FilterConfig represents a catalog filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SongConfig represents a single song entry.
type SongConfig struct {
	ID         string `yaml:"id" validate:"required"`
	Title      string `yaml:"title" validate:"required"`
	Artist     string `yaml:"artist"`
	DurationMs int    `yaml:"duration_ms" validate:"gte=0"`
	Source     string `yaml:"source" validate:"required"`
	Glyph      string `yaml:"glyph"`
}

// SourceConfig represents a remote catalog source.
type SourceConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=spotify"`
	Settings map[string]any `yaml:"settings" validate:"required"`
}

// SpotifyConfig represents Spotify API configuration.
// Credentials are only required when a spotify catalog source is configured.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
}

// UsesSpotify reports whether any catalog source needs the Spotify API.
func (c *Config) UsesSpotify() bool {
	return lo.ContainsBy(c.Catalog.Sources, func(s SourceConfig) bool {
		return s.Type == SourceSpotify
	})
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if len(c.Catalog.Songs) == 0 && len(c.Catalog.Sources) == 0 {
		return errors.New("catalog must list at least one song or source")
	}

	ids := lo.Map(c.Catalog.Songs, func(s SongConfig, _ int) string { return s.ID })
	if dup := lo.FindDuplicates(ids); len(dup) > 0 {
		return errors.Newf("duplicate song ids: %v", dup)
	}

	if c.UsesSpotify() {
		if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" || c.Spotify.RefreshToken == "" {
			return errors.New("spotify source requires client_id, client_secret and refresh_token")
		}
	}

	return nil
}
