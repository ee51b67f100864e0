// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Source kinds understood by the generator.
const (
	SourceTopTracks = "top_tracks"
	SourceGenre     = "genre"
	SourcePlaylist  = "playlist"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig            `yaml:"server"`
	Generation GenerationConfig        `yaml:"generation"`
	Sources    SourcesConfig           `yaml:"sources"`
	Filters    map[string]FilterConfig `yaml:"filters"`
	Messages   MessagesConfig          `yaml:"messages"`
	Spotify    SpotifyConfig           `yaml:"spotify"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Token string      `yaml:"token" validate:"required"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// GenerationConfig represents playlist generation limits and defaults.
type GenerationConfig struct {
	DefaultTargetMinutes    int    `yaml:"default_target_minutes" default:"30" validate:"gte=1"`
	MinTargetMinutes        int    `yaml:"min_target_minutes" default:"5" validate:"gte=1"`
	MaxTargetMinutes        int    `yaml:"max_target_minutes" default:"180" validate:"gte=1,lte=1440"`
	DefaultToleranceSeconds int    `yaml:"default_tolerance_seconds" default:"60" validate:"gte=0"`
	MaxToleranceSeconds     int    `yaml:"max_tolerance_seconds" default:"600" validate:"gte=0"`
	MaxCandidates           int    `yaml:"max_candidates" default:"200" validate:"gte=0"`
	MaxStates               int    `yaml:"max_states" default:"100000" validate:"gte=0"`
	RegistrySize            int    `yaml:"registry_size" default:"100" validate:"gte=1"`
	NamePrefix              string `yaml:"name_prefix" default:"fitbox"`
	Public                  bool   `yaml:"public"`
}

// SourcesConfig lists the track providers consulted for each source kind.
type SourcesConfig struct {
	TopTracks []ProviderConfig `yaml:"top_tracks" validate:"dive"`
	Genre     []ProviderConfig `yaml:"genre" validate:"dive"`
	Playlist  []ProviderConfig `yaml:"playlist" validate:"dive"`
}

// ProviderConfig represents a single track provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=top_tracks recommendations playlist lastfm"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Success        string `yaml:"success" default:"Playlist generated"`
	DefaultError   string `yaml:"default_error" default:"Failed to generate playlist. Please try again."`
	InvalidRequest string `yaml:"invalid_request" default:"Invalid request"`
	NoCandidates   string `yaml:"no_candidates" default:"No tracks found for this selection. Please try again."`
	NotFound       string `yaml:"not_found" default:"Playlist not found. Please generate it again."`
	SaveFailed     string `yaml:"save_failed" default:"Failed to save playlist to Spotify."`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID          string  `yaml:"client_id" validate:"required"`
	ClientSecret      string  `yaml:"client_secret" validate:"required"`
	RefreshToken      string  `yaml:"refresh_token" validate:"required"`
	Market            string  `yaml:"market" validate:"omitempty,len=2" default:"US"`
	RequestsPerSecond float64 `yaml:"requests_per_second" default:"5" validate:"gte=0"`
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

// Parse builds a configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.Sources.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("FITBOX_API_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		for _, providers := range [][]ProviderConfig{c.Sources.TopTracks, c.Sources.Genre, c.Sources.Playlist} {
			for i := range providers {
				if providers[i].Type != "lastfm" {
					continue
				}
				if providers[i].Settings == nil {
					providers[i].Settings = make(map[string]any)
				}
				providers[i].Settings["api_key"] = v
			}
		}
	}
}

// setDefaults fills in the Spotify-only provider list for kinds left empty.
func (s *SourcesConfig) setDefaults() {
	if len(s.TopTracks) == 0 {
		s.TopTracks = []ProviderConfig{
			{Type: "recommendations", DisplayName: "Recommended for you"},
			{Type: "top_tracks", DisplayName: "Your top tracks"},
		}
	}
	if len(s.Genre) == 0 {
		s.Genre = []ProviderConfig{{Type: "recommendations", DisplayName: "Genre recommendations"}}
	}
	if len(s.Playlist) == 0 {
		s.Playlist = []ProviderConfig{{Type: "playlist", DisplayName: "Playlist"}}
	}
}

// Providers returns the provider configurations for a source kind.
func (s *SourcesConfig) Providers(kind string) []ProviderConfig {
	switch kind {
	case SourceTopTracks:
		return s.TopTracks
	case SourceGenre:
		return s.Genre
	case SourcePlaylist:
		return s.Playlist
	default:
		return nil
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "invalid_request":
		return c.Messages.InvalidRequest
	case "no_candidates":
		return c.Messages.NoCandidates
	case "not_found":
		return c.Messages.NotFound
	case "save_failed":
		return c.Messages.SaveFailed
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateTargetRange(); err != nil {
		return err
	}

	return nil
}

// validateTargetRange checks that the default target lies inside the allowed range.
func (c *Config) validateTargetRange() error {
	g := c.Generation
	if g.MinTargetMinutes > g.MaxTargetMinutes {
		return errors.Newf("min_target_minutes (%d) must not exceed max_target_minutes (%d)", g.MinTargetMinutes, g.MaxTargetMinutes)
	}
	if g.DefaultTargetMinutes < g.MinTargetMinutes || g.DefaultTargetMinutes > g.MaxTargetMinutes {
		return errors.Newf("default_target_minutes (%d) must be between %d and %d", g.DefaultTargetMinutes, g.MinTargetMinutes, g.MaxTargetMinutes)
	}
	if g.DefaultToleranceSeconds > g.MaxToleranceSeconds {
		return errors.Newf("default_tolerance_seconds (%d) must not exceed max_tolerance_seconds (%d)", g.DefaultToleranceSeconds, g.MaxToleranceSeconds)
	}
	return nil
}

// DefaultTarget returns the target used when a request names none.
func (g GenerationConfig) DefaultTarget() time.Duration {
	return time.Duration(g.DefaultTargetMinutes) * time.Minute
}

// DefaultTolerance returns the tolerance used when a request names none.
func (g GenerationConfig) DefaultTolerance() time.Duration {
	return time.Duration(g.DefaultToleranceSeconds) * time.Second
}

// TargetRange returns the smallest and largest allowed targets.
func (g GenerationConfig) TargetRange() (time.Duration, time.Duration) {
	return time.Duration(g.MinTargetMinutes) * time.Minute, time.Duration(g.MaxTargetMinutes) * time.Minute
}

// MaxTolerance returns the largest allowed tolerance.
func (g GenerationConfig) MaxTolerance() time.Duration {
	return time.Duration(g.MaxToleranceSeconds) * time.Second
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
