package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", Token: "test-api-token"},
		Generation: GenerationConfig{
			DefaultTargetMinutes:    30,
			MinTargetMinutes:        5,
			MaxTargetMinutes:        180,
			DefaultToleranceSeconds: 60,
			MaxToleranceSeconds:     600,
			MaxCandidates:           200,
			MaxStates:               100000,
			RegistrySize:            10,
			NamePrefix:              "fitbox",
		},
		Sources: SourcesConfig{
			TopTracks: []ProviderConfig{{Type: "top_tracks"}},
		},
		Spotify: SpotifyConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RefreshToken: "test-refresh-token",
			Market:       "US",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing spotify client id",
			mutate:  func(c *Config) { c.Spotify.ClientID = "" },
			wantErr: true,
			errMsg:  "ClientID",
		},
		{
			name:    "missing spotify refresh token",
			mutate:  func(c *Config) { c.Spotify.RefreshToken = "" },
			wantErr: true,
			errMsg:  "RefreshToken",
		},
		{
			name:    "missing api token",
			mutate:  func(c *Config) { c.Server.Token = "" },
			wantErr: true,
			errMsg:  "Token",
		},
		{
			name:    "invalid market length",
			mutate:  func(c *Config) { c.Spotify.Market = "USA" },
			wantErr: true,
			errMsg:  "Market",
		},
		{
			name: "unknown provider type",
			mutate: func(c *Config) {
				c.Sources.Genre = []ProviderConfig{{Type: "soundcloud"}}
			},
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name: "default target outside range",
			mutate: func(c *Config) {
				c.Generation.DefaultTargetMinutes = 200
			},
			wantErr: true,
			errMsg:  "default_target_minutes",
		},
		{
			name: "min target above max",
			mutate: func(c *Config) {
				c.Generation.MinTargetMinutes = 90
				c.Generation.MaxTargetMinutes = 60
			},
			wantErr: true,
			errMsg:  "min_target_minutes",
		},
		{
			name: "default tolerance above max",
			mutate: func(c *Config) {
				c.Generation.DefaultToleranceSeconds = 700
			},
			wantErr: true,
			errMsg:  "default_tolerance_seconds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fitbox.yaml")
	content := `
server:
  token: file-token
spotify:
  client_id: file-client-id
  client_secret: file-client-secret
  refresh_token: file-refresh-token
sources:
  genre:
    - type: lastfm
      display_name: Last.fm
filters:
  explicit_filter:
    enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SPOTIFY_CLIENT_ID", "env-client-id")
	t.Setenv("LASTFM_API_KEY", "env-lastfm-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-client-id", cfg.Spotify.ClientID)
	assert.Equal(t, "file-client-secret", cfg.Spotify.ClientSecret)
	assert.Equal(t, "US", cfg.Spotify.Market)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	assert.Equal(t, 30*time.Minute, cfg.Generation.DefaultTarget())
	assert.Equal(t, time.Minute, cfg.Generation.DefaultTolerance())
	minTarget, maxTarget := cfg.Generation.TargetRange()
	assert.Equal(t, 5*time.Minute, minTarget)
	assert.Equal(t, 3*time.Hour, maxTarget)
	assert.Equal(t, "fitbox", cfg.Generation.NamePrefix)

	require.Len(t, cfg.Sources.Genre, 1)
	assert.Equal(t, "env-lastfm-key", cfg.Sources.Genre[0].Settings["api_key"])
	assert.NotEmpty(t, cfg.Sources.Providers(SourceTopTracks))
	assert.NotEmpty(t, cfg.Sources.Providers(SourcePlaylist))
	assert.Nil(t, cfg.Sources.Providers("unknown"))

	assert.True(t, cfg.IsFilterEnabled("explicit_filter"))
	assert.False(t, cfg.IsFilterEnabled("market_filter"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_GetMessage(t *testing.T) {
	cfg := validConfig()
	cfg.Messages = MessagesConfig{
		DefaultError: "try again",
		NoCandidates: "nothing found",
		SaveFailed:   "save failed",
	}

	assert.Equal(t, "nothing found", cfg.GetMessage("no_candidates"))
	assert.Equal(t, "save failed", cfg.GetMessage("save_failed"))
	assert.Equal(t, "try again", cfg.GetMessage("unknown_code"))
}
