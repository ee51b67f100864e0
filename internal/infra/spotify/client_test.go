package spotify

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL format",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Plain playlist ID",
			input:    "37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "HTTP URL (not HTTPS)",
			input:    "http://open.spotify.com/playlist/testID",
			expected: "testID",
		},
		{
			name:     "URL with multiple query params",
			input:    "https://open.spotify.com/playlist/abc123?si=xyz&utm_source=copy",
			expected: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractPlaylistID(tt.input)
			assert.Equal(t, tt.expected, result,
				"extractPlaylistID(%s) should return %s", tt.input, tt.expected)
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "rate limit error with 429",
			err:      errors.New("Error 429: rate limit exceeded"),
			expected: true,
		},
		{
			name:     "rate limit text",
			err:      errors.New("rate limit exceeded"),
			expected: true,
		},
		{
			name:     "server error 500",
			err:      errors.New("Error 500: internal server error"),
			expected: true,
		},
		{
			name:     "server error 502",
			err:      errors.New("502 Bad Gateway"),
			expected: true,
		},
		{
			name:     "server error 503",
			err:      errors.New("503 Service Unavailable"),
			expected: true,
		},
		{
			name:     "server error 504",
			err:      errors.New("504 Gateway Timeout"),
			expected: true,
		},
		{
			name:     "client error 400",
			err:      errors.New("400 Bad Request"),
			expected: false,
		},
		{
			name:     "not found error",
			err:      errors.New("404 not found"),
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
		{
			name:     "typed rate limit",
			err:      fmt.Errorf("wrapped: %w", spotify.Error{Status: 429, Message: "slow down"}),
			expected: true,
		},
		{
			name:     "typed not found",
			err:      spotify.Error{Status: 404, Message: "gone"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRetryable(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractTrackID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"spotify:track:4uLU6hMCjMI75M1A2tKUQC", "4uLU6hMCjMI75M1A2tKUQC"},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=x", "4uLU6hMCjMI75M1A2tKUQC"},
		{"https://open.spotify.com/intl-ja/track/4uLU6hMCjMI75M1A2tKUQC/", "4uLU6hMCjMI75M1A2tKUQC"},
		{"  4uLU6hMCjMI75M1A2tKUQC ", "4uLU6hMCjMI75M1A2tKUQC"},
		{"spotify:playlist:abc", "spotify:playlist:abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTrackID(tt.input))
		})
	}
}

func TestBuildSeeds(t *testing.T) {
	tests := []struct {
		name       string
		tracks     []string
		genres     []string
		wantTracks int
		wantGenres []string
	}{
		{
			name:       "genres only",
			genres:     []string{"jazz", " ", "soul"},
			wantGenres: []string{"jazz", "soul"},
		},
		{
			name:       "tracks capped at five",
			tracks:     []string{"a", "b", "c", "d", "e", "f", "g"},
			wantTracks: 5,
		},
		{
			name:       "tracks take precedence over genres",
			tracks:     []string{"a", "b", "c", "d"},
			genres:     []string{"rock", "pop"},
			wantTracks: 4,
			wantGenres: []string{"rock"},
		},
		{
			name: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeds := buildSeeds(tt.tracks, tt.genres)
			assert.Len(t, seeds.Tracks, tt.wantTracks)
			assert.Equal(t, tt.wantGenres, seeds.Genres)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, clampLimit(0, 20))
	assert.Equal(t, 20, clampLimit(-3, 20))
	assert.Equal(t, 10, clampLimit(10, 20))
	assert.Equal(t, maxPageSize, clampLimit(500, 20))
}

func TestConvertTrack(t *testing.T) {
	c := &Client{market: "JP"}
	playable := true

	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:       "abc",
			Name:     "Song",
			Artists:  []spotify.SimpleArtist{{Name: "A"}, {Name: "B"}},
			Duration: 215000,
			URI:      "spotify:track:abc",
			Explicit: true,
		},
		Album: spotify.SimpleAlbum{
			Name:   "Album",
			Images: []spotify.Image{{URL: "https://img/1"}},
		},
		Popularity: 42,
		IsPlayable: &playable,
	}

	tr := c.convertTrack(full)
	require.NotNil(t, tr)
	assert.Equal(t, "abc", tr.ID)
	assert.Equal(t, []string{"A", "B"}, tr.Artists)
	assert.Equal(t, 3*time.Minute+35*time.Second, tr.Duration)
	assert.Equal(t, "spotify:track:abc", tr.URI)
	assert.Equal(t, "https://open.spotify.com/track/abc", tr.URL)
	assert.Equal(t, "Album", tr.Album)
	assert.Equal(t, "https://img/1", tr.AlbumArtURL)
	assert.Equal(t, 42, tr.Popularity)
	assert.True(t, tr.Explicit)
	assert.Equal(t, []string{"JP"}, tr.Markets, "missing markets default to the request market")
	require.NotNil(t, tr.IsPlayable)
	assert.True(t, *tr.IsPlayable)
}
