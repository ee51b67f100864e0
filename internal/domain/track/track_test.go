package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_IsAvailableInMarket(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		markets    []string
		isPlayable *bool
		market     string
		expected   bool
	}{
		{
			name:     "available in market using markets list",
			markets:  []string{"JP", "US", "UK"},
			market:   "JP",
			expected: true,
		},
		{
			name:     "not available in market using markets list",
			markets:  []string{"US", "UK"},
			market:   "JP",
			expected: false,
		},
		{
			name:       "isPlayable true takes precedence",
			markets:    []string{"US"},
			isPlayable: &trueVal,
			market:     "JP",
			expected:   true,
		},
		{
			name:       "isPlayable false takes precedence",
			markets:    []string{"JP", "US"},
			isPlayable: &falseVal,
			market:     "JP",
			expected:   false,
		},
		{
			name:     "empty markets list",
			markets:  []string{},
			market:   "JP",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{
				ID:         "test-id",
				Markets:    tt.markets,
				IsPlayable: tt.isPlayable,
			}

			assert.Equal(t, tt.expected, trk.IsAvailableInMarket(tt.market))
		})
	}
}

func TestTrack_ArtistNames(t *testing.T) {
	tests := []struct {
		name       string
		artists    []string
		wantJoined string
		wantMain   string
	}{
		{name: "no artists", artists: nil, wantJoined: "", wantMain: ""},
		{name: "single artist", artists: []string{"Artist One"}, wantJoined: "Artist One", wantMain: "Artist One"},
		{name: "multiple artists", artists: []string{"A", "B", "C"}, wantJoined: "A, B, C", wantMain: "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{Artists: tt.artists}
			assert.Equal(t, tt.wantJoined, trk.ArtistNames())
			assert.Equal(t, tt.wantMain, trk.MainArtist())
		})
	}
}

func TestTrack_PlayableURI(t *testing.T) {
	assert.Equal(t, "spotify:track:abc", (&Track{ID: "abc"}).PlayableURI())
	assert.Equal(t, "spotify:track:xyz", (&Track{ID: "abc", URI: "spotify:track:xyz"}).PlayableURI())
}
