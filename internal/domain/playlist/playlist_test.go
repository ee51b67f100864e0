package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/fitbox/internal/domain/track"
)

func TestPlaylist_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []string
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: []string{},
		},
		{
			name:     "single track",
			tracks:   []track.Track{{ID: "track-1"}},
			expected: []string{"track-1"},
		},
		{
			name: "keeps order and repeats",
			tracks: []track.Track{
				{ID: "track-2"},
				{ID: "track-1"},
				{ID: "track-2"},
			},
			expected: []string{"track-2", "track-1", "track-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "playlist-1", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TrackIDs())
		})
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	p := &Playlist{
		Tracks: []track.Track{
			{ID: "track-1", Duration: 2*time.Minute + 15*time.Second},
			{ID: "track-2", Duration: 3*time.Minute + 45*time.Second},
			{ID: "track-3", Duration: 1500 * time.Millisecond},
		},
	}
	assert.Equal(t, 6*time.Minute+1500*time.Millisecond, p.TotalDuration())
	assert.Equal(t, time.Duration(0), (&Playlist{}).TotalDuration())
}

func TestFormatTrackDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{3*time.Minute + 5999*time.Millisecond, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTrackDuration(tt.in))
		})
	}
}

func TestFormatTotalDuration(t *testing.T) {
	assert.Equal(t, "0 minutes", FormatTotalDuration(59*time.Second))
	assert.Equal(t, "30 minutes", FormatTotalDuration(30*time.Minute+30*time.Second))
	assert.Equal(t, "1h 0m", FormatTotalDuration(time.Hour))
	assert.Equal(t, "2h 5m", FormatTotalDuration(2*time.Hour+5*time.Minute))
}

func TestFormatTarget(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{15 * time.Minute, "15 min"},
		{time.Hour, "1 hour"},
		{2 * time.Hour, "2 hours"},
		{90 * time.Minute, "1h 30m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTarget(tt.in))
		})
	}
}

func TestDefaultNameAndDescription(t *testing.T) {
	assert.Equal(t, "fitbox 29 minutes Mix", DefaultName("fitbox", 29*time.Minute+50*time.Second))
	assert.Equal(t, "Generated 30-minute playlist by fitbox", DefaultDescription("fitbox", 30*time.Minute))
}
