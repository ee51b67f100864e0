// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a candidate track fetched from a music service.
// Tracks are immutable once fetched.
type Track struct {
	ID          string        // Spotify Track ID
	Name        string        // Track name
	Artists     []string      // Artist names
	Album       string        // Album name
	AlbumArtURL string        // Album art URL
	Duration    time.Duration // Playback duration
	URI         string        // Playable URI (spotify:track:...)
	URL         string        // Spotify URL
	Popularity  int           // Popularity score (0-100)
	Explicit    bool          // Explicit content flag
	Markets     []string      // Available markets
	IsPlayable  *bool         // Playable in the specified market (nil if market not specified)
}

// IsAvailableInMarket checks if the track is available in the specified market.
func (t *Track) IsAvailableInMarket(market string) bool {
	// IsPlayable wins over the markets list (track relinking)
	if t.IsPlayable != nil {
		return *t.IsPlayable
	}

	for _, m := range t.Markets {
		if m == market {
			return true
		}
	}
	return false
}

// ArtistNames returns the artist names joined by ", ".
func (t *Track) ArtistNames() string {
	return strings.Join(t.Artists, ", ")
}

// MainArtist returns the first artist, or "" when the track has none.
func (t *Track) MainArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// PlayableURI returns the URI, falling back to a spotify:track URI built from the ID.
func (t *Track) PlayableURI() string {
	if t.URI != "" {
		return t.URI
	}
	return "spotify:track:" + t.ID
}
