// Package playlist provides the Playlist domain entity.
package playlist

import (
	"fmt"
	"time"

	"github.com/osa030/fitbox/internal/domain/track"
)

// Playlist represents a persisted Spotify playlist.
type Playlist struct {
	ID          string        // Spotify Playlist ID
	Name        string        // Playlist name
	Description string        // Playlist description
	URL         string        // Spotify URL
	Public      bool          // Public visibility
	Tracks      []track.Track // Tracks in the playlist
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TotalDuration returns the summed duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}

// FormatTrackDuration formats a track length as "m:ss", or "h:mm:ss" from one hour up.
func FormatTrackDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalSeconds := int64(d / time.Second)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatTotalDuration formats a playlist length as "N minutes" or "Hh Mm".
func FormatTotalDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	totalMinutes := int64(d / time.Minute)
	if totalMinutes < 60 {
		return fmt.Sprintf("%d minutes", totalMinutes)
	}
	return fmt.Sprintf("%dh %dm", totalMinutes/60, totalMinutes%60)
}

// FormatTarget formats a requested duration the way it is offered to users:
// "25 min", "1 hour", "2 hours", "1h 30m".
func FormatTarget(d time.Duration) string {
	minutes := int64(d / time.Minute)
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		if hours > 1 {
			return fmt.Sprintf("%d hours", hours)
		}
		return fmt.Sprintf("%d hour", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// DefaultName returns the name used when a playlist is saved without one.
func DefaultName(prefix string, total time.Duration) string {
	return fmt.Sprintf("%s %s Mix", prefix, FormatTotalDuration(total))
}

// DefaultDescription returns the description attached to saved playlists.
func DefaultDescription(prefix string, target time.Duration) string {
	return fmt.Sprintf("Generated %d-minute playlist by %s", int64(target/time.Minute), prefix)
}
