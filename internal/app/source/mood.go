package source

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/fitbox/internal/infra/spotify"
)

// Mood shapes recommendations through audio feature bounds.
type Mood string

const (
	MoodBalanced  Mood = "balanced"
	MoodEnergetic Mood = "energetic"
	MoodChill     Mood = "chill"
	MoodFocused   Mood = "focused"
)

// ErrUnknownMood is returned by ParseMood.
var ErrUnknownMood = errors.New("unknown mood")

// Moods returns the supported moods in display order.
func Moods() []Mood {
	return []Mood{MoodBalanced, MoodEnergetic, MoodChill, MoodFocused}
}

// ParseMood parses a mood name; empty means balanced.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return MoodBalanced, nil
	}
	for _, known := range Moods() {
		if m == known {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownMood, "%q", s)
}

// Attributes returns the recommendation bounds for the mood.
func (m Mood) Attributes() spotify.TrackAttributes {
	switch m {
	case MoodEnergetic:
		return spotify.TrackAttributes{MinEnergy: 0.6, MinValence: 0.5}
	case MoodChill:
		return spotify.TrackAttributes{MaxEnergy: 0.5, MaxValence: 0.6}
	case MoodFocused:
		return spotify.TrackAttributes{MaxSpeechiness: 0.3, MinInstrumentalness: 0.3}
	default:
		return spotify.TrackAttributes{}
	}
}
