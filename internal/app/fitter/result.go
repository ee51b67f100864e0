package fitter

import (
	"time"

	"github.com/osa030/fitbox/internal/domain/track"
)

// Accuracy grades how close a result came to its target.
type Accuracy string

const (
	AccuracyPerfect    Accuracy = "Perfect fit!"
	AccuracyGreat      Accuracy = "Great match!"
	AccuracyGoodEnough Accuracy = "Good enough!"
)

// Result is the outcome of one Fit call.
type Result struct {
	Tracks         []track.Track // Selected tracks in selection order
	TotalDuration  time.Duration // Exact sum of Tracks durations
	TargetDuration time.Duration // Requested target
	Tolerance      time.Duration // Requested tolerance
	Skipped        int           // Tracks dropped for a negative or oversized duration
	Truncated      bool          // A candidate or state budget discarded work
}

// Deviation returns TotalDuration - TargetDuration.
func (r *Result) Deviation() time.Duration {
	return r.TotalDuration - r.TargetDuration
}

// WithinTolerance reports whether the total lies within the tolerance window around the target.
func (r *Result) WithinTolerance() bool {
	return distance(r.TotalDuration, r.TargetDuration) <= r.Tolerance
}

// Accuracy grades the result by its relative deviation:
// under 2% is a perfect fit, under 5% a great match.
func (r *Result) Accuracy() Accuracy {
	diff := distance(r.TotalDuration, r.TargetDuration)
	if r.TargetDuration == 0 {
		if diff == 0 {
			return AccuracyPerfect
		}
		return AccuracyGoodEnough
	}

	percent := float64(diff) / float64(r.TargetDuration) * 100
	switch {
	case percent < 2:
		return AccuracyPerfect
	case percent < 5:
		return AccuracyGreat
	default:
		return AccuracyGoodEnough
	}
}

// TrackIDs returns the IDs of the selected tracks in order.
func (r *Result) TrackIDs() []string {
	ids := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// TrackURIs returns the playable URIs of the selected tracks in order.
func (r *Result) TrackURIs() []string {
	uris := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		uris[i] = t.PlayableURI()
	}
	return uris
}
