package generator

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/fitbox/internal/app/source"
)

// ErrInvalidRequest marks errors caused by the caller's input.
var ErrInvalidRequest = errors.New("invalid request")

// Request describes one playlist generation.
type Request struct {
	Target      time.Duration
	Tolerance   time.Duration
	Kind        source.Kind
	Genre       string
	Mood        source.Mood
	PlaylistURL string
}

// Limits bounds what a request may ask for.
type Limits struct {
	MinTarget    time.Duration
	MaxTarget    time.Duration
	MaxTolerance time.Duration
	// PlaylistFallback is set when a playlist provider has its own playlist,
	// so playlist requests may omit the URL.
	PlaylistFallback bool
}

// Validate checks the request against l.
func (r Request) Validate(l Limits) error {
	if r.Target < l.MinTarget || r.Target > l.MaxTarget {
		return invalid("target must be between %v and %v, got %v", l.MinTarget, l.MaxTarget, r.Target)
	}
	if r.Tolerance < 0 {
		return invalid("tolerance must be non-negative, got %v", r.Tolerance)
	}
	if l.MaxTolerance > 0 && r.Tolerance > l.MaxTolerance {
		return invalid("tolerance must not exceed %v, got %v", l.MaxTolerance, r.Tolerance)
	}

	switch r.Kind {
	case source.KindTopTracks:
	case source.KindGenre:
		if strings.TrimSpace(r.Genre) == "" {
			return invalid("genre is required for genre source")
		}
	case source.KindPlaylist:
		if r.PlaylistURL == "" && !l.PlaylistFallback {
			return invalid("playlist_url is required for playlist source")
		}
	default:
		return invalid("unknown source %q", r.Kind)
	}

	if _, err := source.ParseMood(string(r.Mood)); err != nil {
		return errors.Mark(err, ErrInvalidRequest)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidRequest)
}
