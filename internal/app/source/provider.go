// Package source provides the track providers that fill a candidate pool.
package source

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/osa030/fitbox/internal/domain/track"
	"github.com/osa030/fitbox/internal/infra/spotify"
)

// Kind selects where candidates come from.
type Kind string

const (
	KindTopTracks Kind = "top_tracks"
	KindGenre     Kind = "genre"
	KindPlaylist  Kind = "playlist"
)

var (
	// ErrUnknownKind is returned for a source kind that is not supported.
	ErrUnknownKind = errors.New("unknown source kind")
	// ErrNoCandidates is returned when no provider yields any track.
	ErrNoCandidates = errors.New("no candidate tracks")
	// ErrProvidersFailed is returned when every provider for a query failed.
	ErrProvidersFailed = errors.New("all providers failed")
	// ErrUnsupportedQuery is returned by a provider that cannot serve a query.
	ErrUnsupportedQuery = errors.New("query not supported by provider")
)

// Kinds returns all supported source kinds.
func Kinds() []Kind {
	return []Kind{KindTopTracks, KindGenre, KindPlaylist}
}

// ParseKind parses a source kind. Hyphens are accepted in place of underscores.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch k {
	case KindTopTracks, KindGenre, KindPlaylist:
		return k, nil
	case "":
		return KindTopTracks, nil
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Query describes the candidates wanted by a generation.
type Query struct {
	Kind        Kind
	Genre       string
	Mood        Mood
	PlaylistURL string
	// Limit overrides the provider's configured fetch size when positive.
	Limit int
}

// Provider is the interface for candidate track providers.
type Provider interface {
	// Candidates returns tracks for the query. Order is meaningful and kept.
	Candidates(ctx context.Context, q Query) ([]track.Track, error)

	// Name returns the provider type (used in config).
	Name() string
}

// SpotifyClient defines the Spotify operations needed by providers.
type SpotifyClient interface {
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
	GetTopTracks(ctx context.Context, limit int) ([]track.Track, error)
	GetRecommendations(ctx context.Context, seedTrackIDs, seedGenres []string, attrs spotify.TrackAttributes, limit int) ([]track.Track, error)
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
}

func limitOr(q Query, fallback int) int {
	if q.Limit > 0 {
		return q.Limit
	}
	return fallback
}
