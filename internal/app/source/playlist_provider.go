package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/fitbox/internal/domain/track"
)

type PlaylistProviderConfig struct {
	// PlaylistURL is used when the query names no playlist.
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url"`
}

// PlaylistProvider offers every track of a Spotify playlist in playlist order.
type PlaylistProvider struct {
	client SpotifyClient
	config *PlaylistProviderConfig
}

// NewPlaylistProvider creates a new PlaylistProvider.
func NewPlaylistProvider(client SpotifyClient, settings map[string]any) (*PlaylistProvider, error) {
	var config PlaylistProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &PlaylistProvider{client: client, config: &config}, nil
}

// Candidates returns the tracks of the requested or configured playlist.
func (p *PlaylistProvider) Candidates(ctx context.Context, q Query) ([]track.Track, error) {
	url := q.PlaylistURL
	if url == "" {
		url = p.config.PlaylistURL
	}
	if url == "" {
		return nil, errors.Wrap(ErrUnsupportedQuery, "playlist url is required")
	}

	tracks, err := p.client.GetPlaylistTracks(ctx, url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist tracks")
	}
	if q.Limit > 0 && len(tracks) > q.Limit {
		tracks = tracks[:q.Limit]
	}
	return tracks, nil
}

// PlaylistURL returns the configured fallback playlist, if any.
func (p *PlaylistProvider) PlaylistURL() string {
	return p.config.PlaylistURL
}

// Name returns the provider name.
func (p *PlaylistProvider) Name() string {
	return "playlist"
}
