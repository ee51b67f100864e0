package source

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/fitbox/internal/domain/track"
)

type TopTracksProviderConfig struct {
	Limit int `yaml:"limit" mapstructure:"limit" default:"50" validate:"gte=1,lte=50"`
}

// TopTracksProvider offers the user's short-term top tracks as they are.
type TopTracksProvider struct {
	client SpotifyClient
	config *TopTracksProviderConfig
}

// NewTopTracksProvider creates a new TopTracksProvider.
func NewTopTracksProvider(client SpotifyClient, settings map[string]any) (*TopTracksProvider, error) {
	var config TopTracksProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &TopTracksProvider{client: client, config: &config}, nil
}

// Candidates returns the top tracks regardless of genre or mood.
func (p *TopTracksProvider) Candidates(ctx context.Context, q Query) ([]track.Track, error) {
	tracks, err := p.client.GetTopTracks(ctx, limitOr(q, p.config.Limit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top tracks")
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *TopTracksProvider) Name() string {
	return "top_tracks"
}
