package source

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/fitbox/internal/domain/track"
)

type RecommendationProviderConfig struct {
	Limit     int `yaml:"limit" mapstructure:"limit" default:"50" validate:"gte=1,lte=100"`
	SeedCount int `yaml:"seed_count" mapstructure:"seed_count" default:"5" validate:"gte=1,lte=5"`
}

// RecommendationProvider asks Spotify for recommendations seeded by the
// user's top tracks or by a genre, bounded by the query mood.
type RecommendationProvider struct {
	client SpotifyClient
	config *RecommendationProviderConfig
}

// NewRecommendationProvider creates a new RecommendationProvider.
func NewRecommendationProvider(client SpotifyClient, settings map[string]any) (*RecommendationProvider, error) {
	var config RecommendationProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &RecommendationProvider{client: client, config: &config}, nil
}

// Candidates returns recommended tracks for top_tracks and genre queries.
func (p *RecommendationProvider) Candidates(ctx context.Context, q Query) ([]track.Track, error) {
	var seedTracks, seedGenres []string

	switch q.Kind {
	case KindTopTracks:
		top, err := p.client.GetTopTracks(ctx, p.config.SeedCount)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get seed tracks")
		}
		for _, t := range top {
			seedTracks = append(seedTracks, t.ID)
		}
		if len(seedTracks) == 0 {
			return nil, errors.New("no top tracks to seed recommendations")
		}
	case KindGenre:
		genre := strings.TrimSpace(q.Genre)
		if genre == "" {
			return nil, errors.Wrap(ErrUnsupportedQuery, "genre is required")
		}
		seedGenres = []string{genre}
	default:
		return nil, errors.Wrapf(ErrUnsupportedQuery, "recommendations cannot serve %s", q.Kind)
	}

	zlog.Debug().Msgf("requesting recommendations: seed_tracks=%d seed_genres=%v mood=%s",
		len(seedTracks), seedGenres, q.Mood)

	tracks, err := p.client.GetRecommendations(ctx, seedTracks, seedGenres, q.Mood.Attributes(), limitOr(q, p.config.Limit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommendations")
	}
	return tracks, nil
}

// Name returns the provider name.
func (p *RecommendationProvider) Name() string {
	return "recommendations"
}
