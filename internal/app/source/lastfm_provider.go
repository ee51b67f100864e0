package source

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/fitbox/internal/domain/track"
	"github.com/osa030/fitbox/internal/infra/lastfm"
)

// LastFmClient defines the interface for Last.fm operations.
type LastFmClient interface {
	GetTopTracks(ctx context.Context, tagName string, limit int) ([]lastfm.TopTrack, error)
	GetChartTopTracks(ctx context.Context, limit int) ([]lastfm.TopTrack, error)
}

type LastFmProviderConfig struct {
	APIKey      string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
	Limit       int    `yaml:"limit" mapstructure:"limit" default:"50" validate:"gte=1,lte=100"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency" default:"4" validate:"gte=1,lte=16"`
}

// LastFmProvider offers Last.fm tag or chart tracks resolved to Spotify.
type LastFmProvider struct {
	lastfm LastFmClient
	client SpotifyClient
	config *LastFmProviderConfig

	// Resolved tracks keyed by "name:artist"; nil caches a miss.
	searchCache map[string]*track.Track
	cacheMu     sync.RWMutex
}

// NewLastFmProvider creates a new LastFmProvider.
func NewLastFmProvider(client SpotifyClient, settings map[string]any) (*LastFmProvider, error) {
	if client == nil {
		return nil, errors.New("spotify client is required")
	}
	if len(settings) == 0 {
		return nil, errors.New("settings are required")
	}

	var config LastFmProviderConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}

	lastfmClient, err := lastfm.New(lastfm.Config{APIKey: config.APIKey})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create last.fm client")
	}

	return newLastFmProvider(lastfmClient, client, &config), nil
}

func newLastFmProvider(lfm LastFmClient, client SpotifyClient, config *LastFmProviderConfig) *LastFmProvider {
	return &LastFmProvider{
		lastfm:      lfm,
		client:      client,
		config:      config,
		searchCache: make(map[string]*track.Track),
	}
}

// Candidates returns the genre's top tracks for genre queries and the
// global chart otherwise, in chart order.
func (p *LastFmProvider) Candidates(ctx context.Context, q Query) ([]track.Track, error) {
	limit := limitOr(q, p.config.Limit)

	var (
		entries []lastfm.TopTrack
		err     error
	)
	if q.Kind == KindGenre && strings.TrimSpace(q.Genre) != "" {
		entries, err = p.lastfm.GetTopTracks(ctx, q.Genre, limit)
	} else {
		entries, err = p.lastfm.GetChartTopTracks(ctx, limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get last.fm tracks")
	}

	resolved := make([]*track.Track, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			resolved[i] = p.searchOnSpotify(gctx, entry.Name, entry.Artist)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "resolving last.fm tracks")
	}

	tracks := make([]track.Track, 0, len(resolved))
	for _, t := range resolved {
		if t != nil {
			tracks = append(tracks, *t)
		}
	}

	zlog.Debug().Msgf("last.fm tracks resolved: entries=%d resolved=%d", len(entries), len(tracks))
	return tracks, nil
}

// Name returns the provider name.
func (p *LastFmProvider) Name() string {
	return "lastfm"
}

// searchOnSpotify finds the Spotify track for a Last.fm entry, with caching.
func (p *LastFmProvider) searchOnSpotify(ctx context.Context, trackName, artistName string) *track.Track {
	key := fmt.Sprintf("%s:%s", strings.ToLower(trackName), strings.ToLower(artistName))

	p.cacheMu.RLock()
	if cached, ok := p.searchCache[key]; ok {
		p.cacheMu.RUnlock()
		return cached
	}
	p.cacheMu.RUnlock()

	query := fmt.Sprintf("track:%s artist:%s", trackName, artistName)
	results, err := p.client.Search(ctx, query, 1)
	if err != nil {
		// Transient failures are not cached.
		zlog.Debug().Msgf("spotify search failed: query=%q error=%v", query, err)
		return nil
	}

	var found *track.Track
	if len(results) > 0 {
		found = &results[0]
	}

	p.cacheMu.Lock()
	p.searchCache[key] = found
	p.cacheMu.Unlock()

	return found
}
