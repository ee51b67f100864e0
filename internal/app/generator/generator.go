// Package generator turns a generation request into a duration-fitted
// selection and saves selections as Spotify playlists.
package generator

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/fitbox/internal/app/filter"
	"github.com/osa030/fitbox/internal/app/fitter"
	"github.com/osa030/fitbox/internal/app/source"
	"github.com/osa030/fitbox/internal/domain/playlist"
	"github.com/osa030/fitbox/internal/domain/track"
	"github.com/osa030/fitbox/internal/infra/config"
)

// ErrUpstream marks failures of Spotify or another remote service.
var ErrUpstream = errors.New("upstream failure")

// CandidateSource fills the candidate pool for a query.
type CandidateSource interface {
	Candidates(ctx context.Context, q source.Query) ([]track.Track, error)
}

// PoolFilter removes unwanted tracks from a pool.
type PoolFilter interface {
	Apply(ctx context.Context, pool []track.Track) ([]track.Track, []filter.Rejection)
}

// Sink writes selections to the music service.
type Sink interface {
	CreatePlaylist(ctx context.Context, name, description string) (*playlist.Playlist, error)
	AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
}

// SpotifyClient is the Spotify surface the generator needs.
type SpotifyClient interface {
	Sink
	GetAvailableGenreSeeds(ctx context.Context) ([]string, error)
}

// Config holds generation settings.
type Config struct {
	Limits           Limits
	DefaultTarget    time.Duration
	DefaultTolerance time.Duration
	MaxCandidates    int
	MaxStates        int
	RegistrySize     int
	NamePrefix       string
}

// ConfigFrom derives the generator settings from the application config.
func ConfigFrom(cfg *config.Config) Config {
	g := cfg.Generation
	minTarget, maxTarget := g.TargetRange()
	return Config{
		Limits: Limits{
			MinTarget:    minTarget,
			MaxTarget:    maxTarget,
			MaxTolerance: g.MaxTolerance(),
		},
		DefaultTarget:    g.DefaultTarget(),
		DefaultTolerance: g.DefaultTolerance(),
		MaxCandidates:    g.MaxCandidates,
		MaxStates:        g.MaxStates,
		RegistrySize:     g.RegistrySize,
		NamePrefix:       g.NamePrefix,
	}
}

// Generation is a stored selection.
type Generation struct {
	ID        string
	Request   Request
	Result    *fitter.Result
	PoolSize  int
	Rejected  int
	CreatedAt time.Time
}

// Generator orchestrates source, filters and fitter.
type Generator struct {
	config   Config
	source   CandidateSource
	filters  PoolFilter
	spotify  SpotifyClient
	registry *Registry
	now      func() time.Time
}

// New creates a new generator.
func New(cfg Config, src CandidateSource, filters PoolFilter, spotify SpotifyClient) *Generator {
	return &Generator{
		config:   cfg,
		source:   src,
		filters:  filters,
		spotify:  spotify,
		registry: NewRegistry(cfg.RegistrySize),
		now:      time.Now,
	}
}

// Config returns the generator settings.
func (g *Generator) Config() Config {
	return g.config
}

// Registry returns the generation store.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// Generate builds and stores a selection for req.
func (g *Generator) Generate(ctx context.Context, req Request) (*Generation, error) {
	if err := req.Validate(g.config.Limits); err != nil {
		return nil, err
	}

	pool, err := g.source.Candidates(ctx, source.Query{
		Kind:        req.Kind,
		Genre:       strings.TrimSpace(req.Genre),
		Mood:        req.Mood,
		PlaylistURL: req.PlaylistURL,
	})
	if err != nil {
		if errors.Is(err, source.ErrNoCandidates) {
			return nil, err
		}
		return nil, errors.Mark(errors.Wrap(err, "failed to collect candidates"), ErrUpstream)
	}

	kept, rejected := g.filters.Apply(ctx, pool)
	if len(kept) == 0 {
		return nil, errors.Wrapf(source.ErrNoCandidates, "all %d candidates were filtered out", len(pool))
	}

	res, err := fitter.FitContext(ctx, kept, req.Target, req.Tolerance,
		fitter.WithMaxCandidates(g.config.MaxCandidates),
		fitter.WithMaxStates(g.config.MaxStates),
	)
	if err != nil {
		if errors.Is(err, fitter.ErrInvalidArgument) {
			return nil, errors.Mark(err, ErrInvalidRequest)
		}
		return nil, errors.Wrap(err, "failed to fit tracks")
	}

	gen := &Generation{
		Request:   req,
		Result:    res,
		PoolSize:  len(pool),
		Rejected:  len(rejected),
		CreatedAt: g.now(),
	}
	g.registry.Put(gen)

	zlog.Info().Msgf("playlist generated: id=%s source=%s pool=%d rejected=%d skipped=%d tracks=%d total=%s target=%s accuracy=%q",
		gen.ID, req.Kind, len(pool), len(rejected), res.Skipped, len(res.Tracks),
		playlist.FormatTrackDuration(res.TotalDuration), playlist.FormatTrackDuration(req.Target), res.Accuracy())
	if res.Truncated {
		zlog.Warn().Msgf("generation hit a search budget: id=%s max_candidates=%d max_states=%d",
			gen.ID, g.config.MaxCandidates, g.config.MaxStates)
	}

	return gen, nil
}

// Save writes a stored generation to Spotify as a new playlist.
// An empty name selects the default name.
func (g *Generator) Save(ctx context.Context, generationID, name string) (*playlist.Playlist, error) {
	gen, err := g.registry.Get(generationID)
	if err != nil {
		return nil, err
	}
	if len(gen.Result.Tracks) == 0 {
		return nil, invalid("generation %s has no tracks to save", generationID)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = playlist.DefaultName(g.config.NamePrefix, gen.Result.TotalDuration)
	}
	description := playlist.DefaultDescription(g.config.NamePrefix, gen.Request.Target)

	created, err := g.spotify.CreatePlaylist(ctx, name, description)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to save playlist"), ErrUpstream)
	}

	if err := g.spotify.AddTracksToPlaylist(ctx, created.ID, gen.Result.TrackURIs()); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to add tracks to playlist %s", created.ID), ErrUpstream)
	}

	created.Tracks = gen.Result.Tracks
	zlog.Info().Msgf("playlist saved: generation=%s playlist=%s name=%q tracks=%d",
		generationID, created.ID, created.Name, len(created.Tracks))

	return created, nil
}

// Genres returns the genres usable for genre sources.
func (g *Generator) Genres(ctx context.Context) ([]string, error) {
	genres, err := g.spotify.GetAvailableGenreSeeds(ctx)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to list genres"), ErrUpstream)
	}
	return genres, nil
}
