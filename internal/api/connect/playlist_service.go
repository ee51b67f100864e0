// Package connect provides Connect RPC service implementations.
package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/fitbox/internal/app/fitter"
	"github.com/osa030/fitbox/internal/app/generator"
	"github.com/osa030/fitbox/internal/app/source"
	"github.com/osa030/fitbox/internal/domain/playlist"
	"github.com/osa030/fitbox/internal/domain/track"
	"github.com/osa030/fitbox/internal/infra/config"
)

// PlaylistGenerator is the generator surface used by the service.
type PlaylistGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Generation, error)
	Save(ctx context.Context, generationID, name string) (*playlist.Playlist, error)
	Genres(ctx context.Context) ([]string, error)
	Config() generator.Config
}

// PlaylistService implements the PlaylistService RPC.
type PlaylistService struct {
	generator PlaylistGenerator
	config    *config.Config
}

// NewPlaylistService creates a new PlaylistService.
func NewPlaylistService(gen PlaylistGenerator, cfg *config.Config) *PlaylistService {
	return &PlaylistService{
		generator: gen,
		config:    cfg,
	}
}

// Generate builds a duration-fitted selection and returns it with its id.
func (s *PlaylistService) Generate(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var in GenerateRequest
	if err := decodeRequest(req.Msg, &in); err != nil {
		return nil, s.toConnectError(err, "default_error")
	}

	genReq, err := in.toGeneratorRequest(s.generator.Config())
	if err != nil {
		return nil, s.toConnectError(err, "default_error")
	}

	gen, err := s.generator.Generate(ctx, genReq)
	if err != nil {
		return nil, s.toConnectError(err, "default_error")
	}

	return s.respond(map[string]any{
		"generation": generationValue(gen),
		"message":    s.config.GetMessage("success"),
	})
}

// Save writes a generated selection to Spotify.
func (s *PlaylistService) Save(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var in SaveRequest
	if err := decodeRequest(req.Msg, &in); err != nil {
		return nil, s.toConnectError(err, "save_failed")
	}

	saved, err := s.generator.Save(ctx, in.GenerationID, in.Name)
	if err != nil {
		return nil, s.toConnectError(err, "save_failed")
	}

	return s.respond(map[string]any{
		"playlist": playlistValue(saved),
	})
}

// ListGenres returns the genres, moods and source kinds a client may request.
func (s *PlaylistService) ListGenres(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	genres, err := s.generator.Genres(ctx)
	if err != nil {
		return nil, s.toConnectError(err, "default_error")
	}

	return s.respond(map[string]any{
		"genres":  stringValues(genres),
		"moods":   stringValues(source.Moods()),
		"sources": stringValues(source.Kinds()),
	})
}

// Fit runs the fitter over the tracks in the request without touching Spotify.
func (s *PlaylistService) Fit(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var in FitRequest
	if err := decodeRequest(req.Msg, &in); err != nil {
		return nil, s.toConnectError(err, "default_error")
	}

	tracks := make([]track.Track, 0, len(in.Tracks))
	missing := 0
	for _, t := range in.Tracks {
		tr, ok := t.toTrack()
		if !ok {
			missing++
			continue
		}
		tracks = append(tracks, tr)
	}

	cfg := s.generator.Config()
	res, err := fitter.FitContext(ctx, tracks,
		time.Duration(in.TargetMs)*time.Millisecond,
		time.Duration(in.ToleranceMs)*time.Millisecond,
		fitter.WithMaxCandidates(cfg.MaxCandidates),
		fitter.WithMaxStates(cfg.MaxStates),
	)
	if err != nil {
		return nil, s.toConnectError(err, "default_error")
	}
	res.Skipped += missing

	return s.respond(map[string]any{
		"selection": resultValue(res),
	})
}

func (s *PlaylistService) respond(body map[string]any) (*connect.Response[structpb.Struct], error) {
	msg, err := structpb.NewStruct(body)
	if err != nil {
		return nil, s.toConnectError(errors.Wrap(err, "failed to encode response"), "default_error")
	}
	return connect.NewResponse(msg), nil
}

// toConnectError maps err to a Connect error carrying a configured message.
// upstreamCode names the message used for upstream failures.
func (s *PlaylistService) toConnectError(err error, upstreamCode string) error {
	switch {
	case errors.Is(err, generator.ErrInvalidRequest), errors.Is(err, fitter.ErrInvalidArgument):
		zlog.Warn().Msgf("invalid request: %v", err)
		return connect.NewError(connect.CodeInvalidArgument,
			errors.Newf("%s: %s", s.config.GetMessage("invalid_request"), errors.UnwrapAll(err).Error()))
	case errors.Is(err, generator.ErrGenerationNotFound):
		zlog.Warn().Msgf("generation not found: %v", err)
		return connect.NewError(connect.CodeNotFound, errors.New(s.config.GetMessage("not_found")))
	case errors.Is(err, source.ErrNoCandidates):
		zlog.Warn().Msgf("no candidates: %v", err)
		return connect.NewError(connect.CodeFailedPrecondition, errors.New(s.config.GetMessage("no_candidates")))
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, generator.ErrUpstream):
		zlog.Error().Msgf("upstream failure: %+v", err)
		return connect.NewError(connect.CodeUnavailable, errors.New(s.config.GetMessage(upstreamCode)))
	default:
		zlog.Error().Msgf("internal error: %+v", err)
		return connect.NewError(connect.CodeInternal, errors.New(s.config.GetMessage("default_error")))
	}
}
