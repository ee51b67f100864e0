package connect

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/fitbox/internal/app/fitter"
	"github.com/osa030/fitbox/internal/app/generator"
	"github.com/osa030/fitbox/internal/app/source"
	"github.com/osa030/fitbox/internal/domain/playlist"
	"github.com/osa030/fitbox/internal/domain/track"
)

var validate = validator.New()

// Largest wire values that still fit in a time.Duration. The validate tags
// below repeat them as literals.
const (
	maxDurationMs      = int64(math.MaxInt64 / int64(time.Millisecond)) // 9223372036854
	maxDurationSeconds = int64(math.MaxInt64 / int64(time.Second))      // 9223372036
	maxDurationMinutes = int64(math.MaxInt64 / int64(time.Minute))      // 153722867
)

// GenerateRequest is the body of a Generate call.
// Zero target and nil tolerance select the configured defaults.
type GenerateRequest struct {
	TargetMinutes    int    `mapstructure:"target_minutes" validate:"gte=0,lte=153722867"`
	ToleranceSeconds *int   `mapstructure:"tolerance_seconds" validate:"omitempty,gte=0,lte=9223372036"`
	Source           string `mapstructure:"source" default:"top_tracks"`
	Genre            string `mapstructure:"genre" validate:"max=100"`
	Mood             string `mapstructure:"mood" default:"balanced"`
	PlaylistURL      string `mapstructure:"playlist_url"`
}

// SaveRequest is the body of a Save call.
type SaveRequest struct {
	GenerationID string `mapstructure:"generation_id" validate:"required"`
	Name         string `mapstructure:"name" validate:"max=100"`
}

// FitRequest is the body of a Fit call.
type FitRequest struct {
	TargetMs    int64      `mapstructure:"target_ms" validate:"gte=0,lte=9223372036854"`
	ToleranceMs int64      `mapstructure:"tolerance_ms" validate:"gte=0,lte=9223372036854"`
	Tracks      []FitTrack `mapstructure:"tracks" validate:"dive"`
}

// FitTrack is one candidate of a Fit call. A track without duration_ms is
// skipped; a negative one is passed on and skipped by the fitter.
type FitTrack struct {
	ID         string   `mapstructure:"id" validate:"required"`
	Name       string   `mapstructure:"name"`
	Artists    []string `mapstructure:"artists"`
	DurationMs *int64   `mapstructure:"duration_ms" validate:"omitempty,gte=-9223372036854,lte=9223372036854"`
	URI        string   `mapstructure:"uri"`
}

// decodeRequest decodes msg into out, applies defaults and validates.
// Errors are marked as invalid requests.
func decodeRequest(msg *structpb.Struct, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(msg.AsMap()); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to decode request"), generator.ErrInvalidRequest)
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to apply defaults")
	}
	if err := validate.Struct(out); err != nil {
		return errors.Mark(errors.Wrap(err, "request validation failed"), generator.ErrInvalidRequest)
	}
	return nil
}

// toGeneratorRequest resolves defaults and enum values against cfg.
func (r *GenerateRequest) toGeneratorRequest(cfg generator.Config) (generator.Request, error) {
	kind, err := source.ParseKind(r.Source)
	if err != nil {
		return generator.Request{}, errors.Mark(err, generator.ErrInvalidRequest)
	}
	mood, err := source.ParseMood(r.Mood)
	if err != nil {
		return generator.Request{}, errors.Mark(err, generator.ErrInvalidRequest)
	}

	target := cfg.DefaultTarget
	if r.TargetMinutes > 0 {
		target = time.Duration(r.TargetMinutes) * time.Minute
	}
	tolerance := cfg.DefaultTolerance
	if r.ToleranceSeconds != nil {
		tolerance = time.Duration(*r.ToleranceSeconds) * time.Second
	}

	return generator.Request{
		Target:      target,
		Tolerance:   tolerance,
		Kind:        kind,
		Genre:       r.Genre,
		Mood:        mood,
		PlaylistURL: r.PlaylistURL,
	}, nil
}

// toTrack converts t; ok is false when the duration is missing.
func (t FitTrack) toTrack() (track.Track, bool) {
	if t.DurationMs == nil {
		return track.Track{}, false
	}
	return track.Track{
		ID:       t.ID,
		Name:     t.Name,
		Artists:  t.Artists,
		Duration: time.Duration(*t.DurationMs) * time.Millisecond,
		URI:      t.URI,
	}, true
}

func trackValue(t track.Track) map[string]any {
	artists := make([]any, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a
	}
	return map[string]any{
		"id":          t.ID,
		"name":        t.Name,
		"artists":     artists,
		"album":       t.Album,
		"duration_ms": t.Duration.Milliseconds(),
		"duration":    playlist.FormatTrackDuration(t.Duration),
		"uri":         t.PlayableURI(),
		"url":         t.URL,
		"explicit":    t.Explicit,
	}
}

func resultValue(res *fitter.Result) map[string]any {
	tracks := make([]any, len(res.Tracks))
	for i, t := range res.Tracks {
		tracks[i] = trackValue(t)
	}
	return map[string]any{
		"tracks":           tracks,
		"total_ms":         res.TotalDuration.Milliseconds(),
		"target_ms":        res.TargetDuration.Milliseconds(),
		"tolerance_ms":     res.Tolerance.Milliseconds(),
		"deviation_ms":     res.Deviation().Milliseconds(),
		"total":            playlist.FormatTotalDuration(res.TotalDuration),
		"accuracy":         string(res.Accuracy()),
		"within_tolerance": res.WithinTolerance(),
		"skipped":          res.Skipped,
		"truncated":        res.Truncated,
	}
}

func generationValue(gen *generator.Generation) map[string]any {
	v := resultValue(gen.Result)
	v["id"] = gen.ID
	v["source"] = string(gen.Request.Kind)
	v["mood"] = string(gen.Request.Mood)
	v["pool_size"] = gen.PoolSize
	v["rejected"] = gen.Rejected
	v["created_at"] = gen.CreatedAt.UTC().Format(time.RFC3339)
	return v
}

func playlistValue(p *playlist.Playlist) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"url":         p.URL,
		"public":      p.Public,
		"track_count": len(p.Tracks),
		"total":       playlist.FormatTotalDuration(p.TotalDuration()),
	}
}

func stringValues[T ~string](in []T) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
