package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/fitbox/internal/domain/track"
	"github.com/osa030/fitbox/internal/infra/config"
)

// Rejection records a track removed from the pool and the filter that removed it.
type Rejection struct {
	Track  track.Track
	Filter string
	Code   string
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain of the enabled filters in name order.
// market_filter defaults its market to the Spotify market.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	chain := NewChain()
	for _, name := range RegisteredNames() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}

		f := registry[name]()
		settings := cfg.GetFilterSettings(name)
		if name == "market_filter" {
			settings = withDefault(settings, "market", cfg.Spotify.Market)
		}
		if err := f.ValidateConfig(settings); err != nil {
			return nil, errors.Wrapf(err, "invalid config for filter %s", name)
		}

		chain.Add(f)
		zlog.Info().Msgf("enabled filter: %s", name)
	}
	return chain, nil
}

func withDefault(settings map[string]any, key string, value any) map[string]any {
	out := make(map[string]any, len(settings)+1)
	for k, v := range settings {
		out[k] = v
	}
	if _, ok := out[key]; !ok {
		out[key] = value
	}
	return out
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence against one track.
// Returns immediately if any filter rejects it.
func (c *Chain) Execute(ctx context.Context, t track.Track, kept []track.Track) (Result, string) {
	for _, f := range c.filters {
		result := f.Check(ctx, t, kept)
		if !result.Accepted {
			return result, f.Name()
		}
	}
	return Accept(), ""
}

// Apply splits pool into kept and rejected tracks, preserving order.
// Each track is checked against the tracks kept before it.
func (c *Chain) Apply(ctx context.Context, pool []track.Track) ([]track.Track, []Rejection) {
	if len(c.filters) == 0 {
		return pool, nil
	}

	kept := make([]track.Track, 0, len(pool))
	var rejected []Rejection
	for _, t := range pool {
		result, name := c.Execute(ctx, t, kept)
		if !result.Accepted {
			zlog.Debug().Msgf("track rejected: id=%s name=%q filter=%s code=%s", t.ID, t.Name, name, result.Code)
			rejected = append(rejected, Rejection{Track: t, Filter: name, Code: result.Code})
			continue
		}
		kept = append(kept, t)
	}
	return kept, rejected
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
