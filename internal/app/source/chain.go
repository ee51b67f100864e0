package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/fitbox/internal/domain/track"
)

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain runs the providers configured for a query kind and merges their pools.
type Chain struct {
	providers map[Kind][]ProviderWithMetadata
}

// NewChain creates a new provider chain.
func NewChain(providers map[Kind][]ProviderWithMetadata) *Chain {
	return &Chain{providers: providers}
}

// Candidates collects tracks from every provider for q.Kind, in provider
// order. A track already returned by an earlier provider is dropped; repeats
// inside one provider's result are kept. A failing provider is skipped.
// ErrNoCandidates means at least one provider answered but nothing was found;
// ErrProvidersFailed means no provider answered at all.
func (c *Chain) Candidates(ctx context.Context, q Query) ([]track.Track, error) {
	providers := c.providers[q.Kind]
	if len(providers) == 0 {
		return nil, errors.Wrapf(ErrUnknownKind, "no providers for %q", q.Kind)
	}

	var (
		pool      []track.Track
		seen      = make(map[string]bool)
		succeeded int
		lastErr   error
	)

	for i, pm := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		zlog.Debug().Msgf("trying provider: index=%d total=%d name=%s provider_type=%s",
			i+1, len(providers), pm.DisplayName, pm.Provider.Name())

		candidates, err := pm.Provider.Candidates(ctx, q)
		if err != nil {
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			lastErr = err
			continue
		}
		succeeded++

		added := 0
		own := make(map[string]bool, len(candidates))
		for _, t := range candidates {
			if seen[t.ID] {
				continue
			}
			own[t.ID] = true
			pool = append(pool, t)
			added++
		}
		for id := range own {
			seen[id] = true
		}

		zlog.Info().Msgf("provider returned candidates: provider=%s count=%d added=%d total_so_far=%d",
			pm.DisplayName, len(candidates), added, len(pool))
	}

	if len(pool) == 0 {
		if succeeded == 0 && lastErr != nil {
			return nil, errors.Mark(errors.Wrap(lastErr, "all providers failed"), ErrProvidersFailed)
		}
		return nil, ErrNoCandidates
	}

	return pool, nil
}

// Providers returns the providers configured for kind.
func (c *Chain) Providers(kind Kind) []ProviderWithMetadata {
	return c.providers[kind]
}

// ConfiguredPlaylists returns the fallback playlist URLs of every playlist provider.
func (c *Chain) ConfiguredPlaylists() []string {
	var urls []string
	for _, kind := range Kinds() {
		for _, pm := range c.providers[kind] {
			if pp, ok := pm.Provider.(*PlaylistProvider); ok && pp.PlaylistURL() != "" {
				urls = append(urls, pp.PlaylistURL())
			}
		}
	}
	return urls
}
