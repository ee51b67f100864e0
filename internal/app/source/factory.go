package source

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/fitbox/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
func NewChainFromConfig(cfg *config.Config, client SpotifyClient) (*Chain, error) {
	providers := make(map[Kind][]ProviderWithMetadata)

	for _, kind := range Kinds() {
		pcfgs := cfg.Sources.Providers(string(kind))
		if len(pcfgs) == 0 {
			return nil, errors.Newf("no providers configured for source %s", kind)
		}

		for i, pcfg := range pcfgs {
			zlog.Debug().Msgf("creating provider: source=%s index=%d type=%s", kind, i+1, pcfg.Type)

			provider, err := newProvider(pcfg, client)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to create provider (source %s, index %d, type %s)", kind, i, pcfg.Type)
			}

			displayName := pcfg.DisplayName
			if displayName == "" {
				displayName = provider.Name()
			}
			providers[kind] = append(providers[kind], ProviderWithMetadata{
				Provider:    provider,
				DisplayName: displayName,
			})

			zlog.Info().Msgf("registered provider: source=%s index=%d type=%s display_name=%s", kind, i+1, pcfg.Type, displayName)
		}
	}

	return NewChain(providers), nil
}

func newProvider(pcfg config.ProviderConfig, client SpotifyClient) (Provider, error) {
	switch pcfg.Type {
	case "top_tracks":
		return NewTopTracksProvider(client, pcfg.Settings)
	case "recommendations":
		return NewRecommendationProvider(client, pcfg.Settings)
	case "playlist":
		return NewPlaylistProvider(client, pcfg.Settings)
	case "lastfm":
		return NewLastFmProvider(client, pcfg.Settings)
	default:
		return nil, errors.Newf("unsupported provider type: %s", pcfg.Type)
	}
}

// decodeSettings decodes provider settings into out, applies defaults and validates.
func decodeSettings(settings map[string]any, out any) error {
	if err := mapstructure.Decode(settings, out); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
