package filter

import (
	"context"

	"github.com/osa030/fitbox/internal/domain/track"
)

type MarketConfig struct {
	Market string `yaml:"market" mapstructure:"market" validate:"omitempty,len=2"`
}

// MarketFilter checks if the track is available in the configured market.
type MarketFilter struct {
	market string
}

// NewMarketFilter creates a new MarketFilter with the specified market.
func NewMarketFilter(market string) *MarketFilter {
	return &MarketFilter{market: market}
}

func (f *MarketFilter) Name() string {
	return "market_filter"
}

func (f *MarketFilter) Description() string {
	return "Drops tracks not playable in the configured market"
}

func (f *MarketFilter) ReturnCodes() []string {
	return []string{"market_restriction"}
}

func (f *MarketFilter) ValidateConfig(settings map[string]any) error {
	var config MarketConfig
	if err := decodeConfig(settings, &config); err != nil {
		return err
	}
	f.market = config.Market
	return nil
}

func (f *MarketFilter) Check(ctx context.Context, t track.Track, kept []track.Track) Result {
	if f.market == "" {
		return Accept()
	}

	if !t.IsAvailableInMarket(f.market) {
		return Reject("market_restriction")
	}
	return Accept()
}

func init() {
	Register("market_filter", func() Filter {
		return &MarketFilter{}
	})
}
