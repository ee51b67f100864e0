package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/fitbox/internal/domain/track"
	"github.com/osa030/fitbox/internal/infra/config"
)

func TestMarketFilter_Check(t *testing.T) {
	notPlayable := false

	tests := []struct {
		name         string
		filterMarket string
		trackMarkets []string
		isPlayable   *bool
		wantAccepted bool
		wantCode     string
	}{
		{
			name:         "track available in market",
			filterMarket: "JP",
			trackMarkets: []string{"JP", "US", "UK"},
			wantAccepted: true,
		},
		{
			name:         "track not available in market",
			filterMarket: "JP",
			trackMarkets: []string{"US", "UK"},
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
		{
			name:         "no market filter",
			filterMarket: "",
			trackMarkets: []string{"US"},
			wantAccepted: true,
		},
		{
			name:         "empty track markets",
			filterMarket: "JP",
			trackMarkets: []string{},
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
		{
			name:         "is_playable wins over markets",
			filterMarket: "US",
			trackMarkets: []string{"US"},
			isPlayable:   &notPlayable,
			wantAccepted: false,
			wantCode:     "market_restriction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter := NewMarketFilter(tt.filterMarket)

			trk := track.Track{
				ID:         "test-track",
				Markets:    tt.trackMarkets,
				IsPlayable: tt.isPlayable,
			}

			result := filter.Check(context.Background(), trk, nil)

			assert.Equal(t, tt.wantAccepted, result.Accepted,
				"MarketFilter.Check() accepted status mismatch")

			if !tt.wantAccepted {
				assert.Equal(t, tt.wantCode, result.Code,
					"MarketFilter.Check() rejection code mismatch")
			}
		})
	}
}

func TestMarketFilter_ValidateConfig(t *testing.T) {
	f := &MarketFilter{}
	require.NoError(t, f.ValidateConfig(map[string]any{"market": "JP"}))
	assert.Equal(t, "JP", f.market)

	assert.Error(t, f.ValidateConfig(map[string]any{"market": "JPN"}))
}

func TestExplicitFilter_Check(t *testing.T) {
	f := &ExplicitFilter{}

	assert.True(t, f.Check(context.Background(), track.Track{ID: "clean"}, nil).Accepted)

	result := f.Check(context.Background(), track.Track{ID: "dirty", Explicit: true}, nil)
	assert.False(t, result.Accepted)
	assert.Equal(t, "explicit_content", result.Code)
}

func TestRegisteredNames(t *testing.T) {
	assert.Equal(t, []string{
		"duplicate_track_filter",
		"duration_limit_filter",
		"explicit_filter",
		"market_filter",
	}, RegisteredNames())

	for name, factory := range GetRegistered() {
		f := factory()
		assert.Equal(t, name, f.Name())
		assert.NotEmpty(t, f.Description())
		assert.NotEmpty(t, f.ReturnCodes())
	}
}

func TestChain_Apply(t *testing.T) {
	chain := NewChain()
	chain.Add(&ExplicitFilter{})
	chain.Add(NewDuplicateTrackFilter())

	pool := []track.Track{
		{ID: "a", Name: "Song A", Artists: []string{"X"}, Duration: 3 * time.Minute},
		{ID: "b", Name: "Song B", Artists: []string{"X"}, Explicit: true},
		{ID: "a", Name: "Song A", Artists: []string{"X"}},
		{ID: "c", Name: "Song A - 2011 Remaster", Artists: []string{"X"}},
		{ID: "d", Name: "Song D", Artists: []string{"Y"}},
	}

	kept, rejected := chain.Apply(context.Background(), pool)

	keptIDs := make([]string, len(kept))
	for i, k := range kept {
		keptIDs[i] = k.ID
	}
	assert.Equal(t, []string{"a", "d"}, keptIDs)

	require.Len(t, rejected, 3)
	assert.Equal(t, "b", rejected[0].Track.ID)
	assert.Equal(t, "explicit_filter", rejected[0].Filter)
	assert.Equal(t, "explicit_content", rejected[0].Code)
	assert.Equal(t, "duplicate_track", rejected[1].Code)
	assert.Equal(t, "c", rejected[2].Track.ID)
}

func TestChain_ApplyEmptyChain(t *testing.T) {
	pool := []track.Track{{ID: "a"}, {ID: "a"}}
	kept, rejected := NewChain().Apply(context.Background(), pool)
	assert.Equal(t, pool, kept)
	assert.Empty(t, rejected)
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := &config.Config{
		Filters: map[string]config.FilterConfig{
			"market_filter":         {Enabled: true},
			"duration_limit_filter": {Enabled: true, Settings: map[string]any{"max_minutes": 8}},
			"explicit_filter":       {Enabled: false},
		},
		Spotify: config.SpotifyConfig{Market: "JP"},
	}

	chain, err := NewChainFromConfig(cfg)
	require.NoError(t, err)

	names := make([]string, 0)
	for _, f := range chain.Filters() {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"duration_limit_filter", "market_filter"}, names)

	market, ok := chain.Filters()[1].(*MarketFilter)
	require.True(t, ok)
	assert.Equal(t, "JP", market.market, "market defaults to the spotify market")
}

func TestNewChainFromConfig_InvalidSettings(t *testing.T) {
	cfg := &config.Config{
		Filters: map[string]config.FilterConfig{
			"duration_limit_filter": {Enabled: true, Settings: map[string]any{"min_minutes": 9, "max_minutes": 3}},
		},
	}

	_, err := NewChainFromConfig(cfg)
	assert.Error(t, err)
}
