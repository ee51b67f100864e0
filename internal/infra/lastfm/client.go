// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultBaseURL  = "https://ws.audioscrobbler.com/2.0/"
	defaultCacheTTL = 30 * time.Minute
	maxLimit        = 100
)

type cacheEntry struct {
	tracks    []TopTrack
	expiresAt time.Time
}

// Client is a Last.fm API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	now        func() time.Time

	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

// Config represents Last.fm client configuration.
type Config struct {
	APIKey   string
	CacheTTL time.Duration
}

// TopTrack is a chart entry; it carries no Spotify identity.
type TopTrack struct {
	Name   string
	Artist string
}

// topTracksResponse is shared by tag.getTopTracks and chart.getTopTracks.
type topTracksResponse struct {
	Tracks struct {
		Track []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"track"`
	} `json:"tracks"`
}

// APIError represents an error response from Last.fm API.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return "last.fm API error " + strconv.Itoa(e.Code) + ": " + e.Message
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   ttl,
		now:        time.Now,
		cache:      make(map[string]cacheEntry),
	}, nil
}

// GetTopTracks retrieves top tracks for a tag from Last.fm.
// Reference: https://www.last.fm/api/show/tag.getTopTracks
func (c *Client) GetTopTracks(ctx context.Context, tagName string, limit int) ([]TopTrack, error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, errors.New("tag name is required")
	}

	params := url.Values{}
	params.Set("method", "tag.getTopTracks")
	params.Set("tag", strings.ToLower(tagName))
	return c.topTracks(ctx, params, limit)
}

// GetChartTopTracks retrieves global top tracks from Last.fm charts.
// Reference: https://www.last.fm/api/show/chart.getTopTracks
func (c *Client) GetChartTopTracks(ctx context.Context, limit int) ([]TopTrack, error) {
	params := url.Values{}
	params.Set("method", "chart.getTopTracks")
	return c.topTracks(ctx, params, limit)
}

func (c *Client) topTracks(ctx context.Context, params url.Values, limit int) ([]TopTrack, error) {
	if limit <= 0 {
		limit = 20
	}
	limit = min(limit, maxLimit)
	params.Set("limit", strconv.Itoa(limit))

	cacheKey := params.Encode()
	if tracks, ok := c.cached(cacheKey); ok {
		zlog.Debug().Msgf("using cached last.fm tracks: %s", cacheKey)
		return tracks, nil
	}

	var response topTracksResponse
	if err := c.call(ctx, params, &response); err != nil {
		return nil, err
	}

	tracks := make([]TopTrack, 0, len(response.Tracks.Track))
	for _, t := range response.Tracks.Track {
		if t.Name == "" || t.Artist.Name == "" {
			continue
		}
		tracks = append(tracks, TopTrack{
			Name:   t.Name,
			Artist: t.Artist.Name,
		})
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = cacheEntry{tracks: tracks, expiresAt: c.now().Add(c.cacheTTL)}
	c.cacheMu.Unlock()
	zlog.Debug().Msgf("cached last.fm tracks: %s (count: %d)", cacheKey, len(tracks))

	return tracks, nil
}

func (c *Client) cached(key string) ([]TopTrack, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.tracks, true
}

// call performs a GET against the API root and decodes the JSON body into out.
func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	// Errors arrive as a JSON body, sometimes with status 200.
	var apiError APIError
	if err := json.Unmarshal(body, &apiError); err == nil && apiError.Code != 0 {
		return &apiError
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Newf("last.fm returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}
