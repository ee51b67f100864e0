package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tracksResponse = `{
	"tracks": {
		"track": [
			{
				"name": "Track 1",
				"mbid": "mbid1",
				"url": "url1",
				"artist": {"name": "Artist 1", "mbid": "ambid1", "url": "aurl1"},
				"listeners": "1000",
				"playcount": "5000"
			},
			{
				"name": "Track 2",
				"mbid": "mbid2",
				"url": "url2",
				"artist": {"name": "Artist 2", "mbid": "ambid2", "url": "aurl2"},
				"listeners": "500",
				"playcount": "2000"
			},
			{
				"name": "",
				"artist": {"name": "Nameless"}
			}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)
	client.baseURL = server.URL + "/"
	return client
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGetTopTracks(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "tag.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "rock", r.URL.Query().Get("tag"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, tracksResponse)
	})

	ctx := context.Background()
	tracks, err := client.GetTopTracks(ctx, " Rock ", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 2, "entries without a name are dropped")
	assert.Equal(t, TopTrack{Name: "Track 1", Artist: "Artist 1"}, tracks[0])

	tracksCached, err := client.GetTopTracks(ctx, "rock", 5)
	require.NoError(t, err)
	assert.Equal(t, tracks, tracksCached)
	assert.Equal(t, int32(1), calls.Load(), "second call should hit the cache")
}

func TestGetTopTracks_CacheExpires(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, tracksResponse)
	})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := client.GetTopTracks(ctx, "jazz", 10)
	require.NoError(t, err)

	now = now.Add(defaultCacheTTL + time.Second)
	_, err = client.GetTopTracks(ctx, "jazz", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetTopTracks_EmptyTag(t *testing.T) {
	client, err := New(Config{APIKey: "test_key"})
	require.NoError(t, err)

	_, err = client.GetTopTracks(context.Background(), "  ", 10)
	assert.Error(t, err)
}

func TestGetChartTopTracks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chart.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"), "limit is capped")
		fmt.Fprint(w, tracksResponse)
	})

	tracks, err := client.GetChartTopTracks(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 10, "message": "Invalid API key"}`)
	})

	_, err := client.GetTopTracks(context.Background(), "rock", 5)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 10, apiErr.Code)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestHTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "bad gateway")
	})

	_, err := client.GetChartTopTracks(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
