// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/osa030/fitbox/internal/domain/playlist"
	"github.com/osa030/fitbox/internal/domain/track"
)

const (
	maxPageSize      = 50
	maxPlaylistBatch = 100
	maxSeeds         = 5
)

// Scopes lists the authorization scopes fitbox needs.
var Scopes = []string{
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopeUserTopRead,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistModifyPrivate,
}

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	public     bool
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID          string
	ClientSecret      string
	RefreshToken      string
	Market            string
	RequestsPerSecond float64
	// PublicPlaylists makes created playlists public.
	PublicPlaylists bool
}

// TrackAttributes narrows recommendations by audio features.
// Zero values are not sent.
type TrackAttributes struct {
	MinEnergy           float64
	MaxEnergy           float64
	MinValence          float64
	MaxValence          float64
	MaxSpeechiness      float64
	MinInstrumentalness float64
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(Scopes...),
	)

	// The access token is obtained lazily from the refresh token.
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	httpClient := auth.Client(ctx, token)

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		client:     spotify.New(httpClient, spotify.WithRetry(false)),
		market:     market,
		public:     cfg.PublicPlaylists,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Market returns the market used for track lookups.
func (c *Client) Market() string {
	return c.market
}

// Search searches for tracks on Spotify.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	limit = clampLimit(limit, 20)

	var result *spotify.SearchResult
	err := c.retry(ctx, func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
			spotify.Limit(limit),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search")
	}
	if result.Tracks == nil {
		return []track.Track{}, nil
	}

	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		tracks = append(tracks, *c.convertTrack(&result.Tracks.Tracks[i]))
	}

	return tracks, nil
}

// GetTopTracks returns the current user's short-term top tracks.
func (c *Client) GetTopTracks(ctx context.Context, limit int) ([]track.Track, error) {
	limit = clampLimit(limit, maxPageSize)

	var page *spotify.FullTrackPage
	err := c.retry(ctx, func() error {
		p, err := c.client.CurrentUsersTopTracks(ctx,
			spotify.Timerange(spotify.ShortTermRange),
			spotify.Limit(limit),
		)
		if err != nil {
			return err
		}
		page = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top tracks")
	}

	tracks := make([]track.Track, 0, len(page.Tracks))
	for i := range page.Tracks {
		tracks = append(tracks, *c.convertTrack(&page.Tracks[i]))
	}
	return tracks, nil
}

// GetRecommendations returns tracks recommended from seed tracks or genres.
// At most five seeds are sent, tracks first.
func (c *Client) GetRecommendations(ctx context.Context, seedTrackIDs, seedGenres []string, attrs TrackAttributes, limit int) ([]track.Track, error) {
	seeds := buildSeeds(seedTrackIDs, seedGenres)
	if len(seeds.Tracks)+len(seeds.Genres) == 0 {
		return nil, errors.New("at least one seed is required")
	}

	limit = clampLimit(limit, maxPageSize)

	var recs *spotify.Recommendations
	err := c.retry(ctx, func() error {
		r, err := c.client.GetRecommendations(ctx, seeds, attrs.toSpotify(),
			spotify.Limit(limit),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		recs = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recommendations")
	}

	tracks := make([]track.Track, 0, len(recs.Tracks))
	for i := range recs.Tracks {
		tracks = append(tracks, *c.convertSimpleTrack(&recs.Tracks[i]))
	}
	return tracks, nil
}

// GetAvailableGenreSeeds returns the genres usable as recommendation seeds.
func (c *Client) GetAvailableGenreSeeds(ctx context.Context) ([]string, error) {
	var genres []string
	err := c.retry(ctx, func() error {
		g, err := c.client.GetAvailableGenreSeeds(ctx)
		if err != nil {
			return err
		}
		genres = g
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get genre seeds")
	}
	return genres, nil
}

// GetPlaylistTracks retrieves all tracks from a playlist.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var tracks []track.Track
	offset := 0
	limit := maxPlaylistBatch

	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(ctx, func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Episodes have no Track.
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				tracks = append(tracks, *c.convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	return tracks, nil
}

// CheckPlaylistExists checks if a playlist exists without fetching all tracks.
func (c *Client) CheckPlaylistExists(ctx context.Context, playlistURL string) error {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return errors.New("invalid playlist URL")
	}

	err := c.retry(ctx, func() error {
		_, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(1),
			spotify.Offset(0),
			spotify.Market(c.market),
		)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "playlist does not exist or is not accessible")
	}

	return nil
}

// CreatePlaylist creates a new playlist owned by the current user.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*playlist.Playlist, error) {
	var user *spotify.PrivateUser
	err := c.retry(ctx, func() error {
		u, err := c.client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get current user")
	}

	var created *spotify.FullPlaylist
	err = c.retry(ctx, func() error {
		p, err := c.client.CreatePlaylistForUser(ctx, user.ID, name, description, c.public, false)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create playlist")
	}

	return &playlist.Playlist{
		ID:          string(created.ID),
		Name:        created.Name,
		Description: created.Description,
		URL:         GetPlaylistURL(string(created.ID)),
		Public:      c.public,
	}, nil
}

// AddTracksToPlaylist adds tracks to a playlist in order.
// trackIDs can be Spotify IDs, URLs, or URIs.
func (c *Client) AddTracksToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	ids := make([]spotify.ID, len(trackIDs))
	for i, trackID := range trackIDs {
		ids[i] = spotify.ID(extractTrackID(trackID))
	}

	for i := 0; i < len(ids); i += maxPlaylistBatch {
		end := min(i+maxPlaylistBatch, len(ids))
		batch := ids[i:end]

		err := c.retry(ctx, func() error {
			_, err := c.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), batch...)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "failed to add tracks %d-%d to playlist", i, end)
		}
	}

	return nil
}

// GetPlaylistURL returns the Spotify URL for a playlist.
func GetPlaylistURL(playlistID string) string {
	return fmt.Sprintf("https://open.spotify.com/playlist/%s", playlistID)
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// convertTrack converts a Spotify FullTrack to domain Track.
func (c *Client) convertTrack(t *spotify.FullTrack) *track.Track {
	tr := c.convertSimpleTrack(&t.SimpleTrack)

	if len(t.Album.Images) > 0 {
		tr.AlbumArtURL = t.Album.Images[0].URL
	}
	tr.Album = t.Album.Name
	tr.Popularity = int(t.Popularity)
	tr.IsPlayable = t.IsPlayable

	return tr
}

// convertSimpleTrack converts the fields shared by every track object.
func (c *Client) convertSimpleTrack(t *spotify.SimpleTrack) *track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	markets := make([]string, len(t.AvailableMarkets))
	for i, m := range t.AvailableMarkets {
		markets[i] = string(m)
	}
	// Requests carry the market parameter, so Spotify omits the list for
	// tracks it has already relinked into that market.
	if len(markets) == 0 && c.market != "" {
		markets = append(markets, c.market)
	}

	return &track.Track{
		ID:       string(t.ID),
		Name:     t.Name,
		Artists:  artists,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		URI:      string(t.URI),
		URL:      GetTrackURL(string(t.ID)),
		Explicit: t.Explicit,
		Markets:  markets,
	}
}

func (a TrackAttributes) toSpotify() *spotify.TrackAttributes {
	attrs := spotify.NewTrackAttributes()
	if a.MinEnergy > 0 {
		attrs = attrs.MinEnergy(a.MinEnergy)
	}
	if a.MaxEnergy > 0 {
		attrs = attrs.MaxEnergy(a.MaxEnergy)
	}
	if a.MinValence > 0 {
		attrs = attrs.MinValence(a.MinValence)
	}
	if a.MaxValence > 0 {
		attrs = attrs.MaxValence(a.MaxValence)
	}
	if a.MaxSpeechiness > 0 {
		attrs = attrs.MaxSpeechiness(a.MaxSpeechiness)
	}
	if a.MinInstrumentalness > 0 {
		attrs = attrs.MinInstrumentalness(a.MinInstrumentalness)
	}
	return attrs
}

func buildSeeds(trackIDs, genres []string) spotify.Seeds {
	var seeds spotify.Seeds
	for _, id := range trackIDs {
		if len(seeds.Tracks) >= maxSeeds {
			break
		}
		if id = extractTrackID(id); id != "" {
			seeds.Tracks = append(seeds.Tracks, spotify.ID(id))
		}
	}
	for _, g := range genres {
		if len(seeds.Tracks)+len(seeds.Genres) >= maxSeeds {
			break
		}
		if g = strings.TrimSpace(g); g != "" {
			seeds.Genres = append(seeds.Genres, g)
		}
	}
	return seeds
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return min(limit, maxPageSize)
}

// retry retries an operation with linear backoff, waiting on the rate
// limiter before every attempt.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter")
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		return spErr.Status == 429 || spErr.Status >= 500
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	return extractID(input, "playlist")
}

// extractTrackID extracts the track ID from a Spotify track URL or URI.
func extractTrackID(input string) string {
	return extractID(input, "track")
}

// extractID accepts "spotify:<kind>:ID", open.spotify.com URLs (including
// intl-XX paths) or a bare ID.
func extractID(input, kind string) string {
	input = strings.TrimSpace(input)
	if uriPrefix := "spotify:" + kind + ":"; strings.HasPrefix(input, uriPrefix) {
		return strings.TrimPrefix(input, uriPrefix)
	}

	segment := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, segment) {
		parts := strings.Split(input, segment)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
