// Package spotify provides a client for the Spotify API.
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/boombox/internal/domain/song"
)

// SongIDPrefix marks catalog songs that come from Spotify.
const SongIDPrefix = "spotify:"

// pageLimit is the Spotify API max per page.
const pageLimit = 100

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Market       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, errors.New("spotify credentials are required")
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)

	// Get HTTP client with auto-refresh capability
	httpClient := auth.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return newClient(httpClient, cfg.Market), nil
}

func newClient(httpClient *http.Client, market string, opts ...spotify.ClientOption) *Client {
	if market == "" {
		market = "JP"
	}
	return &Client{
		client:     spotify.New(httpClient, opts...),
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// GetPlaylistSongs returns the playable songs of a playlist, in playlist order.
// Tracks without a preview URL are skipped. limit <= 0 means no limit.
func (c *Client) GetPlaylistSongs(ctx context.Context, playlistURL string, limit int) ([]song.Song, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var songs []song.Song
	offset := 0

	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(ctx, func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(pageLimit),
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
			// Episodes have no Track
			if s, ok := convertSong(item.Track.Track); ok {
				songs = append(songs, s)
			}
			if limit > 0 && len(songs) >= limit {
				return songs, nil
			}
		}

		if len(page.Items) < pageLimit {
			break
		}
		offset += pageLimit
	}

	return songs, nil
}

// convertSong converts a Spotify track with a preview URL to a catalog song.
func convertSong(t *spotify.FullTrack) (song.Song, bool) {
	if t == nil || t.ID == "" || t.PreviewURL == "" {
		return song.Song{}, false
	}

	artists := lo.Map(t.Artists, func(a spotify.SimpleArtist, _ int) string { return a.Name })

	return song.Song{
		ID:       SongIDPrefix + string(t.ID),
		Title:    t.Name,
		Artist:   strings.Join(artists, ", "),
		Duration: time.Duration(t.Duration) * time.Millisecond,
		Source:   t.PreviewURL,
		Glyph:    "♫",
	}, true
}

// retry retries an operation with linear backoff, giving up when ctx is done.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
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
				return errors.Wrap(ctx.Err(), "retry canceled")
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
	// Rate limit errors and server errors are retryable
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
	input = strings.TrimSpace(input)
	if id, ok := strings.CutPrefix(input, "spotify:playlist:"); ok {
		return id
	}

	// https://open.spotify.com/playlist/ID or https://open.spotify.com/intl-XX/playlist/ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	// Assume it's already a playlist ID
	return input
}
