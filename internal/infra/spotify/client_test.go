package spotify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"

	"github.com/osa030/boombox/internal/domain/song"
)

func TestExtractPlaylistID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Spotify URI format",
			input:    "spotify:playlist:37i9dQZF1DXcBWIGoYBM5M",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Spotify URL with query params",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc123",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Localized URL with trailing slash",
			input:    "https://open.spotify.com/intl-ja/playlist/abc123/",
			expected: "abc123",
		},
		{
			name:     "Plain playlist ID",
			input:    "  37i9dQZF1DXcBWIGoYBM5M ",
			expected: "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractPlaylistID(tt.input))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "rate limit error with 429", err: errors.New("Error 429: rate limit exceeded"), expected: true},
		{name: "server error 503", err: errors.New("503 Service Unavailable"), expected: true},
		{name: "client error 400", err: errors.New("400 Bad Request"), expected: false},
		{name: "generic error", err: errors.New("something went wrong"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRetryable(tt.err))
		})
	}
}

func TestRetry(t *testing.T) {
	c := &Client{maxRetries: 3, retryDelay: time.Millisecond}

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := c.retry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("503 Service Unavailable")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent errors", func(t *testing.T) {
		calls := 0
		err := c.retry(context.Background(), func() error {
			calls++
			return errors.New("404 not found")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		err := c.retry(context.Background(), func() error {
			return errors.New("rate limit")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries exceeded")
	})

	t.Run("honours cancellation", func(t *testing.T) {
		slow := &Client{maxRetries: 3, retryDelay: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := slow.retry(ctx, func() error { return errors.New("502 Bad Gateway") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConvertSong(t *testing.T) {
	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:         "track1",
			Name:       "Blue",
			Artists:    []spotify.SimpleArtist{{Name: "A"}, {Name: "B"}},
			Duration:   215000,
			PreviewURL: "https://p.scdn.co/mp3-preview/track1",
		},
	}

	s, ok := convertSong(full)
	require.True(t, ok)
	assert.Equal(t, song.Song{
		ID:       "spotify:track1",
		Title:    "Blue",
		Artist:   "A, B",
		Duration: 215 * time.Second,
		Source:   "https://p.scdn.co/mp3-preview/track1",
		Glyph:    "♫",
	}, s)

	full.PreviewURL = ""
	_, ok = convertSong(full)
	assert.False(t, ok)

	_, ok = convertSong(nil)
	assert.False(t, ok)
}

const playlistItemsJSON = `{
  "href": "",
  "limit": 100,
  "offset": 0,
  "total": 3,
  "items": [
    {"track": {"type": "track", "id": "t1", "name": "One", "duration_ms": 30000,
      "artists": [{"name": "Alpha"}], "preview_url": "https://p.scdn.co/mp3-preview/t1"}},
    {"track": {"type": "track", "id": "t2", "name": "Two", "duration_ms": 30000,
      "artists": [{"name": "Beta"}], "preview_url": null}},
    {"track": {"type": "track", "id": "t3", "name": "Three", "duration_ms": 30000,
      "artists": [{"name": "Gamma"}], "preview_url": "https://p.scdn.co/mp3-preview/t3"}}
  ]
}`

func TestGetPlaylistSongs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(playlistItemsJSON))
	}))
	defer srv.Close()

	c := newClient(srv.Client(), "", spotify.WithBaseURL(srv.URL+"/"))

	songs, err := c.GetPlaylistSongs(context.Background(), "spotify:playlist:pl1", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(gotPath, "playlists/pl1/tracks"), gotPath)
	require.Len(t, songs, 2)
	assert.Equal(t, "spotify:t1", songs[0].ID)
	assert.Equal(t, "Alpha", songs[0].Artist)
	assert.Equal(t, "spotify:t3", songs[1].ID)

	songs, err = c.GetPlaylistSongs(context.Background(), "spotify:playlist:pl1", 1)
	require.NoError(t, err)
	assert.Len(t, songs, 1)

	_, err = c.GetPlaylistSongs(context.Background(), "", 0)
	assert.Error(t, err)
}
