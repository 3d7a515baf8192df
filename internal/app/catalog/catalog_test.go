package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/boombox/internal/domain/song"
	"github.com/osa030/boombox/internal/infra/config"
)

type mockProvider struct {
	name  string
	songs []song.Song
	err   error
}

func (m *mockProvider) Songs(context.Context) ([]song.Song, error) {
	return m.songs, m.err
}

func (m *mockProvider) Name() string {
	return m.name
}

type mockSpotifyClient struct {
	gotURL   string
	gotLimit int
	songs    []song.Song
	err      error
}

func (m *mockSpotifyClient) GetPlaylistSongs(_ context.Context, playlistURL string, limit int) ([]song.Song, error) {
	m.gotURL = playlistURL
	m.gotLimit = limit
	return m.songs, m.err
}

func TestChain_Songs(t *testing.T) {
	a := song.Song{ID: "a", Title: "Alpha"}
	b := song.Song{ID: "b", Title: "Beta"}
	aDup := song.Song{ID: "a", Title: "Alpha (remote)"}

	tests := []struct {
		name      string
		providers []Provider
		expected  []song.Song
		wantErr   bool
	}{
		{
			name: "merges in provider order",
			providers: []Provider{
				&mockProvider{name: "first", songs: []song.Song{a}},
				&mockProvider{name: "second", songs: []song.Song{b}},
			},
			expected: []song.Song{a, b},
		},
		{
			name: "first provider wins duplicate ids",
			providers: []Provider{
				&mockProvider{name: "first", songs: []song.Song{a}},
				&mockProvider{name: "second", songs: []song.Song{aDup, b}},
			},
			expected: []song.Song{a, b},
		},
		{
			name: "skips failing provider",
			providers: []Provider{
				&mockProvider{name: "broken", err: errors.New("boom")},
				&mockProvider{name: "second", songs: []song.Song{b}},
			},
			expected: []song.Song{b},
		},
		{
			name: "all providers failing is an error",
			providers: []Provider{
				&mockProvider{name: "broken", err: errors.New("boom")},
			},
			wantErr: true,
		},
		{
			name:      "no providers yields an empty catalog",
			providers: nil,
			expected:  []song.Song{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewChain(tt.providers...).Songs(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider([]config.SongConfig{
		{ID: "a", Title: "Alpha", Artist: "X", DurationMs: 1500, Source: "a.mp3", Glyph: "★"},
		{ID: "b", Title: "Beta", Source: "b.wav"},
	})

	songs, err := p.Songs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []song.Song{
		{ID: "a", Title: "Alpha", Artist: "X", Duration: 1500 * time.Millisecond, Source: "a.mp3", Glyph: "★"},
		{ID: "b", Title: "Beta", Source: "b.wav", Glyph: DefaultGlyph},
	}, songs)
	assert.Equal(t, "static", p.Name())

	// Callers cannot mutate the provider
	songs[0].Title = "changed"
	again, _ := p.Songs(context.Background())
	assert.Equal(t, "Alpha", again[0].Title)
}

func TestNewSpotifyProvider(t *testing.T) {
	tests := []struct {
		name          string
		settings      map[string]any
		expectedLimit int
		wantErr       bool
	}{
		{
			name:          "defaults limit",
			settings:      map[string]any{"playlist_url": "spotify:playlist:abc"},
			expectedLimit: 50,
		},
		{
			name:          "explicit limit",
			settings:      map[string]any{"playlist_url": "spotify:playlist:abc", "limit": 10},
			expectedLimit: 10,
		},
		{
			name:     "missing playlist url",
			settings: map[string]any{"limit": 10},
			wantErr:  true,
		},
		{
			name:     "limit out of range",
			settings: map[string]any{"playlist_url": "spotify:playlist:abc", "limit": 1000},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSpotifyClient{songs: []song.Song{{ID: "spotify:t1"}}}
			p, err := NewSpotifyProvider(client, tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			songs, err := p.Songs(context.Background())
			require.NoError(t, err)
			assert.Len(t, songs, 1)
			assert.Equal(t, "spotify:playlist:abc", client.gotURL)
			assert.Equal(t, tt.expectedLimit, client.gotLimit)
		})
	}

	_, err := NewSpotifyProvider(nil, map[string]any{"playlist_url": "x"})
	assert.Error(t, err)
}

func TestNewChainFromConfig(t *testing.T) {
	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			Songs: []config.SongConfig{{ID: "local", Title: "Local", Source: "local.mp3"}},
			Sources: []config.SourceConfig{
				{Type: config.SourceSpotify, Settings: map[string]any{"playlist_url": "spotify:playlist:abc"}},
			},
		},
	}
	client := &mockSpotifyClient{songs: []song.Song{{ID: "spotify:t1", Title: "Remote"}}}

	chain, err := NewChainFromConfig(cfg, client)
	require.NoError(t, err)

	songs, err := chain.Songs(context.Background())
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "local", songs[0].ID)
	assert.Equal(t, "spotify:t1", songs[1].ID)

	t.Run("unknown source type", func(t *testing.T) {
		bad := &config.Config{Catalog: config.CatalogConfig{
			Sources: []config.SourceConfig{{Type: "cassette", Settings: map[string]any{}}},
		}}
		_, err := NewChainFromConfig(bad, client)
		assert.Error(t, err)
	})

	t.Run("empty configuration", func(t *testing.T) {
		_, err := NewChainFromConfig(&config.Config{}, nil)
		assert.Error(t, err)
	})
}
