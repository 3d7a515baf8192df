// Package catalog assembles the song catalog from configured providers.
package catalog

import (
	"context"

	"github.com/osa030/boombox/internal/domain/song"
)

// Provider is the interface for catalog song providers.
type Provider interface {
	// Songs returns the songs offered by the provider, in display order.
	Songs(ctx context.Context) ([]song.Song, error)

	// Name returns the provider name (used in config).
	Name() string
}

// SpotifyClient defines the Spotify operations needed by the catalog.
type SpotifyClient interface {
	GetPlaylistSongs(ctx context.Context, playlistURL string, limit int) ([]song.Song, error)
}
