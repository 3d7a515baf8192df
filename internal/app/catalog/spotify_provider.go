package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/boombox/internal/domain/song"
)

type SpotifyProviderConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
	Limit       int    `yaml:"limit" mapstructure:"limit" default:"50" validate:"gte=1,lte=500"`
}

// SpotifyProvider serves the preview clips of a Spotify playlist.
type SpotifyProvider struct {
	spotify SpotifyClient
	config  *SpotifyProviderConfig
}

// NewSpotifyProvider creates a new SpotifyProvider.
func NewSpotifyProvider(spotify SpotifyClient, settings map[string]any) (*SpotifyProvider, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is required")
	}

	var config SpotifyProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("spotify provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("spotify provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	return &SpotifyProvider{
		spotify: spotify,
		config:  &config,
	}, nil
}

// Songs fetches the playlist's songs that carry a preview URL.
func (p *SpotifyProvider) Songs(ctx context.Context) ([]song.Song, error) {
	songs, err := p.spotify.GetPlaylistSongs(ctx, p.config.PlaylistURL, p.config.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist songs")
	}
	return songs, nil
}

// Name returns the provider name.
func (p *SpotifyProvider) Name() string {
	return "spotify"
}
