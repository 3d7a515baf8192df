package filter

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/song"
)

// ArtistBlockConfig represents the configuration for ArtistBlockFilter.
type ArtistBlockConfig struct {
	Artists []string `mapstructure:"artists" validate:"required,min=1,dive,required"`
}

// ArtistBlockFilter drops songs crediting a blocked artist.
type ArtistBlockFilter struct {
	blocked map[string]struct{}
}

// NewArtistBlockFilter creates a new artist block filter.
func NewArtistBlockFilter() *ArtistBlockFilter {
	return &ArtistBlockFilter{}
}

func (f *ArtistBlockFilter) Name() string {
	return "artist_block_filter"
}

func (f *ArtistBlockFilter) Description() string {
	return "Drops songs crediting any of the listed artists (case-insensitive)"
}

func (f *ArtistBlockFilter) ReturnCodes() []string {
	return []string{"blocked_artist"}
}

func (f *ArtistBlockFilter) ValidateConfig(settings map[string]any) error {
	var config ArtistBlockConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}

	f.blocked = lo.SliceToMap(config.Artists, func(a string) (string, struct{}) {
		return strings.ToLower(strings.TrimSpace(a)), struct{}{}
	})
	return nil
}

func (f *ArtistBlockFilter) Check(_ context.Context, s song.Song, _ []song.Song) Result {
	for _, artist := range strings.Split(s.Artist, ",") {
		if _, ok := f.blocked[strings.ToLower(strings.TrimSpace(artist))]; ok {
			return Reject("blocked_artist")
		}
	}
	return Accept()
}

func init() {
	Register("artist_block_filter", func() Filter {
		return NewArtistBlockFilter()
	})
}
