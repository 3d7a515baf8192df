package catalog

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/song"
	"github.com/osa030/boombox/internal/infra/config"
)

// DefaultGlyph is shown for songs configured without one.
const DefaultGlyph = "♪"

// StaticProvider serves the songs listed in the configuration file.
type StaticProvider struct {
	songs []song.Song
}

// NewStaticProvider creates a provider over configured song entries.
func NewStaticProvider(entries []config.SongConfig) *StaticProvider {
	songs := lo.Map(entries, func(e config.SongConfig, _ int) song.Song {
		glyph := e.Glyph
		if glyph == "" {
			glyph = DefaultGlyph
		}
		return song.Song{
			ID:       e.ID,
			Title:    e.Title,
			Artist:   e.Artist,
			Duration: time.Duration(e.DurationMs) * time.Millisecond,
			Source:   e.Source,
			Glyph:    glyph,
		}
	})
	return &StaticProvider{songs: songs}
}

// Songs returns a copy of the configured songs.
func (p *StaticProvider) Songs(context.Context) ([]song.Song, error) {
	return append([]song.Song(nil), p.songs...), nil
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}
