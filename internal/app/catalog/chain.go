package catalog

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/song"
)

// Chain queries every provider in order and merges their songs.
type Chain struct {
	providers []Provider
}

// NewChain creates a new provider chain.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Songs returns the merged catalog. The first provider to offer a song ID wins.
// Failing providers are skipped; an error is returned only when nothing could be loaded.
func (c *Chain) Songs(ctx context.Context) ([]song.Song, error) {
	var (
		all    []song.Song
		failed int
	)

	for i, p := range c.providers {
		zlog.Debug().Msgf("catalog: querying provider: index=%d total=%d provider=%s",
			i+1, len(c.providers), p.Name())

		songs, err := p.Songs(ctx)
		if err != nil {
			failed++
			zlog.Warn().Msgf("catalog: provider failed, skipping: provider=%s error=%v", p.Name(), err)
			continue
		}

		all = append(all, songs...)
		zlog.Info().Msgf("catalog: provider returned songs: provider=%s count=%d", p.Name(), len(songs))
	}

	all = lo.UniqBy(all, func(s song.Song) string { return s.ID })

	if len(all) == 0 && failed > 0 {
		return nil, errors.Newf("all %d catalog providers failed", failed)
	}
	return all, nil
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return "chain"
}
