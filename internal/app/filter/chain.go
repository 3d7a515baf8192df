package filter

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/song"
	"github.com/osa030/boombox/internal/infra/config"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// NewChainFromConfig builds a chain of the enabled filters, ordered by name.
// Unknown filter names and invalid settings are errors.
func NewChainFromConfig(filters map[string]config.FilterConfig) (*Chain, error) {
	chain := NewChain()

	names := lo.Keys(filters)
	slices.Sort(names)

	for _, name := range names {
		cfg := filters[name]
		if !cfg.Enabled {
			continue
		}

		factory, ok := registry[name]
		if !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}

		f := factory()
		if err := f.ValidateConfig(cfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
	}

	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the song.
func (c *Chain) Execute(ctx context.Context, s song.Song, kept []song.Song) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, s, kept)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Apply returns the songs every filter accepts, in their original order.
func (c *Chain) Apply(ctx context.Context, songs []song.Song) []song.Song {
	kept := make([]song.Song, 0, len(songs))
	for _, s := range songs {
		result := c.Execute(ctx, s, kept)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: song rejected: song=%s code=%s", s.ID, result.Code)
			continue
		}
		kept = append(kept, s)
	}

	if dropped := len(songs) - len(kept); dropped > 0 {
		zlog.Info().Msgf("filter: %d of %d songs filtered out", dropped, len(songs))
	}
	return kept
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
