package catalog

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/boombox/internal/infra/config"
)

// NewChainFromConfig creates a provider chain from configuration.
// Configured songs come first, followed by remote sources in config order.
// spotify may be nil when no spotify source is configured.
func NewChainFromConfig(cfg *config.Config, spotify SpotifyClient) (*Chain, error) {
	var providers []Provider

	if len(cfg.Catalog.Songs) > 0 {
		providers = append(providers, NewStaticProvider(cfg.Catalog.Songs))
	}

	for i, scfg := range cfg.Catalog.Sources {
		var provider Provider
		var err error
		zlog.Debug().Msgf("catalog: creating source: index=%d type=%s settings=%+v", i+1, scfg.Type, scfg.Settings)
		switch scfg.Type {
		case config.SourceSpotify:
			provider, err = NewSpotifyProvider(spotify, scfg.Settings)

		default:
			return nil, errors.Newf("unsupported catalog source type: %s (source index %d)", scfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create catalog source (index %d, type %s)", i, scfg.Type)
		}

		providers = append(providers, provider)
		zlog.Info().Msgf("catalog: registered source: index=%d type=%s", i+1, scfg.Type)
	}

	if len(providers) == 0 {
		return nil, errors.New("no catalog providers configured")
	}

	return NewChain(providers...), nil
}
