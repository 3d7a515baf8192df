package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/boombox/internal/domain/song"
)

// DurationLimitConfig represents the configuration for DurationLimitFilter.
type DurationLimitConfig struct {
	MinMinutes float64 `mapstructure:"min_minutes" default:"0" validate:"gte=0"`
	MaxMinutes float64 `mapstructure:"max_minutes" validate:"gte=0"`
}

// DurationLimitFilter checks if a song's nominal duration is within allowed limits.
// Songs of unknown duration are accepted.
type DurationLimitFilter struct {
	config *DurationLimitConfig
}

// NewDurationLimitFilter creates a new duration limit filter.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Drops songs shorter than min_minutes or longer than max_minutes"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{"duration_limit_exceeded"}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}

	// max_minutes 0 means no limit
	if config.MaxMinutes > 0 && config.MinMinutes > config.MaxMinutes {
		return errors.New("min_minutes cannot be greater than max_minutes")
	}

	f.config = &config
	zlog.Debug().Msgf("duration limit filter config: %+v", config)
	return nil
}

func (f *DurationLimitFilter) Check(_ context.Context, s song.Song, _ []song.Song) Result {
	if f.config == nil || s.Duration <= 0 {
		return Accept()
	}

	minutes := s.Duration.Minutes()
	if minutes < f.config.MinMinutes {
		return Reject("duration_limit_exceeded")
	}
	if f.config.MaxMinutes > 0 && minutes > f.config.MaxMinutes {
		return Reject("duration_limit_exceeded")
	}

	return Accept()
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return NewDurationLimitFilter()
	})
}
