// Package engine provides audio engine implementations.
package engine

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/boombox/internal/domain/audio"
	"github.com/osa030/boombox/internal/infra/config"
)

// Errors
var (
	ErrAudioUnavailable  = errors.New("audio output is not available in this build")
	ErrUnloaded          = errors.New("sound is unloaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Settings holds engine settings decoded from the engine config.
type Settings struct {
	ProgressIntervalMs int `mapstructure:"progress_interval_ms" default:"500" validate:"gte=10,lte=10000"`
	SampleRate         int `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferMs           int `mapstructure:"buffer_ms" default:"100" validate:"gte=10,lte=2000"`
	FetchTimeoutMs     int `mapstructure:"fetch_timeout_ms" default:"15000" validate:"gte=100"`
}

// ProgressInterval returns the interval between progress updates.
func (s Settings) ProgressInterval() time.Duration {
	return time.Duration(s.ProgressIntervalMs) * time.Millisecond
}

// DecodeSettings decodes, defaults and validates engine settings.
func DecodeSettings(settings map[string]any) (Settings, error) {
	var s Settings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return Settings{}, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return Settings{}, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(s); err != nil {
		return Settings{}, errors.Wrap(err, "validation failed")
	}
	return s, nil
}

// New creates the engine selected by cfg.
// durations maps song sources to nominal durations for the simulated engine.
func New(cfg config.EngineConfig, durations map[string]time.Duration) (audio.Engine, error) {
	settings, err := DecodeSettings(cfg.Settings)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid settings for engine %s", cfg.Type)
	}
	zlog.Debug().Msgf("engine: creating: type=%s settings=%+v", cfg.Type, settings)

	switch cfg.Type {
	case config.EngineBeep:
		if !AudioAvailable {
			zlog.Warn().Msg("engine: audio output unavailable in this build, falling back to simulated engine")
			return NewSimulated(settings.ProgressInterval(), durations), nil
		}
		return NewBeep(settings), nil
	case config.EngineSimulated:
		return NewSimulated(settings.ProgressInterval(), durations), nil
	default:
		return nil, errors.Newf("unsupported engine type: %s", cfg.Type)
	}
}

// isRemote reports whether source is an http(s) URI.
func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// formatOf returns the lowercase file extension of source without the dot.
// Query strings of remote sources are ignored.
func formatOf(source string) string {
	p := source
	if isRemote(source) {
		if u, err := url.Parse(source); err == nil {
			p = u.Path
		}
	}
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// openSource opens a local file, or fetches a remote source whole into memory.
func openSource(ctx context.Context, client *http.Client, source string) (io.ReadSeekCloser, error) {
	if !isRemote(source) {
		f, err := os.Open(source)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open %s", source)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", source)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("failed to fetch %s: status %d", source, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", source)
	}
	return nopCloser{bytes.NewReader(data)}, nil
}

// nopCloser wraps a bytes.Reader to implement io.ReadSeekCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
