//go:build (linux && cgo) || windows || darwin

package engine

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/boombox/internal/domain/audio"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// Beep plays sounds through the system speaker using beep.
type Beep struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate
	bufferSize  time.Duration
	interval    time.Duration
	client      *http.Client
}

// NewBeep creates a beep engine. The speaker is initialized on the first load.
func NewBeep(settings Settings) *Beep {
	return &Beep{
		sampleRate: beep.SampleRate(settings.SampleRate),
		bufferSize: time.Duration(settings.BufferMs) * time.Millisecond,
		interval:   settings.ProgressInterval(),
		client:     &http.Client{Timeout: time.Duration(settings.FetchTimeoutMs) * time.Millisecond},
	}
}

// initSpeaker initializes the speaker if not already done.
func (e *Beep) initSpeaker() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	if err := speaker.Init(e.sampleRate, e.sampleRate.N(e.bufferSize)); err != nil {
		return errors.Wrap(err, "failed to initialize speaker")
	}
	e.initialized = true
	return nil
}

// Create decodes source and registers it with the speaker, paused unless opts.Autoplay is set.
func (e *Beep) Create(ctx context.Context, source string, opts audio.Options, onStatus audio.StatusFunc) (audio.Handle, *audio.Status, error) {
	rc, err := openSource(ctx, e.client, source)
	if err != nil {
		return nil, nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	// Preview URLs carry no extension and are served as MP3
	switch formatOf(source) {
	case "mp3", "":
		streamer, format, err = mp3.Decode(rc)
	case "wav":
		streamer, format, err = wav.Decode(rc)
	default:
		rc.Close()
		return nil, nil, errors.Wrapf(ErrUnsupportedFormat, "source %s", source)
	}
	if err != nil {
		rc.Close()
		return nil, nil, errors.Wrapf(err, "failed to decode %s", source)
	}

	if err := e.initSpeaker(); err != nil {
		streamer.Close()
		return nil, nil, err
	}

	h := &beepHandle{
		streamer: streamer,
		format:   format,
		onStatus: onStatus,
		done:     make(chan struct{}),
	}
	// Resample if needed to match speaker sample rate
	h.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, e.sampleRate, streamer),
		Paused:   !opts.Autoplay,
	}
	h.volume = &effects.Volume{Streamer: h.ctrl, Base: 2}
	applyVolume(h.volume, opts.Volume)

	h.enqueue()

	if e.interval > 0 && onStatus != nil {
		go h.run(e.interval)
	}

	zlog.Debug().Msgf("engine: beep loaded: source=%s rate=%d channels=%d", source, format.SampleRate, format.NumChannels)

	return h, h.status(false), nil
}

type beepHandle struct {
	mu sync.Mutex

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	finished bool
	unloaded bool
	onStatus audio.StatusFunc
	done     chan struct{}
}

// enqueue hands the stream to the speaker followed by an end-of-stream callback.
func (h *beepHandle) enqueue() {
	speaker.Play(beep.Seq(h.volume, beep.Callback(func() {
		// Runs on the speaker goroutine; reporting must not block it
		go h.finish()
	})))
}

func (h *beepHandle) finish() {
	h.mu.Lock()
	if h.unloaded || h.finished {
		h.mu.Unlock()
		return
	}
	h.finished = true
	h.mu.Unlock()

	if h.onStatus != nil {
		h.onStatus(h.status(true))
	}
}

func (h *beepHandle) Play(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}

	if h.finished {
		speaker.Lock()
		err := h.streamer.Seek(0)
		h.ctrl.Paused = false
		speaker.Unlock()
		if err != nil {
			return errors.Wrap(err, "failed to rewind")
		}
		h.finished = false
		h.enqueue()
		return nil
	}

	speaker.Lock()
	h.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (h *beepHandle) Pause(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}

	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

func (h *beepHandle) Stop(ctx context.Context) error {
	if err := h.Pause(ctx); err != nil {
		return err
	}
	return h.Seek(ctx, 0)
}

func (h *beepHandle) Seek(_ context.Context, position time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}

	speaker.Lock()
	defer speaker.Unlock()

	samples := min(max(h.format.SampleRate.N(position), 0), h.streamer.Len())
	if err := h.streamer.Seek(samples); err != nil {
		return errors.Wrapf(err, "failed to seek to %v", position)
	}
	return nil
}

func (h *beepHandle) SetVolume(_ context.Context, volume float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}

	speaker.Lock()
	applyVolume(h.volume, volume)
	speaker.Unlock()
	return nil
}

func (h *beepHandle) Unload(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return nil
	}
	h.unloaded = true
	close(h.done)

	// A nil streamer ends the sequence on the next speaker pull
	speaker.Lock()
	h.ctrl.Streamer = nil
	speaker.Unlock()

	if err := h.streamer.Close(); err != nil {
		return errors.Wrap(err, "failed to close stream")
	}
	return nil
}

// run reports progress while playing.
func (h *beepHandle) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.mu.Lock()
			active := !h.unloaded && !h.finished
			h.mu.Unlock()
			if !active {
				continue
			}
			st := h.status(false)
			if st.IsPlaying {
				h.onStatus(st)
			}
		}
	}
}

func (h *beepHandle) status(finished bool) *audio.Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return &audio.Status{}
	}

	speaker.Lock()
	defer speaker.Unlock()

	return &audio.Status{
		IsLoaded:      true,
		IsPlaying:     !h.ctrl.Paused && !h.finished,
		DidJustFinish: finished,
		Duration:      h.format.SampleRate.D(h.streamer.Len()),
		Position:      h.format.SampleRate.D(h.streamer.Position()),
	}
}

// applyVolume maps a linear volume in [0,1] onto the exponential volume effect.
func applyVolume(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(math.Min(level, 1))
}
