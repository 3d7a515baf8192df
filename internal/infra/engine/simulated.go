package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/boombox/internal/domain/audio"
)

// DefaultSimulatedDuration is used for sources without a known duration.
const DefaultSimulatedDuration = 3 * time.Minute

// Simulated is an engine without audio output. Position advances with the wall clock.
type Simulated struct {
	interval  time.Duration
	durations map[string]time.Duration
	now       func() time.Time
}

// NewSimulated creates a simulated engine reporting progress every interval.
func NewSimulated(interval time.Duration, durations map[string]time.Duration) *Simulated {
	return &Simulated{
		interval:  interval,
		durations: durations,
		now:       time.Now,
	}
}

// Create loads a simulated sound.
func (e *Simulated) Create(ctx context.Context, source string, opts audio.Options, onStatus audio.StatusFunc) (audio.Handle, *audio.Status, error) {
	if source == "" {
		return nil, nil, errors.New("empty source")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "load canceled")
	}

	duration, ok := e.durations[source]
	if !ok || duration <= 0 {
		duration = DefaultSimulatedDuration
	}

	h := &simulatedHandle{
		duration: duration,
		volume:   opts.Volume,
		onStatus: onStatus,
		now:      e.now,
		done:     make(chan struct{}),
	}
	if opts.Autoplay {
		h.playing = true
		h.startedAt = h.now()
	}

	if e.interval > 0 && onStatus != nil {
		go h.run(e.interval)
	}

	h.mu.Lock()
	st := h.statusLocked()
	h.mu.Unlock()
	return h, st, nil
}

type simulatedHandle struct {
	mu        sync.Mutex
	duration  time.Duration
	offset    time.Duration // Position when last paused or seeked
	startedAt time.Time
	playing   bool
	volume    float64
	unloaded  bool
	onStatus  audio.StatusFunc
	now       func() time.Time
	done      chan struct{}
}

func (h *simulatedHandle) Play(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}
	if h.playing {
		return nil
	}
	if h.offset >= h.duration {
		h.offset = 0
	}
	h.playing = true
	h.startedAt = h.now()
	return nil
}

func (h *simulatedHandle) Pause(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}
	h.offset = h.positionLocked()
	h.playing = false
	return nil
}

func (h *simulatedHandle) Stop(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}
	h.offset = 0
	h.playing = false
	return nil
}

func (h *simulatedHandle) Seek(_ context.Context, position time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}
	h.offset = min(max(position, 0), h.duration)
	h.startedAt = h.now()
	return nil
}

func (h *simulatedHandle) SetVolume(_ context.Context, volume float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return ErrUnloaded
	}
	h.volume = volume
	return nil
}

func (h *simulatedHandle) Unload(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded {
		return nil
	}
	h.unloaded = true
	h.playing = false
	close(h.done)
	return nil
}

// run reports progress while playing and the end of the sound once.
func (h *simulatedHandle) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			if st := h.tick(); st != nil {
				h.onStatus(st)
			}
		}
	}
}

func (h *simulatedHandle) tick() *audio.Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.unloaded || !h.playing {
		return nil
	}

	if h.positionLocked() < h.duration {
		return h.statusLocked()
	}

	h.offset = h.duration
	h.playing = false
	st := h.statusLocked()
	st.DidJustFinish = true
	return st
}

func (h *simulatedHandle) positionLocked() time.Duration {
	if !h.playing {
		return h.offset
	}
	return min(h.offset+h.now().Sub(h.startedAt), h.duration)
}

func (h *simulatedHandle) statusLocked() *audio.Status {
	return &audio.Status{
		IsLoaded:  !h.unloaded,
		IsPlaying: h.playing,
		Duration:  h.duration,
		Position:  h.positionLocked(),
	}
}
