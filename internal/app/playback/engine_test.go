package playback

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/boombox/internal/domain/audio"
	"github.com/osa030/boombox/internal/domain/song"
)

// fakeEngine records every Create call and hands out scripted handles.
type fakeEngine struct {
	mu       sync.Mutex
	creates  []createCall
	handles  []*fakeHandle
	failing  map[string]bool
	duration time.Duration
}

type createCall struct {
	source string
	opts   audio.Options
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failing: map[string]bool{}, duration: 3 * time.Minute}
}

func (e *fakeEngine) Create(_ context.Context, source string, opts audio.Options, onStatus audio.StatusFunc) (audio.Handle, *audio.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.creates = append(e.creates, createCall{source: source, opts: opts})
	if e.failing[source] {
		return nil, nil, errors.Newf("cannot decode %s", source)
	}

	h := &fakeHandle{
		source:   source,
		volume:   opts.Volume,
		playing:  opts.Autoplay,
		duration: e.duration,
		onStatus: onStatus,
	}
	e.handles = append(e.handles, h)
	return h, &audio.Status{IsLoaded: true, IsPlaying: opts.Autoplay, Duration: e.duration}, nil
}

func (e *fakeEngine) fail(source string, failing bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failing[source] = failing
}

func (e *fakeEngine) lastHandle() *fakeHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}

func (e *fakeEngine) lastCreate() createCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.creates[len(e.creates)-1]
}

func (e *fakeEngine) createCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.creates)
}

// liveHandles counts handles that were created and never unloaded.
func (e *fakeEngine) liveHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, h := range e.handles {
		if !h.isUnloaded() {
			n++
		}
	}
	return n
}

type fakeHandle struct {
	mu       sync.Mutex
	source   string
	volume   float64
	playing  bool
	position time.Duration
	duration time.Duration
	unloaded bool
	calls    []string
	onStatus audio.StatusFunc
}

func (h *fakeHandle) record(call string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, call)
}

func (h *fakeHandle) Play(context.Context) error {
	h.record("play")
	h.mu.Lock()
	h.playing = true
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Pause(context.Context) error {
	h.record("pause")
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Stop(context.Context) error {
	h.record("stop")
	h.mu.Lock()
	h.playing = false
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Seek(_ context.Context, position time.Duration) error {
	h.record("seek:" + position.String())
	h.mu.Lock()
	h.position = position
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) SetVolume(_ context.Context, volume float64) error {
	h.record("volume")
	h.mu.Lock()
	h.volume = volume
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) Unload(context.Context) error {
	h.record("unload")
	h.mu.Lock()
	h.unloaded = true
	h.mu.Unlock()
	return nil
}

func (h *fakeHandle) isUnloaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unloaded
}

func (h *fakeHandle) callLog() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// emit delivers a status update the way an engine goroutine would.
func (h *fakeHandle) emit(st *audio.Status) {
	h.onStatus(st)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testSongs(ids ...string) []song.Song {
	songs := make([]song.Song, 0, len(ids))
	for _, id := range ids {
		songs = append(songs, song.Song{
			ID:       id,
			Title:    "Song " + id,
			Artist:   "Artist",
			Duration: 3 * time.Minute,
			Source:   id + ".mp3",
		})
	}
	return songs
}

func newTestController(t *testing.T, engine *fakeEngine, songs []song.Song, mutate ...func(*Config)) *Controller {
	t.Helper()

	cfg := Config{
		InitialVolume: DefaultVolume,
		Rand:          rand.New(rand.NewPCG(1, 2)),
		Now:           func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}

	c := NewController(engine, songs, cfg)
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}
