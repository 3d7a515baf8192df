package playback

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/audio"
	"github.com/osa030/boombox/internal/domain/playlist"
	"github.com/osa030/boombox/internal/domain/song"
)

// Errors
var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrSongNotFound     = errors.New("song not found")
	ErrBlankName        = errors.New("playlist name is blank")
	ErrEmptySelection   = errors.New("no songs selected")
	ErrDefaultPlaylist  = errors.New("default playlist cannot be deleted")
	ErrNoPendingDelete  = errors.New("no playlist pending deletion")
)

// Defaults applied by NewController when the config leaves a field unset.
const (
	DefaultPlaylistName     = "All songs"
	DefaultVolume           = 0.8
	DefaultRestartThreshold = 3 * time.Second
	DefaultEventBufferSize  = 32
)

// Config holds controller configuration.
type Config struct {
	DefaultPlaylistName string        // Name of the catalog playlist
	InitialVolume       float64       // Volume at startup, clamped to [0,1]
	RestartThreshold    time.Duration // Previous restarts the song at or above this position
	AutoAdvance         bool          // Load the next song when the engine reports the end
	EventBufferSize     int           // Capacity of the event channel
	Rand                *rand.Rand    // Shuffle source; seeded randomly when nil
	Now                 func() time.Time
}

// Controller is the single source of truth for what is loaded, whether it plays and
// what comes next. It exclusively owns the audio engine handle.
type Controller struct {
	// opMu serializes intents the way a UI event loop would. It is held across
	// engine calls; mu is never held across engine calls.
	opMu sync.Mutex
	mu   sync.RWMutex

	engine     audio.Engine
	handle     audio.Handle
	generation uint64 // Bumped on every release/load; tags status callbacks

	// Catalog and playlists
	catalog   []song.Song
	songsByID map[string]song.Song
	playlists []playlist.Playlist

	// Navigation
	current  playlist.Playlist
	index    int
	shuffle  bool
	order    []int // Shuffle permutation of playlist indices
	orderPos int   // Cursor into order

	// Mirrored engine status
	loaded    bool
	playing   bool
	buffering bool
	duration  time.Duration
	position  time.Duration
	volume    float64

	// Drafts
	selected      []song.Song
	pendingDelete *playlist.Playlist

	config Config

	eventCh chan Event
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller over the given catalog.
// The default playlist holds the whole catalog in the given order and starts as current.
func NewController(engine audio.Engine, catalog []song.Song, cfg Config) *Controller {
	if cfg.DefaultPlaylistName == "" {
		cfg.DefaultPlaylistName = DefaultPlaylistName
	}
	if cfg.RestartThreshold <= 0 {
		cfg.RestartThreshold = DefaultRestartThreshold
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = DefaultEventBufferSize
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	songs := make([]song.Song, len(catalog))
	copy(songs, catalog)

	defaultPlaylist := playlist.Playlist{
		ID:        playlist.DefaultID,
		Name:      cfg.DefaultPlaylistName,
		Songs:     songs,
		CreatedAt: cfg.Now(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		engine:    engine,
		catalog:   songs,
		songsByID: lo.KeyBy(songs, func(s song.Song) string { return s.ID }),
		playlists: []playlist.Playlist{defaultPlaylist},
		current:   defaultPlaylist,
		volume:    clampVolume(cfg.InitialVolume),
		config:    cfg,
		eventCh:   make(chan Event, cfg.EventBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Preload loads the current song without playing it, so the first Play starts quickly.
func (c *Controller) Preload(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.ctx.Err() != nil || c.isLoaded() {
		return
	}

	c.mu.RLock()
	pl, index := c.current, c.index
	c.mu.RUnlock()

	c.loadLocked(ctx, pl, index, false)
}

// Play starts or resumes playback, loading the current song first when nothing is loaded.
func (c *Controller) Play(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.ctx.Err() != nil {
		return
	}

	if !c.isLoaded() {
		c.mu.RLock()
		pl, index := c.current, c.index
		c.mu.RUnlock()
		c.loadLocked(ctx, pl, index, false)
	}

	handle := c.heldHandle()
	if handle == nil {
		return
	}

	if err := handle.Play(ctx); err != nil {
		zlog.Error().Err(err).Msg("playback: play failed")
		return
	}

	c.mu.Lock()
	c.playing = true
	c.sendEventLocked(EventTransportChanged)
	c.mu.Unlock()
}

// Pause pauses playback. No-op when nothing is held.
func (c *Controller) Pause(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	handle := c.heldHandle()
	if handle == nil {
		return
	}

	if err := handle.Pause(ctx); err != nil {
		zlog.Error().Err(err).Msg("playback: pause failed")
		return
	}

	c.mu.Lock()
	c.playing = false
	c.sendEventLocked(EventTransportChanged)
	c.mu.Unlock()
}

// Stop stops playback and rewinds to the start. No-op when nothing is loaded.
func (c *Controller) Stop(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if !c.isLoaded() {
		return
	}
	handle := c.heldHandle()
	if handle == nil {
		return
	}

	if err := handle.Stop(ctx); err != nil {
		zlog.Error().Err(err).Msg("playback: stop failed")
		return
	}
	if err := handle.Seek(ctx, 0); err != nil {
		zlog.Error().Err(err).Msg("playback: rewind after stop failed")
	}

	c.mu.Lock()
	c.playing = false
	c.position = 0
	c.sendEventLocked(EventTransportChanged)
	c.mu.Unlock()
}

// Seek moves the playback position, clamped to [0, duration]. No-op when nothing is loaded.
func (c *Controller) Seek(ctx context.Context, position time.Duration) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	handle, loaded, duration := c.handle, c.loaded, c.duration
	c.mu.RUnlock()

	if !loaded || handle == nil {
		return
	}

	position = max(position, 0)
	if duration > 0 {
		position = min(position, duration)
	}

	if err := handle.Seek(ctx, position); err != nil {
		zlog.Error().Err(err).Msgf("playback: seek failed: position=%v", position)
		return
	}

	c.mu.Lock()
	c.position = position
	c.sendEventLocked(EventTransportChanged)
	c.mu.Unlock()
}

// Next loads and plays the following song, wrapping at the end of the playlist.
// With shuffle enabled the shuffle order is followed instead of the playlist order.
func (c *Controller) Next(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.ctx.Err() != nil {
		return
	}
	c.nextLocked(ctx)
}

func (c *Controller) nextLocked(ctx context.Context) {
	c.mu.RLock()
	pl := c.current
	index, ok := c.stepLocked(1)
	c.mu.RUnlock()

	if !ok {
		return
	}
	c.loadLocked(ctx, pl, index, true)
}

// Previous goes back one song when the position is below the restart threshold.
// Otherwise it restarts the current song, keeping it playing or paused as it was.
func (c *Controller) Previous(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.ctx.Err() != nil {
		return
	}

	c.mu.RLock()
	pl := c.current
	position, playing, handle := c.position, c.playing, c.handle
	index, ok := c.stepLocked(-1)
	c.mu.RUnlock()

	if position < c.config.RestartThreshold {
		if !ok {
			return
		}
		c.loadLocked(ctx, pl, index, true)
		return
	}

	if handle == nil {
		return
	}

	if err := handle.Seek(ctx, 0); err != nil {
		zlog.Error().Err(err).Msg("playback: restart failed")
		return
	}
	if playing {
		if err := handle.Play(ctx); err != nil {
			zlog.Error().Err(err).Msg("playback: resume after restart failed")
		}
	}

	c.mu.Lock()
	c.position = 0
	c.sendEventLocked(EventTransportChanged)
	c.mu.Unlock()
}

// ChangePlaylist makes the given playlist current and loads its first song without playing.
func (c *Controller) ChangePlaylist(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	pl, ok := c.findPlaylist(id)
	if !ok {
		return ErrPlaylistNotFound
	}

	c.changePlaylistLocked(ctx, pl)
	return nil
}

// changePlaylistLocked must be called with opMu held.
func (c *Controller) changePlaylistLocked(ctx context.Context, pl playlist.Playlist) {
	c.releaseLocked(ctx)

	c.mu.Lock()
	c.current = pl
	c.index = 0
	if c.shuffle {
		c.order = c.newShuffleOrderLocked(pl.Len())
		c.syncShuffleCursorLocked()
	}
	c.sendEventLocked(EventPlaylistChanged)
	c.mu.Unlock()

	zlog.Info().Msgf("playback: playlist changed: id=%s name=%s songs=%d", pl.ID, pl.Name, pl.Len())

	c.loadLocked(ctx, pl, 0, false)
}

// ToggleShuffle flips shuffle mode and returns the new flag.
// Enabling draws a fresh permutation; disabling discards it.
func (c *Controller) ToggleShuffle() bool {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.shuffle = !c.shuffle
	if c.shuffle {
		c.order = c.newShuffleOrderLocked(c.current.Len())
		c.syncShuffleCursorLocked()
	} else {
		c.order = nil
		c.orderPos = 0
	}

	c.sendEventLocked(EventShuffleChanged)
	return c.shuffle
}

// ChangeVolume adds delta to the volume, rounds to two decimals and clamps to [0,1].
// The held resource, if any, follows the new volume. A non-finite delta is ignored.
func (c *Controller) ChangeVolume(ctx context.Context, delta float64) float64 {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		zlog.Warn().Msgf("playback: ignoring volume delta: delta=%v", delta)
		c.mu.RLock()
		defer c.mu.RUnlock()
		return c.volume
	}

	c.mu.Lock()
	c.volume = clampVolume(roundVolume(c.volume + delta))
	volume, handle := c.volume, c.handle
	c.sendEventLocked(EventVolumeChanged)
	c.mu.Unlock()

	if handle != nil {
		if err := handle.SetVolume(ctx, volume); err != nil {
			zlog.Error().Err(err).Msgf("playback: set volume failed: volume=%.2f", volume)
		}
	}
	return volume
}

// Close releases the engine resource and closes the event channel.
func (c *Controller) Close(ctx context.Context) {
	c.cancel()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.releaseLocked(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
}

// onEngineStatus mirrors an engine status update into controller state.
// Updates tagged with a superseded generation are dropped.
func (c *Controller) onEngineStatus(generation uint64, status *audio.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		zlog.Debug().Msgf("playback: dropping stale status: generation=%d current=%d", generation, c.generation)
		return
	}
	if status == nil || c.closed {
		return
	}

	if !status.IsLoaded {
		c.loaded = false
		c.playing = false
		c.buffering = false
		c.sendEventLocked(EventStatusChanged)
		return
	}

	c.loaded = true
	c.playing = status.IsPlaying
	c.buffering = status.IsBuffering
	c.duration = status.Duration
	c.position = status.Position
	c.sendEventLocked(EventStatusChanged)

	if status.DidJustFinish && c.config.AutoAdvance {
		go c.advanceFrom(generation)
	}
}

// advanceFrom moves to the next song unless the finished resource was superseded meanwhile.
func (c *Controller) advanceFrom(generation uint64) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.ctx.Err() != nil {
		return
	}

	c.mu.RLock()
	current := c.generation
	c.mu.RUnlock()
	if current != generation {
		return
	}

	zlog.Debug().Msg("playback: song finished, advancing")
	c.nextLocked(c.ctx)
}

// loadLocked releases the held resource, then loads pl.Songs[index].
// On failure the controller stays unloaded and the current index does not move.
// Must be called with opMu held.
func (c *Controller) loadLocked(ctx context.Context, pl playlist.Playlist, index int, autoplay bool) bool {
	c.releaseLocked(ctx)

	s := pl.Song(index)
	if s == nil {
		return false
	}

	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.buffering = true
	volume := c.volume
	c.sendEventLocked(EventSongLoading)
	c.mu.Unlock()

	zlog.Debug().Msgf("playback: loading song: playlist=%s index=%d song=%s autoplay=%v",
		pl.ID, index, s.ID, autoplay)

	handle, status, err := c.engine.Create(ctx, s.Source,
		audio.Options{Volume: volume, Autoplay: autoplay},
		func(st *audio.Status) { c.onEngineStatus(generation, st) },
	)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.buffering = false
	if err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to load song: song=%s source=%s", s.ID, s.Source)
		c.loaded = false
		c.playing = false
		c.sendEventLocked(EventLoadFailed)
		return false
	}

	c.handle = handle
	c.loaded = true
	c.playing = autoplay
	c.current = pl
	c.index = index
	c.position = 0
	c.duration = s.Duration
	if status != nil && status.IsLoaded {
		c.playing = status.IsPlaying
		c.buffering = status.IsBuffering
		c.duration = status.Duration
		c.position = status.Position
	}
	c.syncShuffleCursorLocked()

	zlog.Info().Msgf("playback: song loaded: song=%s title=%q duration=%v",
		s.ID, s.Title, c.duration)

	c.sendEventLocked(EventSongLoaded)
	return true
}

// releaseLocked stops and unloads the held resource. Failures are logged, never returned.
// Must be called with opMu held.
func (c *Controller) releaseLocked(ctx context.Context) {
	c.mu.Lock()
	handle := c.handle
	wasLoaded := c.loaded
	c.handle = nil
	c.generation++
	c.loaded = false
	c.playing = false
	c.buffering = false
	c.position = 0
	c.duration = 0
	if handle != nil || wasLoaded {
		c.sendEventLocked(EventUnloaded)
	}
	c.mu.Unlock()

	if handle == nil {
		return
	}

	if err := handle.Stop(ctx); err != nil {
		zlog.Warn().Err(err).Msg("playback: stop before unload failed")
	}
	if err := handle.Unload(ctx); err != nil {
		zlog.Warn().Err(err).Msg("playback: unload failed")
	}
}

// stepLocked resolves the playlist index delta steps away from the current one.
// Must be called with mu held.
func (c *Controller) stepLocked(delta int) (int, bool) {
	n := c.current.Len()
	if n == 0 {
		return 0, false
	}

	if c.shuffle && len(c.order) == n {
		return c.order[wrap(c.orderPos+delta, n)], true
	}
	return wrap(c.index+delta, n), true
}

func (c *Controller) isLoaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Controller) heldHandle() audio.Handle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handle
}

// sendEventLocked sends an event without blocking.
// Must be called with mu held.
func (c *Controller) sendEventLocked(t EventType) {
	if c.closed {
		return
	}

	select {
	case c.eventCh <- Event{Type: t, Snapshot: c.snapshotLocked()}:
	default:
		// Channel full, drop event
	}
}

// wrap returns i modulo n in [0, n).
func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func roundVolume(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampVolume(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
