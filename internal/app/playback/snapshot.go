package playback

import (
	"time"

	"github.com/osa030/boombox/internal/domain/playlist"
	"github.com/osa030/boombox/internal/domain/song"
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State         State
	Loaded        bool
	Playing       bool
	Buffering     bool
	Duration      time.Duration
	Position      time.Duration
	Volume        float64
	Shuffle       bool
	ShuffleOrder  []int
	Playlist      playlist.Playlist
	Index         int
	Song          *song.Song // Song at Index, nil when the playlist is empty
	Playlists     []playlist.Playlist
	Selected      []song.Song
	PendingDelete *playlist.Playlist
}

// Snapshot returns the current controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// snapshotLocked must be called with mu held.
func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:     deriveState(c.loaded, c.playing, c.buffering),
		Loaded:    c.loaded,
		Playing:   c.playing,
		Buffering: c.buffering,
		Duration:  c.duration,
		Position:  c.position,
		Volume:    c.volume,
		Shuffle:   c.shuffle,
		Playlist:  c.current,
		Index:     c.index,
		Playlists: append([]playlist.Playlist(nil), c.playlists...),
		Selected:  append([]song.Song(nil), c.selected...),
	}
	if c.order != nil {
		snap.ShuffleOrder = append([]int(nil), c.order...)
	}
	if s := c.current.Song(c.index); s != nil {
		cp := *s
		snap.Song = &cp
	}
	if c.pendingDelete != nil {
		cp := *c.pendingDelete
		snap.PendingDelete = &cp
	}
	return snap
}

// Remaining returns the time left in the loaded song.
func (s Snapshot) Remaining() time.Duration {
	return max(s.Duration-s.Position, 0)
}
