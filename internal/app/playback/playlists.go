package playback

import (
	"context"
	"strings"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/playlist"
	"github.com/osa030/boombox/internal/domain/song"
)

// Catalog returns every song known to the controller.
func (c *Controller) Catalog() []song.Song {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]song.Song(nil), c.catalog...)
}

// Playlists returns all playlists, the default one first.
func (c *Controller) Playlists() []playlist.Playlist {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]playlist.Playlist(nil), c.playlists...)
}

// Playlist returns the playlist with the given ID.
func (c *Controller) Playlist(id string) (playlist.Playlist, bool) {
	return c.findPlaylist(id)
}

func (c *Controller) findPlaylist(id string) (playlist.Playlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Find(c.playlists, func(p playlist.Playlist) bool { return p.ID == id })
}

// CreatePlaylist appends a new playlist and clears the draft selection.
// The name must not be blank and at least one song is required.
func (c *Controller) CreatePlaylist(name string, songs []song.Song) (playlist.Playlist, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.createPlaylistLocked(name, songs)
}

func (c *Controller) createPlaylistLocked(name string, songs []song.Song) (playlist.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return playlist.Playlist{}, ErrBlankName
	}
	if len(songs) == 0 {
		return playlist.Playlist{}, ErrEmptySelection
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pl := playlist.Playlist{
		ID:        uuid.New().String(),
		Name:      name,
		Songs:     append([]song.Song(nil), songs...),
		CreatedAt: c.config.Now(),
	}
	c.playlists = append(c.playlists, pl)
	c.selected = nil

	zlog.Info().Msgf("playback: playlist created: id=%s name=%s songs=%d", pl.ID, pl.Name, pl.Len())

	c.sendEventLocked(EventPlaylistsChanged)
	return pl, nil
}

// DeletePlaylist removes a playlist. Deleting the current playlist falls back to the default one.
func (c *Controller) DeletePlaylist(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.deletePlaylistLocked(ctx, id)
}

func (c *Controller) deletePlaylistLocked(ctx context.Context, id string) error {
	if id == playlist.DefaultID {
		return ErrDefaultPlaylist
	}

	c.mu.Lock()
	if _, ok := lo.Find(c.playlists, func(p playlist.Playlist) bool { return p.ID == id }); !ok {
		c.mu.Unlock()
		return ErrPlaylistNotFound
	}

	c.playlists = lo.Reject(c.playlists, func(p playlist.Playlist, _ int) bool { return p.ID == id })
	if c.pendingDelete != nil && c.pendingDelete.ID == id {
		c.pendingDelete = nil
	}
	wasCurrent := c.current.ID == id
	fallback := c.playlists[0]
	c.sendEventLocked(EventPlaylistsChanged)
	c.mu.Unlock()

	zlog.Info().Msgf("playback: playlist deleted: id=%s current=%v", id, wasCurrent)

	if wasCurrent {
		c.changePlaylistLocked(ctx, fallback)
	}
	return nil
}

// SelectSong adds a catalog song to the draft selection. Selecting twice is a no-op.
func (c *Controller) SelectSong(id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.songsByID[id]
	if !ok {
		return ErrSongNotFound
	}
	if !c.isSelectedLocked(id) {
		c.selected = append(c.selected, s)
		c.sendEventLocked(EventSelectionChanged)
	}
	return nil
}

// DeselectSong removes a song from the draft selection.
func (c *Controller) DeselectSong(id string) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isSelectedLocked(id) {
		c.selected = lo.Reject(c.selected, func(x song.Song, _ int) bool { return x.ID == id })
		c.sendEventLocked(EventSelectionChanged)
	}
}

// ToggleSong flips a song's membership in the draft selection and reports whether it is now selected.
func (c *Controller) ToggleSong(id string) (bool, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.songsByID[id]
	if !ok {
		return false, ErrSongNotFound
	}

	selected := !c.isSelectedLocked(id)
	if selected {
		c.selected = append(c.selected, s)
	} else {
		c.selected = lo.Reject(c.selected, func(x song.Song, _ int) bool { return x.ID == id })
	}
	c.sendEventLocked(EventSelectionChanged)
	return selected, nil
}

// ClearSelection empties the draft selection.
func (c *Controller) ClearSelection() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selected = nil
	c.sendEventLocked(EventSelectionChanged)
}

// CommitSelection creates a playlist from the draft selection in selection order.
func (c *Controller) CommitSelection(name string) (playlist.Playlist, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.RLock()
	selected := append([]song.Song(nil), c.selected...)
	c.mu.RUnlock()

	return c.createPlaylistLocked(name, selected)
}

func (c *Controller) isSelectedLocked(id string) bool {
	return lo.ContainsBy(c.selected, func(s song.Song) bool { return s.ID == id })
}

// RequestDelete marks a playlist for deletion pending confirmation.
func (c *Controller) RequestDelete(id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if id == playlist.DefaultID {
		return ErrDefaultPlaylist
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pl, ok := lo.Find(c.playlists, func(p playlist.Playlist) bool { return p.ID == id })
	if !ok {
		return ErrPlaylistNotFound
	}
	c.pendingDelete = &pl
	c.sendEventLocked(EventSelectionChanged)
	return nil
}

// CancelDelete drops a pending deletion.
func (c *Controller) CancelDelete() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pendingDelete != nil {
		c.pendingDelete = nil
		c.sendEventLocked(EventSelectionChanged)
	}
}

// ConfirmDelete deletes the playlist marked by RequestDelete.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	pending := c.pendingDelete
	c.pendingDelete = nil
	c.mu.Unlock()

	if pending == nil {
		return ErrNoPendingDelete
	}
	return c.deletePlaylistLocked(ctx, pending.ID)
}
