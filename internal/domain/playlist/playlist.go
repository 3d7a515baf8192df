// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/osa030/boombox/internal/domain/song"
)

// DefaultID is the reserved identifier of the playlist that holds the whole catalog.
// It can never be deleted.
const DefaultID = "default"

// Playlist represents an ordered, immutable collection of songs.
type Playlist struct {
	ID        string      // Unique identifier (DefaultID for the catalog playlist)
	Name      string      // Display name
	Songs     []song.Song // Songs in playback order
	CreatedAt time.Time   // Creation timestamp
}

// IsDefault reports whether this is the non-deletable default playlist.
func (p *Playlist) IsDefault() bool {
	return p.ID == DefaultID
}

// Len returns the number of songs.
func (p *Playlist) Len() int {
	return len(p.Songs)
}

// Song returns the song at the given index, or nil if out of bounds.
func (p *Playlist) Song(index int) *song.Song {
	if index < 0 || index >= len(p.Songs) {
		return nil
	}
	return &p.Songs[index]
}

// SongIDs returns all song IDs in the playlist.
func (p *Playlist) SongIDs() []string {
	ids := make([]string, len(p.Songs))
	for i, s := range p.Songs {
		ids[i] = s.ID
	}
	return ids
}

// TotalDuration returns the sum of the nominal song durations.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range p.Songs {
		total += s.Duration
	}
	return total
}
