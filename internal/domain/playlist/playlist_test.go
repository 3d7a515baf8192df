package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/boombox/internal/domain/song"
)

func TestPlaylist_SongIDs(t *testing.T) {
	tests := []struct {
		name     string
		songs    []song.Song
		expected []string
	}{
		{
			name:     "empty playlist",
			songs:    []song.Song{},
			expected: []string{},
		},
		{
			name:     "single song",
			songs:    []song.Song{{ID: "song-1"}},
			expected: []string{"song-1"},
		},
		{
			name: "multiple songs keep order",
			songs: []song.Song{
				{ID: "song-3"},
				{ID: "song-1"},
				{ID: "song-2"},
			},
			expected: []string{"song-3", "song-1", "song-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "playlist-1", Songs: tt.songs}
			assert.Equal(t, tt.expected, p.SongIDs())
		})
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	tests := []struct {
		name     string
		songs    []song.Song
		expected time.Duration
	}{
		{
			name:     "empty playlist",
			songs:    []song.Song{},
			expected: 0,
		},
		{
			name: "multiple songs",
			songs: []song.Song{
				{ID: "song-1", Duration: 2 * time.Minute},
				{ID: "song-2", Duration: 3*time.Minute + 30*time.Second},
				{ID: "song-3", Duration: 4 * time.Minute},
			},
			expected: 9*time.Minute + 30*time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "playlist-1", Songs: tt.songs}
			assert.Equal(t, tt.expected, p.TotalDuration())
		})
	}
}

func TestPlaylist_Song(t *testing.T) {
	p := &Playlist{
		ID:    "playlist-1",
		Songs: []song.Song{{ID: "a"}, {ID: "b"}},
	}

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "a", p.Song(0).ID)
	assert.Equal(t, "b", p.Song(1).ID)
	assert.Nil(t, p.Song(-1))
	assert.Nil(t, p.Song(2))
}

func TestPlaylist_IsDefault(t *testing.T) {
	assert.True(t, (&Playlist{ID: DefaultID}).IsDefault())
	assert.False(t, (&Playlist{ID: "road-trip"}).IsDefault())
}
