package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveState(t *testing.T) {
	tests := []struct {
		name      string
		loaded    bool
		playing   bool
		buffering bool
		expected  State
	}{
		{name: "nothing loaded", expected: StateUnloaded},
		{name: "loading", buffering: true, expected: StateBuffering},
		{name: "stalled while playing", loaded: true, playing: true, buffering: true, expected: StateBuffering},
		{name: "loaded and paused", loaded: true, expected: StatePaused},
		{name: "playing", loaded: true, playing: true, expected: StatePlaying},
		{name: "stale playing flag without resource", playing: true, expected: StateUnloaded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveState(tt.loaded, tt.playing, tt.buffering)
			assert.Equal(t, tt.expected, got)
			assert.NotEqual(t, "unknown", got.String())
		})
	}
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "song_loaded", EventSongLoaded.String())
	assert.Equal(t, "selection_changed", EventSelectionChanged.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
