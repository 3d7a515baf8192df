// Package playback provides the playlist/transport controller that owns the audio engine resource.
package playback

// State represents the transport state.
type State int

const (
	StateUnloaded  State = iota // No resource loaded
	StateBuffering              // Resource loading or stalled
	StatePaused                 // Resource loaded, not playing
	StatePlaying                // Resource loaded and playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateBuffering:
		return "buffering"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// deriveState maps the mirrored engine flags onto the transport state.
func deriveState(loaded, playing, buffering bool) State {
	switch {
	case buffering:
		return StateBuffering
	case !loaded:
		return StateUnloaded
	case playing:
		return StatePlaying
	default:
		return StatePaused
	}
}
