package playback

// EventType represents a controller event type.
type EventType int

const (
	EventSongLoading      EventType = iota // A load was requested
	EventSongLoaded                        // A load completed
	EventLoadFailed                        // A load failed; controller is unloaded
	EventUnloaded                          // The held resource was released
	EventStatusChanged                     // Engine status mirrored (position, buffering, ...)
	EventTransportChanged                  // Play, pause, stop or seek applied
	EventPlaylistChanged                   // Current playlist switched
	EventPlaylistsChanged                  // Playlist created or deleted
	EventShuffleChanged                    // Shuffle toggled
	EventVolumeChanged                     // Volume changed
	EventSelectionChanged                  // Draft selection or pending delete changed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSongLoading:
		return "song_loading"
	case EventSongLoaded:
		return "song_loaded"
	case EventLoadFailed:
		return "load_failed"
	case EventUnloaded:
		return "unloaded"
	case EventStatusChanged:
		return "status_changed"
	case EventTransportChanged:
		return "transport_changed"
	case EventPlaylistChanged:
		return "playlist_changed"
	case EventPlaylistsChanged:
		return "playlists_changed"
	case EventShuffleChanged:
		return "shuffle_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventSelectionChanged:
		return "selection_changed"
	default:
		return "unknown"
	}
}

// Event represents a controller event together with the state it produced.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}
