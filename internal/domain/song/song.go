// Package song provides the Song catalog entity.
package song

import (
	"fmt"
	"strings"
	"time"
)

// Song represents a catalog entry. Songs are static and never change once defined.
type Song struct {
	ID       string        // Unique within the catalog
	Title    string        // Song title
	Artist   string        // Artist name
	Duration time.Duration // Nominal duration; the engine reports the real one once loaded
	Source   string        // Local file path or http(s) URI
	Glyph    string        // Display symbol
}

// IsRemote reports whether the song's source is fetched over the network.
func (s *Song) IsRemote() bool {
	src := strings.ToLower(strings.TrimSpace(s.Source))
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Label returns "Artist - Title", or just the title when the artist is unknown.
func (s *Song) Label() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Artist + " - " + s.Title
}

// FormatClock formats a duration as mm:ss, truncating sub-second precision.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
