package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/osa030/boombox/internal/domain/song"
)

// DuplicateSongFilter drops songs already in the catalog under another ID.
// Detects:
// - Remasters and alternate versions (normalized title + same main artist)
// Excludes:
// - Cover songs (same title but different artist)
type DuplicateSongFilter struct{}

// NewDuplicateSongFilter creates a new duplicate song filter.
func NewDuplicateSongFilter() *DuplicateSongFilter {
	return &DuplicateSongFilter{}
}

// Name returns the filter name.
func (f *DuplicateSongFilter) Name() string {
	return "duplicate_song_filter"
}

// Description returns the filter description.
func (f *DuplicateSongFilter) Description() string {
	return "Drops remasters and alternate versions of songs already in the catalog; covers are kept"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateSongFilter) ReturnCodes() []string {
	return []string{"duplicate_song"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateSongFilter) ValidateConfig(map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the song duplicates one already kept.
func (f *DuplicateSongFilter) Check(_ context.Context, s song.Song, kept []song.Song) Result {
	if lo.ContainsBy(kept, func(k song.Song) bool { return isSameSong(k, s) }) {
		return Reject("duplicate_song")
	}
	return Accept()
}

// isSameSong reports whether two songs are the same recording or a version of it.
func isSameSong(a, b song.Song) bool {
	if a.ID == b.ID {
		return true
	}
	if normalizeTitle(a.Title) != normalizeTitle(b.Title) {
		return false
	}
	// Different artists means a cover
	return isSameArtist(a, b)
}

var (
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
		regexp.MustCompile(`\s*\(.*?version\)`),                  // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),                     // "(Radio Edit)"
		regexp.MustCompile(`\s*\(live\)`),                        // "(Live)"
		regexp.MustCompile(`\s+-\s+live$`),                       // "- Live"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),               // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`),           // "- Single Version"
	}
	spaces = regexp.MustCompile(`\s+`)
)

// normalizeTitle removes remaster information and version details.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}

	normalized = spaces.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.TrimRight(normalized, " -")
}

// mainArtist returns the first credited artist.
func mainArtist(s song.Song) string {
	first, _, _ := strings.Cut(s.Artist, ",")
	return strings.TrimSpace(first)
}

func isSameArtist(a, b song.Song) bool {
	artistA, artistB := mainArtist(a), mainArtist(b)
	if artistA == "" || artistB == "" {
		return false
	}
	return strings.EqualFold(artistA, artistB)
}

func init() {
	Register("duplicate_song_filter", func() Filter {
		return NewDuplicateSongFilter()
	})
}
