package song

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSong_IsRemote(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected bool
	}{
		{name: "https uri", source: "https://example.com/a.mp3", expected: true},
		{name: "http uri", source: "http://example.com/a.mp3", expected: true},
		{name: "uppercase scheme", source: "HTTPS://example.com/a.mp3", expected: true},
		{name: "local path", source: "/music/a.mp3", expected: false},
		{name: "relative path", source: "assets/a.mp3", expected: false},
		{name: "empty", source: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Song{ID: "s1", Source: tt.source}
			assert.Equal(t, tt.expected, s.IsRemote())
		})
	}
}

func TestSong_Label(t *testing.T) {
	assert.Equal(t, "Toby Fox - Megalovania", (&Song{Title: "Megalovania", Artist: "Toby Fox"}).Label())
	assert.Equal(t, "Megalovania", (&Song{Title: "Megalovania"}).Label())
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{name: "zero", d: 0, expected: "00:00"},
		{name: "sub second", d: 999 * time.Millisecond, expected: "00:00"},
		{name: "seconds", d: 42 * time.Second, expected: "00:42"},
		{name: "minutes", d: 3*time.Minute + 5*time.Second, expected: "03:05"},
		{name: "over an hour", d: 75 * time.Minute, expected: "75:00"},
		{name: "negative", d: -time.Second, expected: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatClock(tt.d))
		})
	}
}
