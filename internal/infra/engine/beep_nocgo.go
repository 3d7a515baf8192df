//go:build !((linux && cgo) || windows || darwin)

package engine

import (
	"context"

	"github.com/osa030/boombox/internal/domain/audio"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries on Linux.
const AudioAvailable = false

// Beep is a placeholder engine for builds without audio output.
type Beep struct{}

// NewBeep creates a beep engine that cannot load sounds.
func NewBeep(Settings) *Beep {
	return &Beep{}
}

// Create always fails with ErrAudioUnavailable.
func (*Beep) Create(context.Context, string, audio.Options, audio.StatusFunc) (audio.Handle, *audio.Status, error) {
	return nil, nil, ErrAudioUnavailable
}
