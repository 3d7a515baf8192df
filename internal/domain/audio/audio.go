// Package audio defines the contract between the playback controller and an audio engine.
//
// An engine owns decoding, buffering and hardware output. The controller only ever
// creates one resource at a time, drives it through a Handle and listens to its
// status callbacks.
package audio

import (
	"context"
	"time"
)

// Options are applied when a resource is created.
type Options struct {
	Volume   float64 // Initial volume in [0,1]
	Autoplay bool    // Start playing as soon as the resource is loaded
}

// Status is the engine's view of a resource.
// A status with IsLoaded=false is the "unloaded" variant; its other fields are meaningless.
type Status struct {
	IsLoaded      bool
	IsPlaying     bool
	IsBuffering   bool
	DidJustFinish bool // Set once when playback reaches the end of the resource
	Duration      time.Duration
	Position      time.Duration
}

// StatusFunc receives asynchronous status updates for one resource.
// It may be called from any goroutine. A nil status means the engine was torn down.
type StatusFunc func(status *Status)

// Handle controls a loaded resource.
type Handle interface {
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error
	SetVolume(ctx context.Context, volume float64) error
	Unload(ctx context.Context) error
}

// Engine creates resources bound to a source (local path or remote URI).
type Engine interface {
	Create(ctx context.Context, source string, opts Options, onStatus StatusFunc) (Handle, *Status, error)
}
