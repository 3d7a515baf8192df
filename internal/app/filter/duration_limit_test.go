package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/boombox/internal/domain/song"
)

func TestDurationLimitFilter_Check(t *testing.T) {
	tests := []struct {
		name         string
		minMinutes   float64
		maxMinutes   float64
		songDuration time.Duration
		shouldReject bool
	}{
		{
			name:         "Within limits",
			minMinutes:   2.0,
			maxMinutes:   5.0,
			songDuration: 3 * time.Minute,
		},
		{
			name:         "Too short",
			minMinutes:   3.0,
			songDuration: 2 * time.Minute,
			shouldReject: true,
		},
		{
			name:         "Too long",
			minMinutes:   1.0,
			maxMinutes:   5.0,
			songDuration: 6 * time.Minute,
			shouldReject: true,
		},
		{
			name:         "Exact min",
			minMinutes:   3.0,
			songDuration: 3 * time.Minute,
		},
		{
			name:         "Exact max",
			minMinutes:   1.0,
			maxMinutes:   5.0,
			songDuration: 5 * time.Minute,
		},
		{
			name:         "Unknown duration is accepted",
			minMinutes:   1.0,
			maxMinutes:   5.0,
			songDuration: 0,
		},
		{
			name:         "Preview clip below minimum",
			minMinutes:   1.0,
			songDuration: 30 * time.Second,
			shouldReject: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewDurationLimitFilter()
			f.config = &DurationLimitConfig{
				MinMinutes: tt.minMinutes,
				MaxMinutes: tt.maxMinutes,
			}

			result := f.Check(context.Background(), song.Song{ID: "s", Duration: tt.songDuration}, nil)

			if tt.shouldReject {
				assert.False(t, result.Accepted)
				assert.Equal(t, "duration_limit_exceeded", result.Code)
			} else {
				assert.True(t, result.Accepted)
			}
		})
	}
}

func TestDurationLimitFilter_Unconfigured(t *testing.T) {
	result := NewDurationLimitFilter().Check(context.Background(), song.Song{Duration: time.Hour}, nil)
	assert.True(t, result.Accepted)
}

func TestDurationLimitFilter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		wantErr  bool
	}{
		{
			name:     "Valid config",
			settings: map[string]any{"min_minutes": 2.5, "max_minutes": 5.0},
		},
		{
			name:     "Valid integers",
			settings: map[string]any{"min_minutes": 2, "max_minutes": 5},
		},
		{
			name:     "Invalid min > max",
			settings: map[string]any{"min_minutes": 10.0, "max_minutes": 5.0},
			wantErr:  true,
		},
		{
			name:     "Invalid negative min",
			settings: map[string]any{"min_minutes": -1.0},
			wantErr:  true,
		},
		{
			name:     "Fractional min",
			settings: map[string]any{"min_minutes": 0.5},
		},
		{
			name:     "Zero max means no limit",
			settings: map[string]any{"min_minutes": 3, "max_minutes": 0.0},
		},
		{
			name:     "Invalid negative max",
			settings: map[string]any{"max_minutes": -1.0},
			wantErr:  true,
		},
		{
			name:     "Wrong type",
			settings: map[string]any{"max_minutes": "long"},
			wantErr:  true,
		},
		{
			name:     "Empty settings",
			settings: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDurationLimitFilter().ValidateConfig(tt.settings)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
