package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/boombox/internal/app/playback"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*Notification
	err   error
	block chan struct{}
}

func (s *recordingStream) Send(n *Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *recordingStream) received() []*Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Notification(nil), s.got...)
}

func TestManager_SubscribeAndBroadcast(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{err: errors.New("client gone")}

	idA := m.Subscribe(a)
	idB := m.Subscribe(b)
	assert.NotEqual(t, idA, idB)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&Notification{Event: "song_loaded"})
	m.Broadcast(&Notification{Event: "volume_changed"})

	got := a.received()
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
	assert.Equal(t, uint64(2), got[1].SequenceNo)
	assert.Equal(t, "volume_changed", got[1].Event)
	assert.Len(t, b.received(), 2)

	m.Unsubscribe(idB)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	m.sendTimeout = 20 * time.Millisecond

	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recordingStream{}
	m.Subscribe(slow)
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(&Notification{Event: "status_changed"})

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, fast.received(), 1)
}

func TestManager_Send(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	id := m.Subscribe(s)

	require.NoError(t, m.Send(id, &Notification{SequenceNo: m.NextSequenceNo(), Event: "snapshot"}))
	assert.NoError(t, m.Send("unknown", &Notification{}))

	got := s.received()
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].SequenceNo)
}

func TestManager_Run(t *testing.T) {
	m := NewManager()
	s := &recordingStream{}
	m.Subscribe(s)

	events := make(chan playback.Event, 2)
	events <- playback.Event{Type: playback.EventShuffleChanged, Snapshot: playback.Snapshot{Shuffle: true}}
	events <- playback.Event{Type: playback.EventVolumeChanged, Snapshot: playback.Snapshot{Volume: 0.5}}
	close(events)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background(), events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after events were closed")
	}

	got := s.received()
	require.Len(t, got, 2)
	assert.Equal(t, "shuffle_changed", got[0].Event)
	assert.True(t, got[0].Snapshot.Shuffle)
	assert.Equal(t, "volume_changed", got[1].Event)
	assert.InDelta(t, 0.5, got[1].Snapshot.Volume, 1e-9)
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx, make(chan playback.Event))
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
