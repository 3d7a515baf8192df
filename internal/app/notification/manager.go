// Package notification provides the notification manager for broadcasting controller state.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/boombox/internal/app/playback"
)

// DefaultSendTimeout bounds how long a single subscriber may block a broadcast.
const DefaultSendTimeout = 500 * time.Millisecond

// Notification is a controller state change delivered to subscribers.
type Notification struct {
	SequenceNo uint64
	Event      string
	Snapshot   playback.Snapshot
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	sendTimeout   time.Duration
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   DefaultSendTimeout,
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	return id
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast stamps the notification with the next sequence number and sends it to all subscribers.
// Each stream send is done in a goroutine with a timeout to prevent blocking.
func (m *Manager) Broadcast(notification *Notification) {
	notification.SequenceNo = m.NextSequenceNo()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(notification)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("notification: send failed: subscription=%s error=%v", s.id, err)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("notification: send timed out: subscription=%s", s.id)
			}
		}(sub)
	}

	wg.Wait()
}

// Send sends a notification to a specific subscriber.
func (m *Manager) Send(subscriptionID string, notification *Notification) error {
	m.mu.RLock()
	sub, ok := m.subscriptions[subscriptionID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	return sub.stream.Send(notification)
}

// Run broadcasts every controller event until ctx is done or events is closed.
func (m *Manager) Run(ctx context.Context, events <-chan playback.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Broadcast(&Notification{
				Event:    ev.Type.String(),
				Snapshot: ev.Snapshot,
			})
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes the manager and removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
