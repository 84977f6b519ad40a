// Package event implements a broadcast bus where every subscriber owns a private queue that it
// drains at its own pace.
package event

import (
	"sync"

	"github.com/rotisserie/eris"
)

// initialQueueCapacity is the starting capacity of a subscriber queue.
const initialQueueCapacity = 64

// ErrSubscriptionClosed is returned when operating on a subscription that has been revoked.
var ErrSubscriptionClosed = eris.New("subscription is closed")

// Bus fans published events out to every live subscriber. The subscriber list is guarded by its
// own lock that is only held long enough to copy the list; each queue is guarded separately, so
// a publisher never holds more than one queue lock at a time.
//
// A single publisher's events reach each subscriber in publish order. Events from concurrent
// publishers may interleave differently per subscriber.
type Bus[T any] struct {
	subscribers []*Subscription[T]
	mu          sync.RWMutex
}

// NewBus creates an empty bus.
func NewBus[T any]() *Bus[T] {
	return &Bus[T]{
		subscribers: make([]*Subscription[T], 0),
	}
}

// Subscription is a revocable handle to one subscriber's queue. It only receives events published
// after it was created.
type Subscription[T any] struct {
	bus    *Bus[T]
	queue  []T
	closed bool
	mu     sync.Mutex
}

// Subscribe registers a new subscriber queue.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		bus:   b,
		queue: make([]T, 0, initialQueueCapacity),
	}

	b.mu.Lock()
	b.subscribers = append(b.subscribers, sub)
	b.mu.Unlock()

	return sub
}

// Unsubscribe revokes sub and drops anything still queued. Unsubscribing twice, or a
// subscription from another bus, is a no-op.
func (b *Bus[T]) Unsubscribe(sub *Subscription[T]) {
	if sub == nil || sub.bus != b {
		return
	}

	b.mu.Lock()
	for i, s := range b.subscribers {
		if s == sub {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	sub.revoke()
}

// Publish appends event to the queue of every live subscriber. It never blocks on readers.
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	subscribers := make([]*Subscription[T], len(b.subscribers))
	copy(subscribers, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subscribers {
		sub.push(event)
	}
}

// Len returns the number of live subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Read drains and returns every event received since the previous Read. A closed subscription
// returns nil.
func (s *Subscription[T]) Read() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || len(s.queue) == 0 {
		return nil
	}

	events := s.queue
	s.queue = make([]T, 0, cap(events))
	return events
}

// Pending returns the number of events waiting to be read.
func (s *Subscription[T]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close unsubscribes s from its bus.
func (s *Subscription[T]) Close() error {
	if s.Closed() {
		return ErrSubscriptionClosed
	}
	s.bus.Unsubscribe(s)
	return nil
}

// Closed reports whether the subscription has been revoked.
func (s *Subscription[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// push appends an event unless the subscription was revoked after the publisher copied the list.
func (s *Subscription[T]) push(event T) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, event)
	}
	s.mu.Unlock()
}

func (s *Subscription[T]) revoke() {
	s.mu.Lock()
	s.closed = true
	s.queue = nil
	s.mu.Unlock()
}
