package eventbus

import (
	"sync"
	"sync/atomic"

	"github.com/benmeehan/rov-hub/internal/metrics"
	"github.com/benmeehan/rov-hub/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultQueueCapacity is the number of pending events a subscriber may hold.
const DefaultQueueCapacity = 1000

// Subscription is one subscriber's bounded event queue.
type Subscription struct {
	id      string
	ch      chan models.Event
	dropped atomic.Uint64
}

// ID returns the subscription identifier used in logs.
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the queue. It is closed when the subscription is torn down.
func (s *Subscription) Events() <-chan models.Event {
	return s.ch
}

// Dropped returns how many events this subscriber lost to a full queue.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Bus fans every published event out to all registered subscriptions.
//
// A single mutex covers both subscriber-set changes and publish iteration, so
// every subscriber observes the same global order. Publish never blocks: a
// full queue loses that subscriber's copy of the event.
type Bus struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
	closed   bool
	logger   zerolog.Logger
}

// NewBus creates a bus whose subscriptions hold up to capacity pending events.
func NewBus(capacity int, logger zerolog.Logger) *Bus {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Bus{
		subs:     make(map[*Subscription]struct{}),
		capacity: capacity,
		logger:   logger,
	}
}

// Subscribe registers a new queue that receives every event published from
// now on. On a closed bus the returned subscription is already torn down.
func (b *Bus) Subscribe() *Subscription {
	sub := &Subscription{
		id: uuid.New().String(),
		ch: make(chan models.Event, b.capacity),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	metrics.Subscribers.Inc()
	b.logger.Debug().Str("subscription_id", sub.id).Int("subscribers", len(b.subs)).Msg("Subscriber registered")
	return sub
}

// Unsubscribe removes sub and closes its queue. Calling it more than once is safe.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
	metrics.Subscribers.Dec()
	b.logger.Debug().
		Str("subscription_id", sub.id).
		Uint64("dropped", sub.Dropped()).
		Int("subscribers", len(b.subs)).
		Msg("Subscriber removed")
}

// Publish delivers evt to every registered subscription without blocking.
func (b *Bus) Publish(evt models.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	metrics.EventsPublished.WithLabelValues(evt.Type).Inc()

	for sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
			if sub.dropped.Add(1) == 1 {
				b.logger.Warn().Str("subscription_id", sub.id).Msg("Subscriber queue full, dropping events")
			}
			metrics.EventsDropped.Inc()
		}
	}
}

// SubscriberCount returns the number of registered subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close tears down every subscription; later publishes are discarded and
// later subscriptions start closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
		metrics.Subscribers.Dec()
	}
	b.logger.Info().Msg("Event bus closed")
}
