// Package stream provides the in-process publish/subscribe layer backing
// live message snapshots and unread counters. Every committed mutation
// re-publishes a freshly computed full snapshot to all subscribers of the
// affected topic; subscribers attach and detach at any time without
// affecting stored state or each other.
package stream

import (
	"sync"
)

// subscriptionBuffer bounds how many snapshots a slow subscriber may lag
// behind. Snapshots are full re-views, so dropping stale ones is safe:
// the newest snapshot supersedes everything before it.
const subscriptionBuffer = 8

// Event is one delivery to a subscriber: either a snapshot or a terminal
// error, never both. After an Event with Err set the channel is closed.
type Event[T any] struct {
	Snapshot T
	Err      error
}

// Subscription is a live feed of snapshots for one topic.
type Subscription[T any] struct {
	broker *Broker[T]
	topic  string

	// mu orders sends against close so a concurrent Cancel can never
	// close the channel out from under an in-flight delivery.
	mu     sync.Mutex
	closed bool
	ch     chan Event[T]
}

// C returns the event channel. It is closed when the subscription is
// cancelled or after a terminal error has been delivered.
func (s *Subscription[T]) C() <-chan Event[T] {
	return s.ch
}

// Cancel detaches the subscription. Safe to call more than once and
// concurrently with publishes.
func (s *Subscription[T]) Cancel() {
	s.broker.unsubscribe(s)
}

// Broker fans snapshots out to per-topic subscriber sets.
type Broker[T any] struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription[T]]struct{}
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[string]map[*Subscription[T]]struct{})}
}

// Subscribe registers a new subscriber for topic and delivers initial as
// the first event so the consumer never observes an empty feed.
func (b *Broker[T]) Subscribe(topic string, initial T) *Subscription[T] {
	sub := &Subscription[T]{
		broker: b,
		topic:  topic,
		ch:     make(chan Event[T], subscriptionBuffer),
	}
	sub.ch <- Event[T]{Snapshot: initial}

	b.mu.Lock()
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Subscription[T]]struct{})
		b.subs[topic] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers snapshot to every active subscriber of topic. A
// subscriber that cannot keep up has its oldest buffered snapshot
// dropped; publishers never block.
func (b *Broker[T]) Publish(topic string, snapshot T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[topic] {
		sub.deliver(Event[T]{Snapshot: snapshot})
	}
}

// Fail delivers err once to every subscriber of topic and closes their
// channels. Used when the backing store reports a terminal error; the
// stream must not silently go empty.
func (b *Broker[T]) Fail(topic string, err error) {
	b.mu.Lock()
	set := b.subs[topic]
	delete(b.subs, topic)
	b.mu.Unlock()

	for sub := range set {
		sub.deliver(Event[T]{Err: err})
		sub.close()
	}
}

// SubscriberCount reports the number of active subscribers for topic.
func (b *Broker[T]) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

func (b *Broker[T]) unsubscribe(sub *Subscription[T]) {
	b.mu.Lock()
	if set, ok := b.subs[sub.topic]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.topic)
		}
	}
	b.mu.Unlock()
	sub.close()
}

func (s *Subscription[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *Subscription[T]) deliver(ev Event[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
			// Drop the oldest buffered event to make room.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
