// Package hub fans chat events out to every connected session.
//
// Each subscriber owns a bounded buffer. Publishing never blocks: when a
// subscriber falls behind, its oldest unread event is discarded and its lag
// counter grows. Other subscribers are not affected.
package hub

import (
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the per-subscriber buffer size.
const DefaultCapacity = 32

// ConnID identifies one accepted connection for the lifetime of the server.
type ConnID uint64

// Scope selects the connections an event is delivered to.
type Scope struct {
	directed bool
	conn     ConnID
}

// Broadcast addresses every connection except the originating one.
func Broadcast(excluding ConnID) Scope {
	return Scope{conn: excluding}
}

// Directed addresses a single connection.
func Directed(to ConnID) Scope {
	return Scope{directed: true, conn: to}
}

// Delivers reports whether a connection with the given id should receive
// an event with this scope.
func (s Scope) Delivers(id ConnID) bool {
	if s.directed {
		return id == s.conn
	}
	return id != s.conn
}

// IsDirected reports whether the scope addresses a single connection.
func (s Scope) IsDirected() bool { return s.directed }

// Conn returns the target of a directed scope or the excluded origin of a
// broadcast.
func (s Scope) Conn() ConnID { return s.conn }

// Event is one published item. Payload is an encoded message body and is
// shared by all subscribers, so it must not be modified after Publish.
type Event struct {
	Scope   Scope
	Payload []byte
}

// Hub is safe for concurrent use.
type Hub struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
	closed   bool
}

// New returns a hub whose subscribers buffer up to capacity events.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{
		subs:     make(map[*Subscription]struct{}),
		capacity: capacity,
	}
}

// Publish hands ev to every live subscriber and returns how many there were.
// Publishes are serialised, so all subscribers observe the same order.
func (h *Hub) Publish(ev Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0
	}

	for sub := range h.subs {
		sub.offer(ev)
	}
	return len(h.subs)
}

// Subscribe registers a new subscriber. It receives only events published
// after the call. Subscribing to a closed hub yields a closed subscription.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		hub: h,
		ch:  make(chan Event, h.capacity),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		sub.closed = true
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Receivers drain what is buffered and then
// see a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.closed = true
		close(sub.ch)
		delete(h.subs, sub)
	}
}

// Subscription is one subscriber's view of the hub.
type Subscription struct {
	hub    *Hub
	ch     chan Event
	lagged atomic.Uint64
	// guarded by hub.mu
	closed bool
}

// C returns the channel events are delivered on. It is closed when the
// subscription or the hub is closed.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Lagged returns the number of events dropped since the previous call and
// resets the counter.
func (s *Subscription) Lagged() uint64 {
	return s.lagged.Swap(0)
}

// Close detaches the subscription from the hub. It is safe to call more
// than once.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(s.hub.subs, s)
	close(s.ch)
}

// offer must be called with hub.mu held.
func (s *Subscription) offer(ev Event) {
	for {
		select {
		case s.ch <- ev:
			return
		default:
		}

		// full: drop the oldest unread event and retry
		select {
		case <-s.ch:
			s.lagged.Add(1)
		default:
		}
	}
}
