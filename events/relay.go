// Package events relays launch-time events from the host to the UI glue.
// Events emitted before any subscriber is ready are held and handed to the
// first subscriber that signals readiness.
package events

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event names.
const (
	OpenFile   = "open-file"
	OpenFolder = "open-folder"
)

// DefaultBacklog bounds the events held while no subscriber is ready.
const DefaultBacklog = 64

// Event is a named notification with a string payload, usually a path.
type Event struct {
	Name    string `json:"name"`
	Payload string `json:"payload"`
}

// Relay fans events out to ready subscribers.
type Relay struct {
	mu       sync.Mutex
	backlog []Event
	limit   int
	subs    map[*Subscription]struct{}
}

// NewRelay creates a relay holding at most backlog undelivered events.
// A non-positive backlog uses DefaultBacklog.
func NewRelay(backlog int) *Relay {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	return &Relay{
		limit: backlog,
		subs:  make(map[*Subscription]struct{}),
	}
}

// Emit delivers ev to every ready subscriber, or holds it until one is ready.
// Emit never blocks on a slow subscriber.
func (r *Relay) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := false
	for s := range r.subs {
		if s.ready {
			s.push(ev)
			delivered = true
		}
	}
	if delivered {
		return
	}

	if len(r.backlog) == r.limit {
		logrus.WithFields(logrus.Fields{
			"dropped": r.backlog[0].Name,
			"payload": r.backlog[0].Payload,
		}).Warn("events: backlog full, dropping oldest")
		r.backlog = r.backlog[1:]
	}
	r.backlog = append(r.backlog, ev)
}

// Subscribe registers a subscriber. It receives nothing until Ready is called.
func (r *Relay) Subscribe() *Subscription {
	s := &Subscription{
		relay: r,
		ch:    make(chan Event, r.limit),
	}
	r.mu.Lock()
	r.subs[s] = struct{}{}
	r.mu.Unlock()
	return s
}

// Subscription receives events once ready.
type Subscription struct {
	relay  *Relay
	ch     chan Event
	ready  bool
	closed bool
}

// C returns the event channel. It is closed by Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Ready marks the subscriber ready and hands it the held backlog. Events are
// only held while no subscriber is ready, so each one is replayed once.
func (s *Subscription) Ready() {
	r := s.relay
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ready || s.closed {
		return
	}
	s.ready = true
	for _, ev := range r.backlog {
		s.push(ev)
	}
	if n := len(r.backlog); n > 0 {
		logrus.WithField("count", n).Debug("events: replayed backlog")
	}
	r.backlog = nil
}

// Close unsubscribes and closes C.
func (s *Subscription) Close() {
	r := s.relay
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	delete(r.subs, s)
	close(s.ch)
}

// push is called with the relay lock held.
func (s *Subscription) push(ev Event) {
	select {
	case s.ch <- ev:
	default:
		logrus.WithField("event", ev.Name).Warn("events: subscriber not keeping up, dropping event")
	}
}
