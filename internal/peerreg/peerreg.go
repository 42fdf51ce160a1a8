// Package peerreg tracks chat peers seen by the demo CLI: first/last
// seen timestamps and message counts, plus a small event dispatcher.
// Adapted from the teacher's Player bookkeeping (source/server/player.go)
// and its EventManager (core/events/events.go), generalized from SA-MP
// player state to generic peer connect/message/timeout events.
package peerreg

import (
	"sync"
	"time"

	"github.com/ventosilenzioso/reliudp/pkg/reliudp"
)

// EventType enumerates the events the registry can fire.
type EventType int

const (
	EventPeerConnected EventType = iota
	EventPeerMessage
	EventPeerTimedOut
)

// Event describes one occurrence dispatched to registered handlers.
type Event struct {
	Type      EventType
	Peer      reliudp.PeerAddr
	Data      interface{}
	Timestamp time.Time
}

// EventHandler reacts to a dispatched Event.
type EventHandler func(Event)

// Peer is one remote endpoint's bookkeeping.
type Peer struct {
	Addr         reliudp.PeerAddr
	FirstSeen    time.Time
	LastSeen     time.Time
	MessageCount int
}

// TimedOut reports whether the peer hasn't been seen within timeout as
// of now.
func (p *Peer) TimedOut(now time.Time, timeout time.Duration) bool {
	return now.Sub(p.LastSeen) > timeout
}

// Registry tracks every peer the demo CLI has exchanged traffic with
// and dispatches connect/message/timeout events to registered
// handlers. Safe for concurrent use.
type Registry struct {
	mu       sync.Mutex
	peers    map[reliudp.PeerAddr]*Peer
	handlers map[EventType][]EventHandler
}

func New() *Registry {
	return &Registry{
		peers:    make(map[reliudp.PeerAddr]*Peer),
		handlers: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type.
func (r *Registry) On(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[eventType] = append(r.handlers[eventType], handler)
}

func (r *Registry) trigger(event Event) {
	r.mu.Lock()
	handlers := append([]EventHandler(nil), r.handlers[event.Type]...)
	r.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Touch records a message from addr at now, registering the peer as
// newly connected on its first sighting.
func (r *Registry) Touch(addr reliudp.PeerAddr, now time.Time) *Peer {
	r.mu.Lock()
	peer, exists := r.peers[addr]
	if !exists {
		peer = &Peer{Addr: addr, FirstSeen: now}
		r.peers[addr] = peer
	}
	peer.LastSeen = now
	peer.MessageCount++
	r.mu.Unlock()

	if !exists {
		r.trigger(Event{Type: EventPeerConnected, Peer: addr, Timestamp: now})
	}
	r.trigger(Event{Type: EventPeerMessage, Peer: addr, Data: peer.MessageCount, Timestamp: now})
	return peer
}

// ExpireStale evicts every peer not seen within timeout as of now,
// firing EventPeerTimedOut for each.
func (r *Registry) ExpireStale(now time.Time, timeout time.Duration) {
	r.mu.Lock()
	var expired []reliudp.PeerAddr
	for addr, peer := range r.peers {
		if peer.TimedOut(now, timeout) {
			expired = append(expired, addr)
			delete(r.peers, addr)
		}
	}
	r.mu.Unlock()

	for _, addr := range expired {
		r.trigger(Event{Type: EventPeerTimedOut, Peer: addr, Timestamp: now})
	}
}

// Peers returns a snapshot of every currently tracked peer.
func (r *Registry) Peers() []Peer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Peer, 0, len(r.peers))
	for _, peer := range r.peers {
		out = append(out, *peer)
	}
	return out
}
