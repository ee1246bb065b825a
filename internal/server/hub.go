package server

import "sync"

// Hub fans committed-change payloads out to per-namespace stream
// subscribers. Slow subscribers drop intermediate snapshots; the next
// payload is always a full snapshot, so nothing is lost.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[chan []byte]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[chan []byte]struct{})}
}

// Subscribe registers a subscriber for a namespace. The cancel func
// unregisters it and closes the channel.
func (h *Hub) Subscribe(ns string) (<-chan []byte, func()) {
	ch := make(chan []byte, 4)

	h.mu.Lock()
	subs, ok := h.topics[ns]
	if !ok {
		subs = make(map[chan []byte]struct{})
		h.topics[ns] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.topics[ns], ch)
			if len(h.topics[ns]) == 0 {
				delete(h.topics, ns)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers a payload to every subscriber of a namespace.
func (h *Hub) Publish(ns string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.topics[ns] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Subscribers reports the subscriber count for a namespace.
func (h *Hub) Subscribers(ns string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[ns])
}
