package api

import (
	"encoding/json"
	"sync"

	"github.com/ignite/mailprobe/internal/domain"
)

// EventsHub fans bulk job events out to SSE subscribers, keyed by job ID.
// It implements worker.EventPublisher. Slow subscribers lose events rather
// than stalling the worker goroutine.
type EventsHub struct {
	mu      sync.RWMutex
	clients map[string]map[chan []byte]bool
}

// NewEventsHub creates an empty hub.
func NewEventsHub() *EventsHub {
	return &EventsHub{clients: make(map[string]map[chan []byte]bool)}
}

// PublishJobEvent broadcasts one event to everyone watching jobID.
func (h *EventsHub) PublishJobEvent(jobID string, event domain.BatchProgressEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients[jobID] {
		select {
		case ch <- payload:
		default:
			// slow client, drop the event
		}
	}
}

// Subscribe registers a watcher for one job's event stream. The returned
// cancel func must be called when the client disconnects.
func (h *EventsHub) Subscribe(jobID string) (<-chan []byte, func()) {
	ch := make(chan []byte, 64)

	h.mu.Lock()
	if h.clients[jobID] == nil {
		h.clients[jobID] = make(map[chan []byte]bool)
	}
	h.clients[jobID][ch] = true
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if subs := h.clients[jobID]; subs != nil {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(h.clients, jobID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}
