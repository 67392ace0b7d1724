// Package media provides the media backends (ffplay processes and a
// simulated player) and the bell chime.
package media

import (
	"sync"

	"github.com/xvierd/zenpath/internal/ports"
)

// eventHub fans media events out to subscribers. Events are delivered
// without holding any lock.
type eventHub struct {
	mu   sync.Mutex
	subs map[uint64]ports.MediaEvents
	next uint64
}

func (h *eventHub) subscribe(events ports.MediaEvents) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[uint64]ports.MediaEvents)
	}
	h.next++
	id := h.next
	h.subs[id] = events

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *eventHub) receivers() []ports.MediaEvents {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ports.MediaEvents, 0, len(h.subs))
	for _, e := range h.subs {
		out = append(out, e)
	}
	return out
}

func (h *eventHub) position(seconds float64) {
	for _, e := range h.receivers() {
		e.OnPositionUpdate(seconds)
	}
}

func (h *eventHub) metadata(seconds float64) {
	for _, e := range h.receivers() {
		e.OnMetadataReady(seconds)
	}
}

func (h *eventHub) ended() {
	for _, e := range h.receivers() {
		e.OnEnded()
	}
}
