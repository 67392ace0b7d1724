package services

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/xvierd/zenpath/internal/ports"
)

// playbackSink receives the derived playback events. The generation
// identifies the Player occupancy the tracker was attached for.
type playbackSink interface {
	applyPosition(gen uint64, elapsed int)
	applyMetadata(gen uint64, duration int)
	applyEnded(gen uint64)
}

// PositionTracker converts raw media backend events into whole-second
// playback state. One tracker is attached per Player occupancy and released
// on every exit path; events arriving after release are dropped.
type PositionTracker struct {
	sink     playbackSink
	gen      uint64
	released atomic.Bool

	mu     sync.Mutex
	detach func()
}

func newPositionTracker(sink playbackSink, gen uint64) *PositionTracker {
	return &PositionTracker{sink: sink, gen: gen}
}

// attach subscribes the tracker to the backend. A tracker released before
// it was attached never subscribes.
func (p *PositionTracker) attach(backend ports.MediaBackend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released.Load() || p.detach != nil {
		return
	}
	p.detach = backend.Subscribe(p)
}

// release drops all later events and unsubscribes from the backend.
func (p *PositionTracker) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released.Swap(true) {
		return
	}
	if p.detach != nil {
		p.detach()
	}
}

// OnPositionUpdate implements ports.MediaEvents.
func (p *PositionTracker) OnPositionUpdate(seconds float64) {
	if p.released.Load() {
		return
	}
	p.sink.applyPosition(p.gen, ElapsedFromPosition(seconds))
}

// OnMetadataReady implements ports.MediaEvents.
func (p *PositionTracker) OnMetadataReady(durationSeconds float64) {
	if p.released.Load() {
		return
	}
	if d, ok := DurationFromMetadata(durationSeconds); ok {
		p.sink.applyMetadata(p.gen, d)
	}
}

// OnEnded implements ports.MediaEvents.
func (p *PositionTracker) OnEnded() {
	if p.released.Load() {
		return
	}
	p.sink.applyEnded(p.gen)
}

// ElapsedFromPosition floors a reported position to whole seconds.
// Positions that are not finite or are negative read as zero.
func ElapsedFromPosition(seconds float64) int {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return int(math.Floor(seconds))
}

// DurationFromMetadata rounds a reported duration. It reports false when the
// value is not a finite positive number, in which case the fallback stays.
func DurationFromMetadata(seconds float64) (int, bool) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, false
	}
	d := int(math.Round(seconds))
	if d <= 0 {
		return 0, false
	}
	return d, true
}

var _ ports.MediaEvents = (*PositionTracker)(nil)
