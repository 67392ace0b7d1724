package media

import (
	"context"
	"sync"
	"time"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// SimulatedBackend is a silent player that advances one second per scheduler
// tick. Asset lengths come from the catalog's duration hints. It is used when
// ffplay is unavailable and in demos.
type SimulatedBackend struct {
	scheduler ports.Scheduler
	lengths   map[string]float64
	fallback  float64
	hub       eventHub

	mu       sync.Mutex
	asset    string
	length   float64
	position float64
	playing  bool
	gen      uint64
	stopTick ports.Cancel
	closed   bool
}

// NewSimulatedBackend creates a simulated backend for the catalog's assets.
// Assets without a duration hint play for fallbackSeconds.
func NewSimulatedBackend(scheduler ports.Scheduler, catalog domain.Catalog, fallbackSeconds int) *SimulatedBackend {
	lengths := make(map[string]float64, catalog.Len())
	for _, t := range catalog.Tracks() {
		if t.DurationSeconds > 0 {
			lengths[t.AudioAssetRef] = float64(t.DurationSeconds)
		}
	}
	if fallbackSeconds <= 0 {
		fallbackSeconds = domain.FallbackDurationSeconds
	}
	return &SimulatedBackend{
		scheduler: scheduler,
		lengths:   lengths,
		fallback:  float64(fallbackSeconds),
	}
}

func (s *SimulatedBackend) Load(assetRef string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.stopLocked()
	s.asset = assetRef
	s.position = 0
	length, known := s.lengths[assetRef]
	if !known {
		length = s.fallback
	}
	s.length = length
	s.mu.Unlock()

	if known {
		s.hub.metadata(length)
	}
	return nil
}

func (s *SimulatedBackend) Seek(seconds float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if seconds < 0 {
		seconds = 0
	}
	if seconds > s.length {
		seconds = s.length
	}
	s.position = seconds
	return nil
}

func (s *SimulatedBackend) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.asset == "" {
		return ErrNoAsset
	}
	if s.playing {
		return nil
	}
	s.playing = true
	s.gen++
	gen := s.gen
	s.stopTick = s.scheduler.Every(time.Second, func() { s.advance(gen) })
	return nil
}

func (s *SimulatedBackend) advance(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.playing {
		s.mu.Unlock()
		return
	}
	s.position++
	ended := s.position >= s.length
	if ended {
		s.position = s.length
	}
	pos := s.position
	if ended {
		s.stopLocked()
		s.position = 0
	}
	s.mu.Unlock()

	s.hub.position(pos)
	if ended {
		s.hub.ended()
	}
}

func (s *SimulatedBackend) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.stopLocked()
	return nil
}

func (s *SimulatedBackend) stopLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	s.gen++
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
}

// Position returns the simulated playback position in seconds.
func (s *SimulatedBackend) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Playing reports whether the simulated clock is advancing.
func (s *SimulatedBackend) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *SimulatedBackend) Subscribe(events ports.MediaEvents) func() {
	return s.hub.subscribe(events)
}

func (s *SimulatedBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
	return nil
}

var _ ports.MediaBackend = (*SimulatedBackend)(nil)
