package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// BellOptions configures the bell trigger.
type BellOptions struct {
	Enabled       bool
	ToneFrequency float64
	ToneDuration  time.Duration
	RingTimeout   time.Duration
	Desktop       bool
}

// DefaultBellOptions returns the bell settings used without configuration.
func DefaultBellOptions() BellOptions {
	return BellOptions{
		Enabled:       true,
		ToneFrequency: 880,
		ToneDuration:  400 * time.Millisecond,
		RingTimeout:   10 * time.Second,
	}
}

// BellTrigger rings once when a countdown naturally passes from 1 to 0.
// Edge detection runs under the session lock; ringing runs on its own
// goroutine so a slow or failing sound never delays the countdown.
type BellTrigger struct {
	edge     domain.BellEdge
	chime    ports.Chime
	tone     ports.ToneSynth
	notifier ports.Notifier
	opts     BellOptions
	logger   *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBellTrigger creates a bell trigger. Any sound collaborator may be nil.
func NewBellTrigger(chime ports.Chime, tone ports.ToneSynth, notifier ports.Notifier, opts BellOptions, logger *zap.Logger) *BellTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BellTrigger{
		chime:    chime,
		tone:     tone,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// Rebase records a countdown value reached by a jump rather than a tick.
func (b *BellTrigger) Rebase(countdown int) {
	b.edge.Rebase(countdown)
}

// Observe records a ticked countdown value and reports whether the bell
// should ring.
func (b *BellTrigger) Observe(countdown int) bool {
	return b.edge.Observe(countdown)
}

// Ring plays the bell asynchronously: the primary chime first, then the
// synthesized tone. A failure of both is logged and dropped. Rings after
// Close are dropped.
func (b *BellTrigger) Ring(sessionID string) {
	if !b.opts.Enabled {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Debug("bell dropped after close", zap.String("session_id", sessionID))
		return
	}
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.ring(sessionID)
	}()
}

func (b *BellTrigger) ring(sessionID string) {
	log := b.logger.With(zap.String("session_id", sessionID))

	if b.opts.Desktop && b.notifier != nil {
		if err := b.notifier.Notify("zenpath", "Time is up"); err != nil {
			log.Debug("desktop notification failed", zap.Error(err))
		}
	}

	if b.chime != nil {
		ctx := context.Background()
		if b.opts.RingTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.opts.RingTimeout)
			defer cancel()
		}
		err := b.chime.Ring(ctx)
		if err == nil {
			log.Info("bell rang")
			return
		}
		log.Warn("bell chime failed, falling back to tone", zap.Error(err))
	}

	if b.tone == nil {
		return
	}
	if err := b.tone.Tone(b.opts.ToneFrequency, b.opts.ToneDuration); err != nil {
		log.Debug("bell tone failed", zap.Error(err))
		return
	}
	log.Info("bell tone played")
}

// Wait blocks until every ring started so far has finished.
func (b *BellTrigger) Wait() {
	b.wg.Wait()
}

// Close refuses further rings and waits for the ones in flight.
func (b *BellTrigger) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}
