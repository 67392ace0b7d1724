package services

import (
	"time"

	"github.com/xvierd/zenpath/internal/ports"
)

// TickPeriod is the fixed period of the countdown pulse.
const TickPeriod = time.Second

// ClockTicker owns the single repeating countdown pulse. Each start gets a
// new generation, and pulses carry the generation they were started with, so
// a pulse from a stopped ticker is recognizable as stale.
//
// ClockTicker is not safe for concurrent use. The session machine calls it
// with its lock held.
type ClockTicker struct {
	scheduler ports.Scheduler
	onTick    func(gen uint64)
	cancel    ports.Cancel
	gen       uint64
	running   bool
}

// NewClockTicker creates a stopped ticker that calls onTick on every pulse.
func NewClockTicker(scheduler ports.Scheduler, onTick func(gen uint64)) *ClockTicker {
	return &ClockTicker{scheduler: scheduler, onTick: onTick}
}

// Sync starts or stops the ticker so that it runs if and only if active.
func (c *ClockTicker) Sync(active bool) {
	switch {
	case active && !c.running:
		c.gen++
		gen := c.gen
		c.running = true
		c.cancel = c.scheduler.Every(TickPeriod, func() { c.onTick(gen) })
	case !active && c.running:
		c.stop()
	}
}

func (c *ClockTicker) stop() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.running = false
	c.gen++
}

// Current reports whether gen belongs to the running ticker.
func (c *ClockTicker) Current(gen uint64) bool {
	return c.running && gen == c.gen
}

// Running reports whether the ticker is started.
func (c *ClockTicker) Running() bool {
	return c.running
}
