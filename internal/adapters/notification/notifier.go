// Package notification provides desktop notifications and the synthesized
// fallback bell tone.
package notification

import (
	"time"

	"github.com/gen2brain/beeep"

	"github.com/xvierd/zenpath/internal/config"
	"github.com/xvierd/zenpath/internal/ports"
)

// Notifier handles desktop notifications and system beeps.
type Notifier struct {
	cfg    *config.BellConfig
	notify func(title, message string) error
	beep   func(freq float64, duration int) error
}

// New creates a new notifier with the given configuration.
func New(cfg *config.BellConfig) *Notifier {
	return &Notifier{
		cfg:    cfg,
		notify: func(title, message string) error { return beeep.Notify(title, message, "") },
		beep:   beeep.Beep,
	}
}

// Notify displays a desktop notification if enabled.
func (n *Notifier) Notify(title, message string) error {
	if !n.IsEnabled() {
		return nil
	}
	return n.notify(title, message)
}

// Tone plays a system beep. It implements ports.ToneSynth.
func (n *Notifier) Tone(frequency float64, d time.Duration) error {
	if frequency <= 0 {
		frequency = beeep.DefaultFreq
	}
	ms := int(d / time.Millisecond)
	if ms <= 0 {
		ms = beeep.DefaultDuration
	}
	return n.beep(frequency, ms)
}

// IsEnabled returns true if desktop notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Desktop
}

var (
	_ ports.Notifier  = (*Notifier)(nil)
	_ ports.ToneSynth = (*Notifier)(nil)
)
