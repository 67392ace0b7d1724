package ports

import (
	"context"
	"time"
)

// Chime plays the primary one-shot bell sound.
// This is a driven port (implemented by adapters).
type Chime interface {
	Ring(ctx context.Context) error
}

// ToneSynth plays a locally synthesized tone. It is the bell fallback.
type ToneSynth interface {
	Tone(frequency float64, d time.Duration) error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, message string) error
}
