package ports

import "time"

// Cancel stops a scheduled task. It is safe to call more than once.
type Cancel func()

// Scheduler is the timing source used for the clock ticker and deferred
// transitions.
type Scheduler interface {
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Cancel

	// Every runs f every d until cancelled.
	Every(d time.Duration, f func()) Cancel
}
