package domain

import (
	"fmt"
	"strings"
)

const (
	// MaxTimerSeconds is the hard ceiling for the selected timer duration.
	MaxTimerSeconds = 3600

	// IncrementStepSeconds is the size of one "+1 minute" step.
	IncrementStepSeconds = 60

	// ExpiringWindowSeconds is the countdown span shown as "expiring".
	ExpiringWindowSeconds = 15

	// OvertimeWarningSeconds is how far past zero the warning phase starts.
	OvertimeWarningSeconds = 30
)

// TimerPresets lists the selectable timer durations in seconds.
var TimerPresets = []int{60, 180, 300, 1200}

// IsPreset reports whether seconds is one of the fixed presets.
func IsPreset(seconds int) bool {
	for _, p := range TimerPresets {
		if p == seconds {
			return true
		}
	}
	return false
}

// NextIncrement returns seconds plus one step, clamped to MaxTimerSeconds.
func NextIncrement(seconds int) int {
	next := seconds + IncrementStepSeconds
	if next > MaxTimerSeconds {
		return MaxTimerSeconds
	}
	return next
}

// TimerState is the Timer-side half of the session state.
type TimerState struct {
	SelectedDurationSeconds int
	CountdownSeconds        int
	IsRunning               bool
}

// NewTimerState returns a stopped timer synced to the selected duration.
func NewTimerState(selected int) TimerState {
	return TimerState{
		SelectedDurationSeconds: selected,
		CountdownSeconds:        selected,
	}
}

// Sync forces the countdown back to the selected duration and stops it.
func (t *TimerState) Sync() {
	t.CountdownSeconds = t.SelectedDurationSeconds
	t.IsRunning = false
}

// Progress returns how much of the selected duration has elapsed (0.0 to 1.0).
func (t TimerState) Progress() float64 {
	if t.SelectedDurationSeconds <= 0 {
		return 0
	}
	remaining := t.CountdownSeconds
	if remaining < 0 {
		remaining = 0
	}
	progress := float64(t.SelectedDurationSeconds-remaining) / float64(t.SelectedDurationSeconds)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// SharingMode names the two kinds of spoken sharing a timer is used for.
type SharingMode string

const (
	SharingMain       SharingMode = "main"
	SharingSupplement SharingMode = "supplement"
)

// ValidSharingModes lists all supported sharing modes.
var ValidSharingModes = []SharingMode{SharingMain, SharingSupplement}

// ParseSharingMode checks if a string is a valid sharing mode.
func ParseSharingMode(s string) (SharingMode, error) {
	m := SharingMode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ValidSharingModes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of main, supplement", ErrInvalidSharingMode, s)
}

// DurationSeconds returns the preset a sharing mode selects.
func (m SharingMode) DurationSeconds() int {
	switch m {
	case SharingMain:
		return 300
	case SharingSupplement:
		return 180
	default:
		return 0
	}
}

// Label returns a human-readable label.
func (m SharingMode) Label() string {
	switch m {
	case SharingMain:
		return "Main sharing"
	case SharingSupplement:
		return "Supplementary sharing"
	default:
		return "Custom"
	}
}

// SharingModeFor returns the mode whose preset equals seconds, or "".
func SharingModeFor(seconds int) SharingMode {
	for _, m := range ValidSharingModes {
		if m.DurationSeconds() == seconds {
			return m
		}
	}
	return ""
}

// DefaultSelectedSeconds is the duration selected when a session starts.
var DefaultSelectedSeconds = SharingSupplement.DurationSeconds()

// TimerPhase classifies a countdown value for display.
type TimerPhase int

const (
	PhaseNormal TimerPhase = iota
	PhaseExpiring
	PhaseOvertime
	PhaseOvertimeWarning
)

// String returns the phase identifier.
func (p TimerPhase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseExpiring:
		return "expiring"
	case PhaseOvertime:
		return "overtime"
	case PhaseOvertimeWarning:
		return "overtime_warning"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p TimerPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// PhaseOf classifies a countdown value.
func PhaseOf(countdown int) TimerPhase {
	switch {
	case countdown < -OvertimeWarningSeconds:
		return PhaseOvertimeWarning
	case countdown < 0:
		return PhaseOvertime
	case countdown <= ExpiringWindowSeconds:
		return PhaseExpiring
	default:
		return PhaseNormal
	}
}

// IsOvertime reports whether the phase is past zero.
func (p TimerPhase) IsOvertime() bool {
	return p == PhaseOvertime || p == PhaseOvertimeWarning
}

// ExpiringRatio returns how far into the expiring window a countdown is,
// 0 at the start of the window and 1 at zero. Outside the window it is 0
// before and 1 after.
func ExpiringRatio(countdown int) float64 {
	if countdown < 0 {
		return 1
	}
	if countdown > ExpiringWindowSeconds {
		return 0
	}
	return 1 - float64(countdown)/float64(ExpiringWindowSeconds)
}

// FormatClock renders seconds as mm:ss using the absolute value, so
// overtime reads as time past zero.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = -seconds
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
