package domain

// Snapshot is the read-only view of the session handed to renderers after
// every transition. Version increases with every transition so receivers can
// drop snapshots that arrive out of order.
type Snapshot struct {
	Version                 uint64      `json:"version"`
	SessionID               string      `json:"session_id"`
	View                    View        `json:"view"`
	IsPlaying               bool        `json:"is_playing"`
	IsRunning               bool        `json:"is_running"`
	ElapsedSeconds          int         `json:"elapsed_seconds"`
	DurationSeconds         int         `json:"duration_seconds"`
	CountdownSeconds        int         `json:"countdown_seconds"`
	SelectedDurationSeconds int         `json:"selected_duration_seconds"`
	SharingMode             SharingMode `json:"sharing_mode,omitempty"`
	CurrentTrack            Track       `json:"current_track"`
	Phase                   TimerPhase  `json:"phase"`
	HandoffPending          bool        `json:"handoff_pending"`
}

// Active reports whether the active view's play/pause flag is set.
func (s Snapshot) Active() bool {
	switch s.View {
	case ViewPlayer:
		return s.IsPlaying
	case ViewTimer:
		return s.IsRunning
	default:
		return false
	}
}

// PlaybackProgress returns the Player completion fraction.
func (s Snapshot) PlaybackProgress() float64 {
	p := PlaybackState{ElapsedSeconds: s.ElapsedSeconds, DurationSeconds: s.DurationSeconds}
	return p.Progress()
}

// TimerProgress returns the Timer completion fraction.
func (s Snapshot) TimerProgress() float64 {
	t := TimerState{SelectedDurationSeconds: s.SelectedDurationSeconds, CountdownSeconds: s.CountdownSeconds}
	return t.Progress()
}
