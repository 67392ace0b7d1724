package domain

// FallbackDurationSeconds is the playback length assumed until the media
// backend reports real metadata.
const FallbackDurationSeconds = 600

// PlaybackState is the Player-side half of the session state.
type PlaybackState struct {
	CurrentTrackID  string
	IsPlaying       bool
	ElapsedSeconds  int
	DurationSeconds int
}

// NewPlaybackState returns a paused state positioned on the given track.
func NewPlaybackState(trackID string) PlaybackState {
	return PlaybackState{
		CurrentTrackID:  trackID,
		DurationSeconds: FallbackDurationSeconds,
	}
}

// Progress returns the completion fraction (0.0 to 1.0) for display.
func (p PlaybackState) Progress() float64 {
	if p.DurationSeconds <= 0 {
		return 0
	}
	progress := float64(p.ElapsedSeconds) / float64(p.DurationSeconds)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
