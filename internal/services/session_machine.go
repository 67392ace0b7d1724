package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// MachineOptions configures the session state machine.
type MachineOptions struct {
	// HandoffDelay is the pause between end of track and entering the Timer.
	HandoffDelay time.Duration

	// CancelHandoffOnNavigate drops a pending handoff when the user navigates
	// (back, track selection, timer entry) before it fires.
	CancelHandoffOnNavigate bool

	// DefaultDurationSeconds is the selected timer duration at startup.
	DefaultDurationSeconds int

	// FallbackDurationSeconds is the playback length assumed until metadata
	// arrives, for tracks without a duration hint.
	FallbackDurationSeconds int

	// PlayTimeout bounds one media backend Play request.
	PlayTimeout time.Duration
}

// DefaultMachineOptions returns the options used without configuration.
func DefaultMachineOptions() MachineOptions {
	return MachineOptions{
		HandoffDelay:            600 * time.Millisecond,
		CancelHandoffOnNavigate: true,
		DefaultDurationSeconds:  domain.DefaultSelectedSeconds,
		FallbackDurationSeconds: domain.FallbackDurationSeconds,
		PlayTimeout:             5 * time.Second,
	}
}

// SessionMachine owns the single session state and is the only writer of it.
// Every event (user command, clock pulse, media callback, deferred handoff,
// play failure) runs to completion under one lock before the next is
// applied. Observers receive a snapshot after every transition, outside the
// lock.
type SessionMachine struct {
	mu sync.Mutex

	catalog   domain.Catalog
	backend   ports.MediaBackend
	scheduler ports.Scheduler
	ticker    *ClockTicker
	bell      *BellTrigger
	media     *mediaQueue
	logger    *zap.Logger
	opts      MachineOptions

	ctx    context.Context
	cancel context.CancelFunc

	version   uint64
	sessionID string
	view      domain.View
	playback  domain.PlaybackState
	timer     domain.TimerState

	playGen   uint64
	playerGen uint64
	tracker   *PositionTracker

	handoffGen     uint64
	handoffCancel  ports.Cancel
	handoffPending bool

	observers  map[uint64]ports.Renderer
	observerID uint64
	closed     bool
}

// NewSessionMachine creates a machine on the Home view. A nil bell gives a
// silent bell; a nil logger discards logs.
func NewSessionMachine(catalog domain.Catalog, backend ports.MediaBackend, scheduler ports.Scheduler, bell *BellTrigger, logger *zap.Logger, opts MachineOptions) *SessionMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bell == nil {
		bell = NewBellTrigger(nil, nil, nil, BellOptions{}, logger)
	}
	if opts.DefaultDurationSeconds <= 0 {
		opts.DefaultDurationSeconds = domain.DefaultSelectedSeconds
	}
	if opts.FallbackDurationSeconds <= 0 {
		opts.FallbackDurationSeconds = domain.FallbackDurationSeconds
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &SessionMachine{
		catalog:   catalog,
		backend:   backend,
		scheduler: scheduler,
		bell:      bell,
		media:     newMediaQueue(),
		logger:    logger,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		sessionID: domain.NewSessionID(),
		view:      domain.ViewHome,
		playback:  domain.NewPlaybackState(catalog.Default().ID),
		timer:     domain.NewTimerState(opts.DefaultDurationSeconds),
		observers: make(map[uint64]ports.Renderer),
	}
	m.playback.DurationSeconds = m.durationHint(catalog.Default())
	m.ticker = NewClockTicker(scheduler, m.tick)
	return m
}

// Catalog returns the read-only track catalog.
func (m *SessionMachine) Catalog() domain.Catalog {
	return m.catalog
}

// Snapshot returns the current state.
func (m *SessionMachine) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Observe registers a renderer. It is called after every transition until
// the returned release function is called.
func (m *SessionMachine) Observe(r ports.Renderer) (release func()) {
	m.mu.Lock()
	m.observerID++
	id := m.observerID
	m.observers[id] = r
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// Dispatch applies a renderer command.
func (m *SessionMachine) Dispatch(cmd ports.SessionCommand) error {
	if m.isClosed() {
		return domain.ErrSessionClosed
	}

	switch cmd.Kind {
	case ports.CmdSelectTrack:
		m.SelectTrack(cmd.TrackID)
	case ports.CmdOpenTimer:
		m.OpenTimer()
	case ports.CmdBack:
		m.Back()
	case ports.CmdToggle:
		m.TogglePlay()
	case ports.CmdSetDuration:
		return m.SetDuration(cmd.Seconds)
	case ports.CmdAddMinute:
		m.AddMinute()
	case ports.CmdReset:
		m.ResetTimer()
	case ports.CmdSharingMode:
		return m.SetSharingMode(cmd.Mode)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownCommand, cmd.Kind)
	}
	return nil
}

// SelectTrack navigates to the Player for the given track. An unknown id
// selects the catalog's first track.
func (m *SessionMachine) SelectTrack(id string) {
	m.apply(func() bool {
		m.navigatedLocked()
		track := m.catalog.Lookup(id)
		if track.ID != id {
			m.logger.Debug("unknown track id, using default",
				zap.String("requested", id), zap.String("track_id", track.ID))
		}
		m.enterPlayerLocked(track)
		return true
	})
}

// OpenTimer navigates to the Timer view. It does nothing when the Timer is
// already active.
func (m *SessionMachine) OpenTimer() {
	m.apply(func() bool {
		if m.view == domain.ViewTimer {
			return false
		}
		m.navigatedLocked()
		m.enterTimerLocked()
		return true
	})
}

// Back navigates to Home. Position and countdown are kept but inert.
func (m *SessionMachine) Back() {
	m.apply(func() bool {
		cancelled := m.navigatedLocked()
		if m.view == domain.ViewHome {
			return cancelled
		}
		m.leaveViewLocked()
		m.enterLocked(domain.ViewHome)
		return true
	})
}

// TogglePlay flips the play/pause flag of the active view. It does nothing
// on Home.
func (m *SessionMachine) TogglePlay() {
	m.apply(func() bool {
		switch m.view {
		case domain.ViewPlayer:
			m.playback.IsPlaying = !m.playback.IsPlaying
			m.playGen++
			if m.playback.IsPlaying {
				m.requestPlayLocked(m.playGen)
			} else {
				m.pauseBackendLocked()
			}
			m.logger.Debug("playback toggled",
				zap.String("session_id", m.sessionID), zap.Bool("playing", m.playback.IsPlaying))
			return true
		case domain.ViewTimer:
			m.timer.IsRunning = !m.timer.IsRunning
			m.ticker.Sync(m.timer.IsRunning)
			m.logger.Debug("timer toggled",
				zap.String("session_id", m.sessionID), zap.Bool("running", m.timer.IsRunning))
			return true
		default:
			return false
		}
	})
}

// SetDuration selects one of the timer presets and restarts the countdown.
// Other values are rejected with domain.ErrInvalidDuration, and any change
// outside the Timer with domain.ErrNotInTimer; both leave the state
// unchanged.
func (m *SessionMachine) SetDuration(seconds int) error {
	if !domain.IsPreset(seconds) {
		return fmt.Errorf("%w: %d seconds is not a preset", domain.ErrInvalidDuration, seconds)
	}
	var err error
	m.apply(func() bool {
		if m.view != domain.ViewTimer {
			err = domain.ErrNotInTimer
			return false
		}
		m.selectDurationLocked(seconds)
		return true
	})
	return err
}

// AddMinute raises the selected duration by one minute, up to the ceiling,
// and restarts the countdown. It does nothing outside the Timer.
func (m *SessionMachine) AddMinute() {
	m.apply(func() bool {
		if m.view != domain.ViewTimer {
			return false
		}
		m.selectDurationLocked(domain.NextIncrement(m.timer.SelectedDurationSeconds))
		return true
	})
}

// ResetTimer restarts the countdown from the selected duration. It does
// nothing outside the Timer.
func (m *SessionMachine) ResetTimer() {
	m.apply(func() bool {
		if m.view != domain.ViewTimer {
			return false
		}
		m.selectDurationLocked(m.timer.SelectedDurationSeconds)
		return true
	})
}

// SetSharingMode selects the preset of a sharing mode.
func (m *SessionMachine) SetSharingMode(mode domain.SharingMode) error {
	seconds := mode.DurationSeconds()
	if seconds == 0 {
		return fmt.Errorf("%w %q", domain.ErrInvalidSharingMode, mode)
	}
	return m.SetDuration(seconds)
}

// Flush blocks until all media commands issued so far have completed,
// including the state changes they cause.
func (m *SessionMachine) Flush() {
	m.media.flush()
}

// Close stops every timer, pauses playback and releases subscriptions.
// Later commands are ignored.
func (m *SessionMachine) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.cancelHandoffLocked()
	m.leaveViewLocked()
	m.closed = true
	m.observers = make(map[uint64]ports.Renderer)
	m.mu.Unlock()

	m.cancel()
	m.media.close()
	m.bell.Close()
	m.logger.Info("session machine closed")
	return nil
}

func (m *SessionMachine) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// apply runs one transition under the lock and notifies observers when it
// reports a change.
func (m *SessionMachine) apply(transition func() bool) {
	m.mu.Lock()
	if m.closed || !transition() {
		m.mu.Unlock()
		return
	}
	m.version++
	snap := m.snapshotLocked()
	observers := make([]ports.Renderer, 0, len(m.observers))
	for _, r := range m.observers {
		observers = append(observers, r)
	}
	m.mu.Unlock()

	for _, r := range observers {
		r.Render(snap)
	}
}

func (m *SessionMachine) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		Version:                 m.version,
		SessionID:               m.sessionID,
		View:                    m.view,
		IsPlaying:               m.playback.IsPlaying,
		IsRunning:               m.timer.IsRunning,
		ElapsedSeconds:          m.playback.ElapsedSeconds,
		DurationSeconds:         m.playback.DurationSeconds,
		CountdownSeconds:        m.timer.CountdownSeconds,
		SelectedDurationSeconds: m.timer.SelectedDurationSeconds,
		SharingMode:             domain.SharingModeFor(m.timer.SelectedDurationSeconds),
		CurrentTrack:            m.catalog.Lookup(m.playback.CurrentTrackID),
		Phase:                   domain.PhaseOf(m.timer.CountdownSeconds),
		HandoffPending:          m.handoffPending,
	}
}

// enterLocked makes v the active view and starts a new session for it.
func (m *SessionMachine) enterLocked(v domain.View) {
	m.view = v
	m.sessionID = domain.NewSessionID()
	m.logger.Info("view entered",
		zap.String("session_id", m.sessionID),
		zap.String("view", v.String()),
		zap.String("track_id", m.playback.CurrentTrackID))
}

// leaveViewLocked forces both activity flags off, stops the ticker and, when
// leaving the Player, pauses the backend and releases the subscription.
func (m *SessionMachine) leaveViewLocked() {
	m.timer.IsRunning = false
	m.ticker.Sync(false)

	m.playGen++
	m.playback.IsPlaying = false
	if m.view == domain.ViewPlayer {
		m.releaseTrackerLocked()
		m.pauseBackendLocked()
	}
}

func (m *SessionMachine) enterPlayerLocked(track domain.Track) {
	m.leaveViewLocked()

	m.playback = domain.NewPlaybackState(track.ID)
	m.playback.DurationSeconds = m.durationHint(track)

	m.playerGen++
	tracker := newPositionTracker(m, m.playerGen)
	m.tracker = tracker

	// The queue runs the pause of the previous playback first, so the
	// tracker never sees events of the old asset.
	backend := m.backend
	m.media.submit(func() {
		tracker.attach(backend)
		if err := backend.Load(track.AudioAssetRef); err != nil {
			m.logger.Warn("failed to load track", zap.String("track_id", track.ID), zap.Error(err))
		}
		if err := backend.Seek(0); err != nil {
			m.logger.Warn("failed to seek to start", zap.String("track_id", track.ID), zap.Error(err))
		}
	})

	m.enterLocked(domain.ViewPlayer)
}

func (m *SessionMachine) enterTimerLocked() {
	m.leaveViewLocked()
	m.timer.Sync()
	m.bell.Rebase(m.timer.CountdownSeconds)
	m.enterLocked(domain.ViewTimer)
}

// selectDurationLocked applies a new selected duration with the timer sync
// rule: the countdown jumps to it and the timer stops.
func (m *SessionMachine) selectDurationLocked(seconds int) {
	m.timer.SelectedDurationSeconds = seconds
	m.timer.Sync()
	m.ticker.Sync(false)
	m.bell.Rebase(m.timer.CountdownSeconds)
	m.logger.Debug("timer duration selected",
		zap.String("session_id", m.sessionID), zap.Int("seconds", seconds))
}

func (m *SessionMachine) durationHint(track domain.Track) int {
	if track.DurationSeconds > 0 {
		return track.DurationSeconds
	}
	return m.opts.FallbackDurationSeconds
}

func (m *SessionMachine) releaseTrackerLocked() {
	if m.tracker == nil {
		return
	}
	m.tracker.release()
	m.tracker = nil
	m.playerGen++
}

func (m *SessionMachine) pauseBackendLocked() {
	backend := m.backend
	m.media.submit(func() {
		if err := backend.Pause(); err != nil {
			m.logger.Warn("failed to pause playback", zap.Error(err))
		}
	})
}

// requestPlayLocked starts playback without waiting for it. A failure
// reverts to paused only if gen is still the latest play request.
func (m *SessionMachine) requestPlayLocked(gen uint64) {
	backend := m.backend
	ctx := m.ctx
	timeout := m.opts.PlayTimeout
	m.media.submit(func() {
		playCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			playCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		if err := backend.Play(playCtx); err != nil {
			m.playFailed(gen, err)
		}
	})
}

func (m *SessionMachine) playFailed(gen uint64, err error) {
	m.apply(func() bool {
		if gen != m.playGen || m.view != domain.ViewPlayer || !m.playback.IsPlaying {
			return false
		}
		m.playback.IsPlaying = false
		m.logger.Warn("playback failed to start",
			zap.String("session_id", m.sessionID),
			zap.String("track_id", m.playback.CurrentTrackID),
			zap.Error(err))
		return true
	})
}

// tick is the clock pulse handler.
func (m *SessionMachine) tick(gen uint64) {
	var ring bool
	var sessionID string

	m.apply(func() bool {
		if !m.ticker.Current(gen) || m.view != domain.ViewTimer || !m.timer.IsRunning {
			return false
		}
		m.timer.CountdownSeconds--
		ring = m.bell.Observe(m.timer.CountdownSeconds)
		sessionID = m.sessionID
		return true
	})

	if ring {
		m.bell.Ring(sessionID)
	}
}

func (m *SessionMachine) applyPosition(gen uint64, elapsed int) {
	m.apply(func() bool {
		if !m.playerEventCurrent(gen) || m.playback.ElapsedSeconds == elapsed {
			return false
		}
		m.playback.ElapsedSeconds = elapsed
		return true
	})
}

func (m *SessionMachine) applyMetadata(gen uint64, duration int) {
	m.apply(func() bool {
		if !m.playerEventCurrent(gen) || m.playback.DurationSeconds == duration {
			return false
		}
		m.playback.DurationSeconds = duration
		m.logger.Debug("track metadata ready",
			zap.String("track_id", m.playback.CurrentTrackID), zap.Int("duration_seconds", duration))
		return true
	})
}

// applyEnded stops playback now and schedules the Player -> Timer handoff.
func (m *SessionMachine) applyEnded(gen uint64) {
	m.apply(func() bool {
		if !m.playerEventCurrent(gen) {
			return false
		}
		m.playGen++
		m.playback.IsPlaying = false
		if m.handoffPending {
			return true
		}

		m.handoffGen++
		handoff := m.handoffGen
		m.handoffPending = true
		m.handoffCancel = m.scheduler.AfterFunc(m.opts.HandoffDelay, func() { m.completeHandoff(handoff) })
		m.logger.Info("track ended",
			zap.String("session_id", m.sessionID),
			zap.String("track_id", m.playback.CurrentTrackID),
			zap.Duration("handoff_delay", m.opts.HandoffDelay))
		return true
	})
}

func (m *SessionMachine) completeHandoff(gen uint64) {
	m.apply(func() bool {
		if gen != m.handoffGen || !m.handoffPending {
			return false
		}
		m.handoffPending = false
		m.handoffCancel = nil
		if m.view == domain.ViewTimer {
			return true
		}
		m.enterTimerLocked()
		return true
	})
}

// navigatedLocked applies the handoff policy for user navigation and
// reports whether a pending handoff was dropped.
func (m *SessionMachine) navigatedLocked() bool {
	if !m.opts.CancelHandoffOnNavigate || !m.handoffPending {
		return false
	}
	m.cancelHandoffLocked()
	m.logger.Debug("pending handoff cancelled by navigation", zap.String("session_id", m.sessionID))
	return true
}

func (m *SessionMachine) cancelHandoffLocked() {
	if m.handoffCancel != nil {
		m.handoffCancel()
		m.handoffCancel = nil
	}
	m.handoffPending = false
	m.handoffGen++
}

func (m *SessionMachine) playerEventCurrent(gen uint64) bool {
	return m.view == domain.ViewPlayer && m.tracker != nil && gen == m.playerGen
}

var (
	_ ports.Session = (*SessionMachine)(nil)
	_ playbackSink  = (*SessionMachine)(nil)
)
