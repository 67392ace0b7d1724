package services

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

func TestSessionMachine_InitialState(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()

	s := f.machine.Snapshot()
	assert.Equal(t, domain.ViewHome, s.View)
	assert.False(t, s.IsPlaying)
	assert.False(t, s.IsRunning)
	assert.Equal(t, 180, s.SelectedDurationSeconds)
	assert.Equal(t, 180, s.CountdownSeconds)
	assert.Equal(t, domain.SharingSupplement, s.SharingMode)
	assert.Equal(t, "one", s.CurrentTrack.ID)
	assert.NotEmpty(t, s.SessionID)
}

func TestSessionMachine_TrackPlaybackScenario(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("two")
	m.Flush()

	s := m.Snapshot()
	assert.Equal(t, domain.ViewPlayer, s.View)
	assert.Equal(t, 0, s.ElapsedSeconds)
	assert.Equal(t, 420, s.DurationSeconds)
	assert.Equal(t, "two", s.CurrentTrack.ID)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, []string{"load:two.mp3", "seek:0"}, f.backend.callLog())

	f.backend.metadata(605)
	assert.Equal(t, 605, m.Snapshot().DurationSeconds)

	m.TogglePlay()
	m.Flush()
	assert.True(t, m.Snapshot().IsPlaying)

	f.backend.position(12.9)
	assert.Equal(t, 12, m.Snapshot().ElapsedSeconds)

	f.backend.ended()
	s = m.Snapshot()
	assert.False(t, s.IsPlaying, "end of track pauses immediately")
	assert.Equal(t, domain.ViewPlayer, s.View)
	assert.True(t, s.HandoffPending)

	f.clock.Advance(599 * time.Millisecond)
	assert.Equal(t, domain.ViewPlayer, m.Snapshot().View)

	f.clock.Advance(time.Millisecond)
	s = m.Snapshot()
	assert.Equal(t, domain.ViewTimer, s.View)
	assert.False(t, s.HandoffPending)
	assert.Equal(t, 180, s.SelectedDurationSeconds, "selected duration is unchanged by the handoff")
	assert.Equal(t, 180, s.CountdownSeconds)
	assert.False(t, s.IsRunning)
	assert.Empty(t, f.backend.subscribers(), "handoff releases the player subscription")
}

func TestSessionMachine_TrackWithoutHintUsesFallback(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()

	f.machine.SelectTrack("three")
	f.machine.Flush()
	assert.Equal(t, domain.FallbackDurationSeconds, f.machine.Snapshot().DurationSeconds)

	f.backend.metadata(0)
	assert.Equal(t, domain.FallbackDurationSeconds, f.machine.Snapshot().DurationSeconds)
}

func TestSessionMachine_UnknownTrackMatchesDefault(t *testing.T) {
	a := newFixture(DefaultMachineOptions())
	defer a.machine.Close()
	b := newFixture(DefaultMachineOptions())
	defer b.machine.Close()

	a.machine.SelectTrack("missing")
	b.machine.SelectTrack("one")

	sa, sb := a.machine.Snapshot(), b.machine.Snapshot()
	sa.SessionID, sb.SessionID = "", ""
	assert.Equal(t, sb, sa)

	a.machine.Flush()
	b.machine.Flush()
	assert.Equal(t, b.backend.callLog(), a.backend.callLog())
}

func TestSessionMachine_PlayerEntryResetsElapsed(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.Flush()
	f.backend.position(42.7)
	require.Equal(t, 42, m.Snapshot().ElapsedSeconds)

	m.Back()
	assert.Equal(t, 42, m.Snapshot().ElapsedSeconds, "back keeps position")

	m.SelectTrack("one")
	assert.Equal(t, 0, m.Snapshot().ElapsedSeconds)

	m.Flush()
	f.backend.position(10)
	m.SelectTrack("two")
	assert.Equal(t, 0, m.Snapshot().ElapsedSeconds, "track switch resets position")
}

func TestSessionMachine_TimerEntrySyncsCountdown(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	m.TogglePlay()
	f.clock.Advance(5 * time.Second)
	require.Equal(t, 175, m.Snapshot().CountdownSeconds)

	m.Back()
	s := m.Snapshot()
	assert.Equal(t, domain.ViewHome, s.View)
	assert.False(t, s.IsRunning)
	assert.Equal(t, 175, s.CountdownSeconds, "back keeps the countdown")

	f.clock.Advance(10 * time.Second)
	assert.Equal(t, 175, m.Snapshot().CountdownSeconds, "no ticks off the timer view")

	m.OpenTimer()
	s = m.Snapshot()
	assert.Equal(t, 180, s.CountdownSeconds)
	assert.False(t, s.IsRunning)
}

func TestSessionMachine_CountdownRunsIntoOvertime(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	require.NoError(t, m.SetDuration(60))
	m.TogglePlay()

	f.clock.Advance(10 * time.Second)
	assert.Equal(t, 50, m.Snapshot().CountdownSeconds)

	f.clock.Advance(85 * time.Second)
	s := m.Snapshot()
	assert.Equal(t, -35, s.CountdownSeconds)
	assert.Equal(t, domain.PhaseOvertimeWarning, s.Phase)

	m.TogglePlay()
	f.clock.Advance(10 * time.Second)
	assert.Equal(t, -35, m.Snapshot().CountdownSeconds, "paused timer does not tick")
}

func TestSessionMachine_PauseResumeRestartsPulse(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	m.TogglePlay()
	f.clock.Advance(1500 * time.Millisecond)
	require.Equal(t, 179, m.Snapshot().CountdownSeconds)

	m.TogglePlay()
	m.TogglePlay()
	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 179, m.Snapshot().CountdownSeconds)
	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 178, m.Snapshot().CountdownSeconds)
	assert.Equal(t, 1, f.clock.Pending(), "only one pulse is scheduled")
}

func TestSessionMachine_StalePulseIgnored(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	m.TogglePlay()

	m.mu.Lock()
	stale := m.ticker.gen
	m.mu.Unlock()

	m.TogglePlay()
	m.TogglePlay()
	m.tick(stale)
	assert.Equal(t, 180, m.Snapshot().CountdownSeconds)
}

func TestSessionMachine_DurationSelection(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	m.TogglePlay()
	f.clock.Advance(3 * time.Second)

	require.NoError(t, m.SetDuration(1200))
	s := m.Snapshot()
	assert.Equal(t, 1200, s.SelectedDurationSeconds)
	assert.Equal(t, 1200, s.CountdownSeconds)
	assert.False(t, s.IsRunning)

	before := m.Snapshot()
	err := m.SetDuration(120)
	assert.True(t, errors.Is(err, domain.ErrInvalidDuration))
	assert.Equal(t, before, m.Snapshot(), "rejected duration leaves state unchanged")

	require.NoError(t, m.SetSharingMode(domain.SharingMain))
	assert.Equal(t, 300, m.Snapshot().SelectedDurationSeconds)
	assert.Equal(t, domain.SharingMain, m.Snapshot().SharingMode)

	assert.ErrorIs(t, m.SetSharingMode("chat"), domain.ErrInvalidSharingMode)
}

func TestSessionMachine_DurationChangesNeedTimer(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	check := func(where string) {
		assert.ErrorIs(t, m.SetDuration(1200), domain.ErrNotInTimer, where)
		assert.ErrorIs(t, m.SetSharingMode(domain.SharingMain), domain.ErrNotInTimer, where)
		assert.ErrorIs(t, m.SetDuration(7), domain.ErrInvalidDuration, where)
		m.AddMinute()
		m.ResetTimer()
		assert.Equal(t, 180, m.Snapshot().SelectedDurationSeconds, where)
	}

	check("home")
	m.SelectTrack("one")
	check("player")

	m.OpenTimer()
	require.NoError(t, m.SetDuration(1200))
	assert.Equal(t, 1200, m.Snapshot().SelectedDurationSeconds)
}

func TestSessionMachine_AddMinute(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	for i, want := range []int{240, 300, 360} {
		m.TogglePlay()
		f.clock.Advance(2 * time.Second)
		m.AddMinute()
		s := m.Snapshot()
		assert.Equal(t, want, s.SelectedDurationSeconds, "press %d", i+1)
		assert.Equal(t, want, s.CountdownSeconds, "press %d", i+1)
		assert.False(t, s.IsRunning)
	}

	require.NoError(t, m.SetDuration(1200))
	for i := 0; i < 50; i++ {
		m.AddMinute()
	}
	assert.Equal(t, domain.MaxTimerSeconds, m.Snapshot().SelectedDurationSeconds)
}

func TestSessionMachine_ResetTimer(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	m.TogglePlay()
	f.clock.Advance(200 * time.Second)
	require.Equal(t, -20, m.Snapshot().CountdownSeconds)

	m.ResetTimer()
	s := m.Snapshot()
	assert.Equal(t, 180, s.CountdownSeconds)
	assert.False(t, s.IsRunning)
}

func TestSessionMachine_BellRingsOncePerRun(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	require.NoError(t, m.SetDuration(60))
	m.TogglePlay()
	f.clock.Advance(90 * time.Second)
	m.bell.Wait()

	assert.Equal(t, 1, f.chime.count())
	assert.Equal(t, 0, f.tone.count())
}

func TestSessionMachine_BellIgnoresReset(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	require.NoError(t, m.SetDuration(60))
	m.TogglePlay()
	f.clock.Advance(55 * time.Second)
	require.Equal(t, 5, m.Snapshot().CountdownSeconds)

	require.NoError(t, m.SetDuration(300))
	m.TogglePlay()
	f.clock.Advance(time.Second)
	require.Equal(t, 299, m.Snapshot().CountdownSeconds)
	m.bell.Wait()

	assert.Equal(t, 0, f.chime.count())
}

func TestSessionMachine_BellIgnoresPausedReentry(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.OpenTimer()
	require.NoError(t, m.SetDuration(60))
	m.TogglePlay()
	f.clock.Advance(59 * time.Second)
	require.Equal(t, 1, m.Snapshot().CountdownSeconds)

	m.Back()
	m.OpenTimer()
	m.TogglePlay()
	f.clock.Advance(time.Second)
	m.bell.Wait()

	assert.Equal(t, 59, m.Snapshot().CountdownSeconds)
	assert.Equal(t, 0, f.chime.count())
}

func TestSessionMachine_PlayFailureRevertsToPaused(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.Flush()
	f.backend.failNextPlays(errPlayBlocked)
	release := f.backend.holdPlays()

	m.TogglePlay()
	assert.True(t, m.Snapshot().IsPlaying, "toggle does not wait for the backend")

	release()
	m.Flush()
	s := m.Snapshot()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, domain.ViewPlayer, s.View)
}

func TestSessionMachine_StalePlayFailureIgnored(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	f.backend.failNextPlays(errPlayBlocked, nil)

	m.TogglePlay()
	m.TogglePlay()
	m.TogglePlay()
	m.Flush()

	assert.True(t, m.Snapshot().IsPlaying)
	assert.Equal(t, []string{"load:one.mp3", "seek:0", "play", "pause", "play"}, f.backend.callLog())
}

func TestSessionMachine_LeavingPlayerPausesAndReleases(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.TogglePlay()
	m.Flush()
	stale := f.backend.lastSubscriber()
	require.Len(t, f.backend.subscribers(), 1)

	m.Back()
	m.Flush()
	s := m.Snapshot()
	assert.False(t, s.IsPlaying)
	assert.Equal(t, domain.ViewHome, s.View)
	assert.Empty(t, f.backend.subscribers())
	assert.Equal(t, "pause", f.backend.callLog()[len(f.backend.callLog())-1])

	stale.OnPositionUpdate(99)
	stale.OnEnded()
	s = m.Snapshot()
	assert.NotEqual(t, 99, s.ElapsedSeconds, "released subscription is ignored")
	assert.False(t, s.HandoffPending)
}

func TestSessionMachine_SwitchIgnoresOldAssetEvents(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.TogglePlay()
	m.Flush()
	f.backend.position(200)
	old := f.backend.lastSubscriber()

	release := f.backend.holdPauses()
	m.Back()
	m.SelectTrack("two")

	// The old asset keeps reporting while its pause is still pending.
	old.OnPositionUpdate(250)
	f.backend.position(251)
	f.backend.ended()

	s := m.Snapshot()
	assert.Equal(t, domain.ViewPlayer, s.View)
	assert.Equal(t, "two", s.CurrentTrack.ID)
	assert.Equal(t, 0, s.ElapsedSeconds)
	assert.False(t, s.HandoffPending)
	assert.Empty(t, f.backend.subscribers(), "new tracker waits for the pending pause")

	release()
	m.Flush()
	require.Len(t, f.backend.subscribers(), 1)
	assert.Equal(t, []string{"load:one.mp3", "seek:0", "play", "pause", "load:two.mp3", "seek:0"}, f.backend.callLog())

	f.backend.position(3)
	assert.Equal(t, 3, m.Snapshot().ElapsedSeconds)
}

func TestSessionMachine_HandoffCancelledByNavigation(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.Flush()
	f.backend.ended()
	m.Back()
	assert.False(t, m.Snapshot().HandoffPending)

	f.clock.Advance(time.Second)
	assert.Equal(t, domain.ViewHome, m.Snapshot().View)
}

func TestSessionMachine_HandoffSurvivesNavigationWhenConfigured(t *testing.T) {
	opts := DefaultMachineOptions()
	opts.CancelHandoffOnNavigate = false
	f := newFixture(opts)
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.Flush()
	f.backend.ended()
	m.Back()
	require.True(t, m.Snapshot().HandoffPending)

	f.clock.Advance(time.Second)
	s := m.Snapshot()
	assert.Equal(t, domain.ViewTimer, s.View)
	assert.Equal(t, s.SelectedDurationSeconds, s.CountdownSeconds)
}

func TestSessionMachine_ToggleDuringHandoffStillHandsOff(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	m.SelectTrack("one")
	m.TogglePlay()
	m.Flush()
	f.backend.ended()

	m.TogglePlay()
	assert.True(t, m.Snapshot().IsPlaying)

	f.clock.Advance(600 * time.Millisecond)
	s := m.Snapshot()
	assert.Equal(t, domain.ViewTimer, s.View)
	assert.False(t, s.IsPlaying)
	assert.False(t, s.IsRunning)
}

func TestSessionMachine_EachViewEntryStartsSession(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	seen := map[string]bool{m.Snapshot().SessionID: true}
	for _, step := range []func(){
		func() { m.SelectTrack("one") },
		m.Back,
		m.OpenTimer,
		m.Back,
	} {
		step()
		id := m.Snapshot().SessionID
		assert.False(t, seen[id], "session id reused")
		seen[id] = true
	}
}

func TestSessionMachine_ObserversReceiveSnapshots(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine

	r := &recordingRenderer{}
	release := m.Observe(r)

	m.OpenTimer()
	m.TogglePlay()
	f.clock.Advance(2 * time.Second)

	snaps := r.all()
	require.Len(t, snaps, 4)
	for i := 1; i < len(snaps); i++ {
		assert.Greater(t, snaps[i].Version, snaps[i-1].Version)
	}
	assert.Equal(t, 178, snaps[3].CountdownSeconds)

	release()
	m.Back()
	assert.Len(t, r.all(), 4)
}

func TestSessionMachine_Dispatch(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	m := f.machine

	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdSelectTrack, TrackID: "two"}))
	assert.Equal(t, "two", m.Snapshot().CurrentTrack.ID)

	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdBack}))
	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdOpenTimer}))
	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdSharingMode, Mode: domain.SharingMain}))
	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdAddMinute}))
	assert.Equal(t, 360, m.Snapshot().SelectedDurationSeconds)

	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdToggle}))
	assert.True(t, m.Snapshot().IsRunning)
	require.NoError(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdReset}))
	assert.False(t, m.Snapshot().IsRunning)

	assert.ErrorIs(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdSetDuration, Seconds: 7}), domain.ErrInvalidDuration)
	assert.ErrorIs(t, m.Dispatch(ports.SessionCommand{Kind: "dance"}), domain.ErrUnknownCommand)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Dispatch(ports.SessionCommand{Kind: ports.CmdBack}), domain.ErrSessionClosed)
}

func TestSessionMachine_CloseStopsEverything(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	m := f.machine

	m.SelectTrack("one")
	m.Flush()
	f.backend.ended()
	require.NoError(t, m.Close())

	assert.Equal(t, 0, f.clock.Pending())
	assert.Empty(t, f.backend.subscribers())
	require.NoError(t, m.Close())
}

func TestSessionMachine_BellSilentAfterClose(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	m := f.machine

	require.NoError(t, m.Close())
	m.bell.Ring("late")
	m.bell.Wait()
	assert.Equal(t, 0, f.chime.count())
}

// At most one of playing/running is set, it matches the view, and the
// ticker runs exactly when the Timer is running.
func TestSessionMachine_ActivityMatchesView(t *testing.T) {
	f := newFixture(DefaultMachineOptions())
	defer f.machine.Close()
	m := f.machine
	rng := rand.New(rand.NewSource(7))

	actions := []func(){
		func() { m.SelectTrack([]string{"one", "two", "three", "x"}[rng.Intn(4)]) },
		m.OpenTimer,
		m.Back,
		m.TogglePlay,
		m.TogglePlay,
		m.AddMinute,
		m.ResetTimer,
		func() { _ = m.SetDuration(domain.TimerPresets[rng.Intn(len(domain.TimerPresets))]) },
		func() { f.backend.ended() },
		func() { f.backend.position(float64(rng.Intn(600))) },
		func() { f.clock.Advance(time.Duration(rng.Intn(2000)) * time.Millisecond) },
	}

	for i := 0; i < 2000; i++ {
		actions[rng.Intn(len(actions))]()
		m.Flush()

		s := m.Snapshot()
		assert.False(t, s.IsPlaying && s.IsRunning, "step %d", i)
		if s.IsPlaying {
			assert.Equal(t, domain.ViewPlayer, s.View, "step %d", i)
		}
		if s.IsRunning {
			assert.Equal(t, domain.ViewTimer, s.View, "step %d", i)
		}

		m.mu.Lock()
		tickerRunning := m.ticker.Running()
		tracked := m.tracker != nil
		m.mu.Unlock()
		assert.Equal(t, s.View == domain.ViewTimer && s.IsRunning, tickerRunning, "step %d", i)
		assert.Equal(t, s.View == domain.ViewPlayer, tracked, "step %d", i)
	}
}
