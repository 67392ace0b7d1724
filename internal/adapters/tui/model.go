// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/xvierd/zenpath/internal/config"
	"github.com/xvierd/zenpath/internal/domain"
	"github.com/xvierd/zenpath/internal/ports"
)

// pulsePeriod drives the overtime warning blink.
const pulsePeriod = 500 * time.Millisecond

// snapshotMsg carries a session snapshot pushed by the renderer.
type snapshotMsg struct {
	snapshot domain.Snapshot
}

// captionsMsg carries the captions loaded for a track.
type captionsMsg struct {
	trackID  string
	captions []domain.Caption
}

type pulseMsg time.Time

// Options configures the terminal renderer.
type Options struct {
	Theme      *config.ThemeConfig
	ShowQuotes bool
	Captions   ports.CaptionSource
	// Search filters the catalog for the home screen. Nil disables filtering.
	Search func(query string) []domain.Track
	Logger *zap.Logger
}

// Model represents the TUI state. Session state is read from snapshots only;
// every change goes through ports.Session.Dispatch.
type Model struct {
	session  ports.Session
	snap     domain.Snapshot
	opts     Options
	logger   *zap.Logger
	theme    config.ThemeConfig
	keys     keyMap
	help     help.Model
	progress progress.Model

	light           bool
	backgroundShift int
	pulse           int

	filter    textinput.Model
	filtering bool
	tracks    []domain.Track
	cursor    int

	captionsFor string
	captions    []domain.Caption

	lastErr error
	width   int
	height  int
}

// NewModel creates a new TUI model over a session.
func NewModel(session ports.Session, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := resolveTheme(opts.Theme)

	ti := textinput.New()
	ti.Placeholder = "filter tracks"
	ti.Prompt = "/ "
	ti.CharLimit = 60
	ti.Width = 30

	return Model{
		session:  session,
		snap:     session.Snapshot(),
		opts:     opts,
		logger:   logger,
		theme:    theme,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithoutPercentage()),
		light:    theme.Mode == "light",
		filter:   ti,
		tracks:   session.Catalog().Tracks(),
	}
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(pulseCmd(), m.syncCaptions())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = progressWidth(msg.Width)
		return m, nil

	case snapshotMsg:
		return m, m.applySnapshot(msg.snapshot)

	case captionsMsg:
		if msg.trackID == m.captionsFor {
			m.captions = msg.captions
		}
		return m, nil

	case pulseMsg:
		m.pulse++
		return m, pulseCmd()

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Theme):
		m.light = !m.light
		return m, nil
	case key.Matches(msg, m.keys.Background):
		m.backgroundShift++
		return m, nil
	}

	switch m.snap.View {
	case domain.ViewHome:
		return m.updateHome(msg)
	case domain.ViewPlayer:
		return m.updatePlayer(msg)
	case domain.ViewTimer:
		return m.updateTimer(msg)
	}
	return m, nil
}

func (m Model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tracks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(m.tracks) {
			return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdSelectTrack, TrackID: m.tracks[m.cursor].ID})
		}
	case key.Matches(msg, m.keys.Filter):
		if m.opts.Search != nil {
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		}
	case key.Matches(msg, m.keys.OpenTimer):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdOpenTimer})
	}
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.Reset()
		m.tracks = m.session.Catalog().Tracks()
		m.cursor = 0
		return m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.tracks = m.opts.Search(m.filter.Value())
	if m.cursor >= len(m.tracks) {
		m.cursor = max(len(m.tracks)-1, 0)
	}
	return m, cmd
}

func (m Model) updatePlayer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdToggle})
	case key.Matches(msg, m.keys.Back):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdBack})
	}
	return m, nil
}

func (m Model) updateTimer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdToggle})
	case key.Matches(msg, m.keys.Back):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdBack})
	case key.Matches(msg, m.keys.Presets):
		idx := int(msg.String()[0] - '1')
		if idx >= 0 && idx < len(domain.TimerPresets) {
			return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdSetDuration, Seconds: domain.TimerPresets[idx]})
		}
	case key.Matches(msg, m.keys.AddMinute):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdAddMinute})
	case key.Matches(msg, m.keys.Reset):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdReset})
	case key.Matches(msg, m.keys.Main):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdSharingMode, Mode: domain.SharingMain})
	case key.Matches(msg, m.keys.Supplement):
		return m, m.dispatch(ports.SessionCommand{Kind: ports.CmdSharingMode, Mode: domain.SharingSupplement})
	}
	return m, nil
}

// dispatch sends a command to the session and adopts the resulting
// snapshot without waiting for the renderer push.
func (m *Model) dispatch(cmd ports.SessionCommand) tea.Cmd {
	if err := m.session.Dispatch(cmd); err != nil {
		m.logger.Warn("session command failed", zap.String("command", string(cmd.Kind)), zap.Error(err))
		m.lastErr = err
	} else {
		m.lastErr = nil
	}
	return m.applySnapshot(m.session.Snapshot())
}

// applySnapshot adopts s unless a newer snapshot was already seen.
func (m *Model) applySnapshot(s domain.Snapshot) tea.Cmd {
	if s.Version < m.snap.Version {
		return nil
	}
	m.snap = s
	return m.syncCaptions()
}

// syncCaptions loads captions when the Player shows a new track.
func (m *Model) syncCaptions() tea.Cmd {
	if m.snap.View != domain.ViewPlayer {
		return nil
	}
	track := m.snap.CurrentTrack
	if track.ID == m.captionsFor {
		return nil
	}
	m.captionsFor = track.ID
	m.captions = nil
	if m.opts.Captions == nil || track.CaptionsRef == "" {
		return nil
	}

	source := m.opts.Captions
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		captions, err := source.Captions(ctx, track)
		if err != nil {
			logger.Debug("captions unavailable", zap.String("track_id", track.ID), zap.Error(err))
			return nil
		}
		return captionsMsg{trackID: track.ID, captions: captions}
	}
}

func pulseCmd() tea.Cmd {
	return tea.Tick(pulsePeriod, func(t time.Time) tea.Msg {
		return pulseMsg(t)
	})
}

func progressWidth(width int) int {
	w := width - 8
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}
