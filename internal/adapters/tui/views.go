package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/zenpath/internal/domain"
)

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var sections []string
	switch m.snap.View {
	case domain.ViewPlayer:
		sections = m.viewPlayer()
	case domain.ViewTimer:
		sections = m.viewTimer()
	default:
		sections = m.viewHome()
	}

	if m.lastErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorExpiring))
		sections = append(sections, "", errStyle.Render("Error: "+m.lastErr.Error()))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewHome() []string {
	p := m.palette()
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.title).MarginBottom(1)
	activeStyle := lipgloss.NewStyle().Foreground(p.mood).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(p.help)

	sections := []string{titleStyle.Render("zenpath")}

	if m.filtering || m.filter.Value() != "" {
		sections = append(sections, m.filter.View(), "")
	}

	if len(m.tracks) == 0 {
		sections = append(sections, dimStyle.Render("No tracks match"))
	}

	var list strings.Builder
	for i, t := range m.tracks {
		length := "--:--"
		if t.DurationSeconds > 0 {
			length = domain.FormatClock(t.DurationSeconds)
		}
		label := t.Title
		if t.Subtitle != "" {
			label += " · " + t.Subtitle
		}
		if i == m.cursor {
			list.WriteString(activeStyle.Render(fmt.Sprintf("▸ %-28s %s", label, length)))
		} else {
			list.WriteString(dimStyle.Render(fmt.Sprintf("  %-28s %s", label, length)))
		}
		if i < len(m.tracks)-1 {
			list.WriteString("\n")
		}
	}
	sections = append(sections, list.String())

	sections = append(sections, "")
	timerHint := fmt.Sprintf("Sharing timer · %s", domain.FormatClock(m.snap.SelectedDurationSeconds))
	sections = append(sections, lipgloss.NewStyle().Foreground(p.text).Render(timerHint))

	sections = append(sections, "", m.helpView(m.keys.homeHelp()))
	return sections
}

func (m Model) viewPlayer() []string {
	p := m.palette()
	track := m.snap.CurrentTrack
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.mood)
	subStyle := lipgloss.NewStyle().Foreground(p.help)
	phraseStyle := lipgloss.NewStyle().Italic(true).Foreground(p.text)

	sections := []string{titleStyle.Render(track.Title)}
	if track.Subtitle != "" {
		sections = append(sections, subStyle.Render(track.Subtitle))
	}
	if track.Phrase != "" {
		sections = append(sections, "", phraseStyle.Render(track.Phrase))
	}

	sections = append(sections, "")
	if c, ok := domain.CaptionAt(m.captions, m.snap.ElapsedSeconds); ok {
		sections = append(sections, lipgloss.NewStyle().Foreground(p.text).Render(c.Text))
	} else {
		sections = append(sections, "")
	}

	sections = append(sections, "", m.progressBar(p.mood).ViewAs(m.snap.PlaybackProgress()))
	clock := fmt.Sprintf("%s / %s",
		domain.FormatClock(m.snap.ElapsedSeconds),
		domain.FormatClock(m.snap.DurationSeconds))
	sections = append(sections, subStyle.Render(clock))

	if m.snap.HandoffPending {
		sections = append(sections, "", subStyle.Render("Sharing timer next..."))
	} else if !m.snap.Active() {
		sections = append(sections, "", m.pausedBadge(p))
	}

	sections = append(sections, "", m.helpView(m.keys.playerHelp()))
	return sections
}

func (m Model) viewTimer() []string {
	p := m.palette()
	color := m.phaseColor()
	phase := domain.PhaseOf(m.snap.CountdownSeconds)
	label := domain.SharingModeFor(m.snap.SelectedDurationSeconds).Label()
	sections := []string{lipgloss.NewStyle().Bold(true).Foreground(p.title).Render(label)}

	clock := domain.FormatClock(m.snap.CountdownSeconds)
	if phase.IsOvertime() {
		clock = "+" + clock
	}
	sections = append(sections, "", renderBigClock(clock, color, m.width))

	if phase.IsOvertime() {
		sections = append(sections, lipgloss.NewStyle().Bold(true).Foreground(color).Render("overtime"))
	}

	if m.opts.ShowQuotes {
		q := domain.QuoteAt(m.snap.CountdownSeconds)
		quoteStyle := lipgloss.NewStyle().Faint(true).Foreground(p.text)
		left := quoteStyle.Render(q.Left[0] + "\n" + q.Left[1])
		right := quoteStyle.Render(q.Right)
		sections = append(sections, "", lipgloss.JoinHorizontal(lipgloss.Top, left, "    ", right))
	}

	sections = append(sections, "", m.progressBar(color).ViewAs(m.snap.TimerProgress()))
	sections = append(sections, m.presetRow(p))

	if !m.snap.Active() {
		sections = append(sections, "", m.pausedBadge(p))
	}
	sections = append(sections, "", m.helpView(m.keys.timerHelp()))
	return sections
}

// presetRow lists the presets, highlighting the selected one.
func (m Model) presetRow(p palette) string {
	active := lipgloss.NewStyle().Bold(true).Foreground(p.mood)
	dim := lipgloss.NewStyle().Foreground(p.help)

	parts := make([]string, 0, len(domain.TimerPresets)+1)
	matched := false
	for i, secs := range domain.TimerPresets {
		text := fmt.Sprintf("[%d] %dm", i+1, secs/60)
		if secs == m.snap.SelectedDurationSeconds {
			parts = append(parts, active.Render(text))
			matched = true
		} else {
			parts = append(parts, dim.Render(text))
		}
	}
	if !matched {
		parts = append(parts, active.Render(fmt.Sprintf("%dm", m.snap.SelectedDurationSeconds/60)))
	}
	return strings.Join(parts, "  ")
}

func (m Model) pausedBadge(p palette) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(p.paused).
		Padding(0, 1).
		Render("PAUSED")
}

func (m Model) progressBar(color lipgloss.Color) progress.Model {
	bar := progress.New(progress.WithSolidFill(string(color)), progress.WithoutPercentage())
	bar.Width = m.progress.Width
	if bar.Width == 0 {
		bar.Width = progressWidth(m.width)
	}
	return bar
}

func (m Model) helpView(bindings []key.Binding) string {
	return m.help.ShortHelpView(bindings)
}
