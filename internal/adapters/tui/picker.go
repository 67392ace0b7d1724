package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/xvierd/zenpath/internal/config"
	"github.com/xvierd/zenpath/internal/domain"
)

// PickerResult holds the outcome of a track picker.
type PickerResult struct {
	Track   domain.Track
	Aborted bool
}

// trackPicker lists tracks with their mood swatch and shows the phrase of
// the highlighted one.
type trackPicker struct {
	title   string
	tracks  []domain.Track
	theme   config.ThemeConfig
	keys    keyMap
	cursor  int
	chosen  bool
	aborted bool
}

func newTrackPicker(title string, tracks []domain.Track, theme config.ThemeConfig) trackPicker {
	return trackPicker{title: title, tracks: tracks, theme: theme, keys: defaultKeyMap()}
}

func (m trackPicker) Init() tea.Cmd { return nil }

func (m trackPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Up):
		m.cursor = (m.cursor - 1 + len(m.tracks)) % len(m.tracks)
	case key.Matches(km, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(m.tracks)
	case key.Matches(km, m.keys.Select):
		m.chosen = true
		return m, tea.Quit
	case key.Matches(km, m.keys.Back), key.Matches(km, m.keys.Quit):
		m.aborted = true
		return m, tea.Quit
	}
	return m, nil
}

func (m trackPicker) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	titleWidth := 0
	for _, t := range m.tracks {
		titleWidth = max(titleWidth, runewidth.StringWidth(t.Title))
	}

	var b strings.Builder
	b.WriteString("\n  " + titleStyle.Render(m.title) + "\n\n")
	for i, t := range m.tracks {
		mood := trackMood(m.theme, t.BackgroundRef)
		swatch := lipgloss.NewStyle().Foreground(mood).Render("●")
		title := t.Title + strings.Repeat(" ", titleWidth-runewidth.StringWidth(t.Title))
		row := title + "  " + trackLength(t)
		if i == m.cursor {
			b.WriteString("  ▸ " + swatch + " " + lipgloss.NewStyle().Bold(true).Foreground(mood).Render(row) + "\n")
			if detail := trackDetail(t); detail != "" {
				b.WriteString("        " + dim.Render(detail) + "\n")
			}
			continue
		}
		b.WriteString("    " + swatch + " " + dim.Render(row) + "\n")
	}
	b.WriteString("\n  " + dim.Render("↑/↓ move · enter play · esc cancel") + "\n")
	return b.String()
}

func trackLength(t domain.Track) string {
	if t.DurationSeconds <= 0 {
		return "--:--"
	}
	return domain.FormatClock(t.DurationSeconds)
}

func trackDetail(t domain.Track) string {
	parts := make([]string, 0, 2)
	if t.Subtitle != "" {
		parts = append(parts, t.Subtitle)
	}
	if t.Phrase != "" {
		parts = append(parts, t.Phrase)
	}
	return strings.Join(parts, " · ")
}

// RunPicker shows the track picker on the terminal and returns the choice.
func RunPicker(title string, tracks []domain.Track, theme *config.ThemeConfig) PickerResult {
	if len(tracks) == 0 {
		return PickerResult{Aborted: true}
	}

	result, err := tea.NewProgram(newTrackPicker(title, tracks, resolveTheme(theme))).Run()
	if err != nil {
		return PickerResult{Aborted: true}
	}
	final := result.(trackPicker)
	if !final.chosen {
		return PickerResult{Aborted: true}
	}
	return PickerResult{Track: final.tracks[final.cursor]}
}
