package tui

import (
	"reflect"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/xvierd/zenpath/internal/config"
	"github.com/xvierd/zenpath/internal/domain"
)

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	if len(resolved.BackgroundColors) == 0 {
		resolved.BackgroundColors = defaults.BackgroundColors
	}
	return resolved
}

// palette is the set of colors derived from the theme for one frame.
type palette struct {
	title  lipgloss.Color
	text   lipgloss.Color
	help   lipgloss.Color
	paused lipgloss.Color
	mood   lipgloss.Color
}

func (m Model) palette() palette {
	p := palette{
		title:  lipgloss.Color(m.theme.ColorTitle),
		text:   lipgloss.Color(m.theme.ColorTitle),
		help:   lipgloss.Color(m.theme.ColorHelp),
		paused: lipgloss.Color(m.theme.ColorPaused),
		mood:   m.moodColor(),
	}
	if m.light {
		p.title = lipgloss.Color("#2B2B2B")
		p.text = lipgloss.Color("#3A3A3A")
	}
	return p
}

// moodColor picks the accent for the current track's background.
func (m Model) moodColor() lipgloss.Color {
	return trackMood(m.theme, m.snap.CurrentTrack.BackgroundRef+m.backgroundShift)
}

// trackMood maps a background index onto the theme's background colors.
func trackMood(theme config.ThemeConfig, background int) lipgloss.Color {
	colors := theme.BackgroundColors
	if len(colors) == 0 {
		return lipgloss.Color(theme.ColorAccent)
	}
	idx := background % len(colors)
	if idx < 0 {
		idx += len(colors)
	}
	return lipgloss.Color(colors[idx])
}

// phaseColor returns the countdown color. The expiring window blends from
// the mood color to the expiring color, and the overtime warning alternates
// with the overtime color on every pulse.
func (m Model) phaseColor() lipgloss.Color {
	if !m.snap.IsRunning && m.snap.CountdownSeconds == m.snap.SelectedDurationSeconds {
		return m.moodColor()
	}
	switch domain.PhaseOf(m.snap.CountdownSeconds) {
	case domain.PhaseExpiring:
		return blend(string(m.moodColor()), m.theme.ColorExpiring, domain.ExpiringRatio(m.snap.CountdownSeconds))
	case domain.PhaseOvertime:
		return lipgloss.Color(m.theme.ColorOvertime)
	case domain.PhaseOvertimeWarning:
		if m.pulse%2 == 0 {
			return lipgloss.Color(m.theme.ColorWarning)
		}
		return lipgloss.Color(m.theme.ColorOvertime)
	default:
		return m.moodColor()
	}
}

// blend mixes two hex colors in Lab space. Unparseable input returns to.
func blend(from, to string, t float64) lipgloss.Color {
	a, err := colorful.Hex(from)
	if err != nil {
		return lipgloss.Color(to)
	}
	b, err := colorful.Hex(to)
	if err != nil {
		return lipgloss.Color(from)
	}
	switch {
	case t <= 0:
		return lipgloss.Color(from)
	case t >= 1:
		return lipgloss.Color(to)
	}
	return lipgloss.Color(a.BlendLab(b, t).Clamped().Hex())
}
