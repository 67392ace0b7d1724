package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const glyphHeight = 5

// digitMap maps each digit character (0-9), colon and plus to a 5-line
// block representation.
var digitMap = map[rune][glyphHeight]string{
	'0': {"████", "█  █", "█  █", "█  █", "████"},
	'1': {" █ ", "██ ", " █ ", " █ ", "███"},
	'2': {"████", "   █", "████", "█   ", "████"},
	'3': {"████", "   █", "████", "   █", "████"},
	'4': {"█  █", "█  █", "████", "   █", "   █"},
	'5': {"████", "█   ", "████", "   █", "████"},
	'6': {"████", "█   ", "████", "█  █", "████"},
	'7': {"████", "   █", "  █ ", " █  ", " █  "},
	'8': {"████", "█  █", "████", "█  █", "████"},
	'9': {"████", "█  █", "████", "   █", "████"},
	':': {" ", "█", " ", "█", " "},
	'+': {"   ", " █ ", "███", " █ ", "   "},
}

// minBigFontWidth is the narrowest terminal that gets block digits.
const minBigFontWidth = 40

// renderBigClock renders a clock string like "14:32" in block digits.
// Narrow terminals get a single bold line instead.
func renderBigClock(clock string, color lipgloss.Color, width int) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(color)
	if width < minBigFontWidth {
		return style.Render(clock)
	}

	var lines [glyphHeight]string
	for _, ch := range clock {
		glyph, ok := digitMap[ch]
		if !ok {
			continue
		}
		for i := range lines {
			if lines[i] != "" {
				lines[i] += " "
			}
			lines[i] += glyph[i]
		}
	}

	styled := make([]string, glyphHeight)
	for i, line := range lines {
		styled[i] = style.Render(line)
	}
	return strings.Join(styled, "\n")
}
