package components

import (
	"strings"

	"github.com/theirongolddev/wattwatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// right-aligned info on the right.
func RenderStatusBar(t theme.Theme, width int, info string) string {
	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Width(width)

	left := " [c]lear  [q]uit"
	right := ""
	if info != "" {
		right = info + " "
	}

	// Pad middle
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
