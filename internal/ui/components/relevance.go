package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RelevanceBar renders a score in [0,1] as a filled bar followed by a percentage
func RelevanceBar(score float64, width int, color lipgloss.AdaptiveColor) string {
	if width < 1 {
		width = 1
	}
	score = min(max(score, 0), 1)

	filledWidth := int(float64(width)*score + 0.5)
	filled := strings.Repeat("█", filledWidth)
	empty := strings.Repeat("░", width-filledWidth)

	barStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"})

	return fmt.Sprintf("[%s%s] %3.0f%%", barStyle.Render(filled), mutedStyle.Render(empty), score*100)
}
