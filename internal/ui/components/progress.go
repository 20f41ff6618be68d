package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mcqflow/internal/ui/theme"
)

// ProgressBar displays a horizontal progress bar.
type ProgressBar struct {
	Label   string
	Percent float64
	Width   int
}

func NewProgressBar(label string, percent float64, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, Width: width}
}

func (p ProgressBar) View() string {
	var out string
	if p.Label != "" {
		out = theme.Body.Render(p.Label) + "  "
	}

	const percentWidth = 6 // "  100%"
	barWidth := p.Width - lipgloss.Width(out) - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	pct := min(max(p.Percent, 0), 1)
	filled := int(float64(barWidth) * pct)

	out += lipgloss.NewStyle().Background(theme.Secondary).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(theme.Border).Render(strings.Repeat(" ", barWidth-filled))
	out += lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %d%%", int(pct*100)))
	return out
}
