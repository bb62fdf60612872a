package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	emptyBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// RenderResourceBar draws a labeled progress bar for a single percentage,
// colored green/yellow/red by how close it is to full.
func RenderResourceBar(label string, percent float64, width int) string {
	barWidth := width - len(label) - 10
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int((percent / 100.0) * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	style := barStyle
	if percent >= 100 {
		style = criticalStyle
	} else if percent >= 80 {
		style = warningStyle
	}

	bar := style.Render(strings.Repeat("█", filled)) +
		emptyBarStyle.Render(strings.Repeat("░", empty))

	return fmt.Sprintf("%s [%s] %5.1f%%", label, bar, percent)
}

// FormatBytes converts a byte count to a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
