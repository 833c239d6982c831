package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primary = lipgloss.Color("#8BC34A")
	accent  = lipgloss.Color("#2196F3")
	muted   = lipgloss.Color("#7a8699")
	warning = lipgloss.Color("#FFC107")
)

// styles used by show and structures
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primary)
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(muted)
	missingStyle = lipgloss.NewStyle().Italic(true).Foreground(warning)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)

// table renders rows as left-aligned columns padded to the widest cell.
func table(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(lipgloss.NewStyle().Width(widths[i] + 2).Render(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
