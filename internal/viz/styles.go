// Package viz renders terminal summaries, plots, and the live progress
// view for tracking runs.
package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(20)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

// Summary renders a titled panel of label/value rows.
func Summary(title string, rows [][2]string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r[0]))
		b.WriteString(valueStyle.Render(r[1]))
		b.WriteString("\n")
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// ProgressBar renders a fixed-width bar filled to percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	filled := int(percent * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return barStyle.Render(bar)
}
