package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type SummaryRow struct {
	Label string
	Value string
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(row.Label))
		valueWidth = max(valueWidth, lipgloss.Width(row.Value))
	}

	hline := dimStyle.Render(strings.Repeat("-", labelWidth+valueWidth+3))
	lines := []string{hline}
	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		lines = append(lines, fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value)))
	}
	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

// RenderFailures lists path: error pairs, one per line.
func RenderFailures(failures []SummaryRow) string {
	if len(failures) == 0 {
		return ""
	}
	lines := []string{warnStyle.Render(fmt.Sprintf("%d file(s) failed:", len(failures)))}
	for _, f := range failures {
		lines = append(lines, "  "+labelStyle.Render(f.Label)+dimStyle.Render(": "+f.Value))
	}
	return strings.Join(lines, "\n")
}

// RenderOK renders a one-line success message.
func RenderOK(msg string) string {
	return okStyle.Render(msg)
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
)
