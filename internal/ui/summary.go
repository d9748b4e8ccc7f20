package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SummaryLine is one labelled row of a summary box.
type SummaryLine struct {
	Label string
	Value string
}

// SummaryBox renders a titled, bordered block of label/value rows followed
// by free-form notes. Without colors it renders plain text with the same
// layout.
func SummaryBox(c *ColorConfig, title string, lines []SummaryLine, notes []string) string {
	width := 0
	for _, l := range lines {
		if n := len(l.Label); n > width {
			width = n
		}
	}

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s  %s\n", c.Label(fmt.Sprintf("%-*s", width, l.Label)), l.Value)
	}
	if len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			b.WriteString("• " + n + "\n")
		}
	}
	body := strings.TrimRight(b.String(), "\n")

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true)
	if c.Enabled {
		style = style.BorderForeground(lipgloss.Color("14"))
		titleStyle = titleStyle.Foreground(lipgloss.Color("14"))
	}
	return style.Render(titleStyle.Render(title) + "\n\n" + body)
}
