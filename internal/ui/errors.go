package ui

import "strings"

// ErrorMessage represents a structured, actionable error to present to users.
type ErrorMessage struct {
	Problem string   // one-line problem statement
	Causes  []string // possible causes
	Actions []string // actionable steps to resolve
}

// Format renders the error using the color theme.
func (e ErrorMessage) Format(c *ColorConfig) string {
	var b strings.Builder
	b.WriteString(c.StatusIcon("fail"))
	b.WriteString(" ")
	b.WriteString(c.Header("Error"))
	b.WriteString("\n")
	if e.Problem != "" {
		b.WriteString("  " + c.Label("Problem") + ": " + e.Problem + "\n")
	}
	if len(e.Causes) > 0 {
		b.WriteString("  " + c.Label("Possible causes") + ":\n")
		for _, it := range e.Causes {
			b.WriteString("   • " + it + "\n")
		}
	}
	if len(e.Actions) > 0 {
		b.WriteString("  " + c.Label("Try") + ":\n")
		for _, it := range e.Actions {
			b.WriteString("   → " + c.Command(it) + "\n")
		}
	}
	return b.String()
}
