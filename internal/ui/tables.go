package ui

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table renders a monospaced table. Column widths come from the widest
// visible cell, so colored cells align with plain ones.
func Table(c *ColorConfig, headers []string, rows [][]string) string {
	w := make([]int, len(headers))
	for i, h := range headers {
		w[i] = visibleLen(h)
	}
	for _, r := range rows {
		for i := 0; i < len(r) && i < len(w); i++ {
			if l := visibleLen(r[i]); l > w[i] {
				w[i] = l
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(pad(c.Label(h), w[i]))
	}
	b.WriteString("\n")
	total := 0
	for _, n := range w {
		total += n
	}
	b.WriteString(c.Separator(total + 2*(len(w)-1)))
	b.WriteString("\n")
	for _, r := range rows {
		for i := range w {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := ""
			if i < len(r) {
				cell = r[i]
			}
			b.WriteString(pad(cell, w[i]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func visibleLen(s string) int { return utf8.RuneCountInString(ansiRE.ReplaceAllString(s, "")) }

func pad(s string, width int) string {
	if n := width - visibleLen(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
