package ui

import (
	"os"
	"strings"
)

// ANSI escape codes used by the theme.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Cyan = "\033[36m"

	BrightBlack   = "\033[90m"
	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightCyan    = "\033[96m"
	BrightMagenta = "\033[95m"
)

// Theme defines the color scheme for different UI elements
type Theme struct {
	Success string
	Warning string
	Error   string
	Info    string

	Header      string
	SubHeader   string
	Label       string
	Value       string
	Command     string
	Description string
	Separator   string
	Prompt      string
	Pending     string
}

// DefaultTheme returns the default color theme
func DefaultTheme() *Theme {
	return &Theme{
		Success: BrightGreen,
		Warning: BrightYellow,
		Error:   BrightRed,
		Info:    BrightCyan,

		Header:      Bold + BrightCyan,
		SubHeader:   Bold + Cyan,
		Label:       Bold, // terminal default foreground stays readable on light and dark backgrounds
		Value:       "",
		Command:     BrightGreen,
		Description: BrightBlack,
		Separator:   BrightBlack,
		Prompt:      Bold + BrightMagenta,
		Pending:     BrightBlack,
	}
}

// ColorConfig manages color output settings
type ColorConfig struct {
	Enabled      bool
	EmojiEnabled bool
	Theme        *Theme
}

// NewColorConfig honours NO_COLOR and dumb terminals.
func NewColorConfig() *ColorConfig {
	term := os.Getenv("TERM")
	return &ColorConfig{
		Enabled:      os.Getenv("NO_COLOR") == "" && term != "dumb" && term != "",
		EmojiEnabled: true,
		Theme:        DefaultTheme(),
	}
}

// Apply applies a color to text if colors are enabled
func (c *ColorConfig) Apply(color, text string) string {
	if !c.Enabled || color == "" {
		return text
	}
	return color + text + Reset
}

func (c *ColorConfig) Success(text string) string     { return c.Apply(c.Theme.Success, text) }
func (c *ColorConfig) Warning(text string) string     { return c.Apply(c.Theme.Warning, text) }
func (c *ColorConfig) Error(text string) string       { return c.Apply(c.Theme.Error, text) }
func (c *ColorConfig) Info(text string) string        { return c.Apply(c.Theme.Info, text) }
func (c *ColorConfig) Header(text string) string      { return c.Apply(c.Theme.Header, text) }
func (c *ColorConfig) SubHeader(text string) string   { return c.Apply(c.Theme.SubHeader, text) }
func (c *ColorConfig) Label(text string) string       { return c.Apply(c.Theme.Label, text) }
func (c *ColorConfig) Value(text string) string       { return c.Apply(c.Theme.Value, text) }
func (c *ColorConfig) Command(text string) string     { return c.Apply(c.Theme.Command, text) }
func (c *ColorConfig) Description(text string) string { return c.Apply(c.Theme.Description, text) }
func (c *ColorConfig) Prompt(text string) string      { return c.Apply(c.Theme.Prompt, text) }

// Separator returns a colored separator line
func (c *ColorConfig) Separator(width int) string {
	return c.Apply(c.Theme.Separator, strings.Repeat("─", width))
}

// StatusIcon returns the icon for an installer step or check status.
func (c *ColorConfig) StatusIcon(status string) string {
	type icon struct{ emoji, plain, color string }
	var ic icon
	switch strings.ToLower(status) {
	case "ok", "pass", "done", "active":
		ic = icon{"✓", "[OK]", c.Theme.Success}
	case "warn", "warning", "skipped":
		ic = icon{"⚠", "[WARN]", c.Theme.Warning}
	case "fail", "failed", "error":
		ic = icon{"✗", "[ERR]", c.Theme.Error}
	case "info", "dry-run":
		ic = icon{"ℹ", "[INFO]", c.Theme.Info}
	default:
		ic = icon{"○", "[ ]", c.Theme.Pending}
	}
	if c.EmojiEnabled {
		return c.Apply(ic.color, ic.emoji)
	}
	return c.Apply(ic.color, ic.plain)
}
