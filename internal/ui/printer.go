package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Printer centralizes output formatting for commands.
//   - Respects --output (text|json|yaml)
//   - Uses ColorConfig for styling when printing text
type Printer struct {
	format string
	out    io.Writer
	quiet  bool
	Colors *ColorConfig
}

// NewPrinter returns a Printer writing to stdout with global color settings.
func NewPrinter(format string) Printer {
	return Printer{format: format, out: os.Stdout, quiet: GetGlobal().Quiet, Colors: NewColorConfigFromGlobal()}
}

// NewPrinterTo returns a Printer writing to w. Used by tests.
func NewPrinterTo(w io.Writer, format string, c *ColorConfig) Printer {
	if c == nil {
		c = &ColorConfig{Theme: DefaultTheme()}
	}
	return Printer{format: format, out: w, Colors: c}
}

// Format is the --output value the printer was built with.
func (p Printer) Format() string { return p.format }

// Structured reports whether output should be machine readable.
func (p Printer) Structured() bool { return p.format == "json" || p.format == "yaml" }

// Writer is the underlying output.
func (p Printer) Writer() io.Writer { return p.out }

// Textf prints formatted text; suppressed in structured modes.
func (p Printer) Textf(format string, a ...any) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.out, format, a...)
}

// Emit writes v as JSON or YAML depending on the output format.
func (p Printer) Emit(v any) error {
	switch p.format {
	case "yaml":
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func (p Printer) line(status, msg string) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Colors.StatusIcon(status), msg)
}

func (p Printer) Success(msg string) { p.line("ok", msg) }

// Info prints an informational line; hidden with --quiet.
func (p Printer) Info(msg string) {
	if p.quiet {
		return
	}
	p.line("info", msg)
}

func (p Printer) Warn(msg string)  { p.line("warn", msg) }
func (p Printer) Error(msg string) { p.line("fail", msg) }

// Header prints a section header.
func (p Printer) Header(title string) {
	if p.Structured() {
		return
	}
	fmt.Fprintln(p.out, p.Colors.Header(" "+title+" "))
}

// Section prints a sub-header with separator.
func (p Printer) Section(title string) {
	if p.Structured() || p.quiet {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.Colors.SubHeader(title))
	fmt.Fprintln(p.out, p.Colors.Separator(40))
}

// KeyValueLine prints "key: value".
func (p Printer) KeyValueLine(key, value string) {
	if p.Structured() {
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Colors.Label(key+":"), p.Colors.Value(value))
}
