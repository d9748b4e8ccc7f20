package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

// Prompter abstracts interactive terminal I/O for testability.
type Prompter interface {
	// ReadLine displays the prompt and reads a line of input.
	ReadLine(prompt string) (string, error)
	// ReadSecret reads a line without echo.
	ReadSecret(prompt string) (string, error)
	// IsInteractive returns whether the terminal supports interactive input.
	IsInteractive() bool
}

// TTYPrompter is the production Prompter. It falls back to /dev/tty when
// stdin is not a terminal (e.g. curl | bash).
type TTYPrompter struct {
	Out            io.Writer
	NonInteractive bool

	reader *bufio.Reader
}

func (p *TTYPrompter) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

func (p *TTYPrompter) input() (*bufio.Reader, error) {
	if p.reader != nil {
		return p.reader, nil
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		p.reader = bufio.NewReader(os.Stdin)
		return p.reader, nil
	}
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("no interactive terminal available: %w", err)
	}
	p.reader = bufio.NewReader(tty)
	return p.reader, nil
}

func (p *TTYPrompter) ReadLine(prompt string) (string, error) {
	fmt.Fprint(p.out(), prompt)
	r, err := p.input()
	if err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *TTYPrompter) ReadSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.ReadLine(prompt)
	}
	fmt.Fprint(p.out(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *TTYPrompter) IsInteractive() bool {
	if p.NonInteractive {
		return false
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return true
	}
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err == nil {
		tty.Close()
		return true
	}
	return false
}

// maxAttempts bounds re-prompting after invalid input.
const maxAttempts = 3

// Ask prompts until check accepts the answer. An empty answer takes def
// when def is non-empty. Non-interactive sessions return def, or an
// InvalidArgs error naming flag when there is no default.
func Ask(p Prompter, question, def, flag string, check func(string) error) (string, error) {
	if !p.IsInteractive() {
		if def == "" {
			return "", exitcodes.InvalidArgsErrorf("%s is required in non-interactive mode", flag)
		}
		if check != nil {
			if err := check(def); err != nil {
				return "", err
			}
		}
		return def, nil
	}

	prompt := question + ": "
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]: ", question, def)
	}
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		ans, err := p.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		if ans == "" {
			ans = def
		}
		if ans == "" {
			lastErr = exitcodes.ValidationErrf("%s must not be empty", strings.ToLower(question))
			continue
		}
		if check == nil {
			return ans, nil
		}
		if lastErr = check(ans); lastErr == nil {
			return ans, nil
		}
		fmt.Fprintf(promptOut(p), "  %s\n", lastErr)
	}
	return "", lastErr
}

// AskList collects answers until an empty line. Each answer must pass check.
func AskList(p Prompter, question string, check func(string) error) ([]string, error) {
	if !p.IsInteractive() {
		return nil, nil
	}
	var out []string
	for {
		ans, err := p.ReadLine(fmt.Sprintf("%s (empty to finish): ", question))
		if err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		if ans == "" {
			return out, nil
		}
		if check != nil {
			if err := check(ans); err != nil {
				fmt.Fprintf(promptOut(p), "  %s\n", err)
				continue
			}
		}
		out = append(out, ans)
	}
}

// Confirm asks a y/N question. assumeYes answers yes without asking;
// non-interactive sessions answer no.
func Confirm(p Prompter, question string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !p.IsInteractive() {
		return false, nil
	}
	ans, err := p.ReadLine(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(ans) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func promptOut(p Prompter) io.Writer {
	if t, ok := p.(*TTYPrompter); ok {
		return t.out()
	}
	if w, ok := p.(interface{ Output() io.Writer }); ok {
		return w.Output()
	}
	return io.Discard
}
