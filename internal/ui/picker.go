package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

// Option is one entry of a selection list.
type Option struct {
	Name        string
	Description string
}

type pickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func (k pickerKeys) ShortHelp() []key.Binding  { return []key.Binding{k.Up, k.Down, k.Select, k.Quit} }
func (k pickerKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultPickerKeys = pickerKeys{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("q", "cancel")),
}

var (
	pickerCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	pickerDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type pickerModel struct {
	title    string
	options  []Option
	cursor   int
	chosen   int
	canceled bool
	keys     pickerKeys
	help     help.Model
}

func newPickerModel(title string, options []Option, def string) pickerModel {
	m := pickerModel{title: title, options: options, chosen: -1, keys: defaultPickerKeys, help: help.New()}
	for i, o := range options {
		if o.Name == def {
			m.cursor = i
		}
	}
	return m
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(km, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(km, m.keys.Down):
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}
	case key.Matches(km, m.keys.Select):
		m.chosen = m.cursor
		return m, tea.Quit
	case key.Matches(km, m.keys.Quit):
		m.canceled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickerModel) View() string {
	if m.chosen >= 0 || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.title + "\n\n")
	for i, o := range m.options {
		line := fmt.Sprintf("%-12s %s", o.Name, pickerDim.Render(o.Description))
		if i == m.cursor {
			b.WriteString(pickerCursor.Render("› ") + pickerCursor.Render(o.Name) + strings.TrimPrefix(line, o.Name) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

// Select lets the operator pick one option. Terminals get an arrow-key
// list; other interactive sessions get a numbered prompt; non-interactive
// sessions return def.
func Select(p Prompter, title string, options []Option, def string, in io.Reader, out io.Writer) (string, error) {
	if len(options) == 0 {
		return "", exitcodes.InvalidArgsError("nothing to select")
	}
	if !p.IsInteractive() {
		return def, nil
	}
	if in != nil && out != nil {
		res, err := tea.NewProgram(newPickerModel(title, options, def), tea.WithInput(in), tea.WithOutput(out)).Run()
		if err != nil {
			return "", err
		}
		m := res.(pickerModel)
		if m.canceled {
			return "", exitcodes.InvalidArgsError("selection canceled")
		}
		return m.options[m.chosen].Name, nil
	}
	return selectNumbered(p, title, options, def)
}

func selectNumbered(p Prompter, title string, options []Option, def string) (string, error) {
	var b strings.Builder
	b.WriteString(title + "\n")
	defIdx := ""
	for i, o := range options {
		fmt.Fprintf(&b, "  %d) %-12s %s\n", i+1, o.Name, o.Description)
		if o.Name == def {
			defIdx = strconv.Itoa(i + 1)
		}
	}
	fmt.Fprint(promptOut(p), b.String())
	ans, err := Ask(p, "Choice", defIdx, "--log-format", func(s string) error {
		if _, ok := pickNumbered(options, s); !ok {
			return exitcodes.ValidationErrf("enter a number between 1 and %d or a name", len(options))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	name, _ := pickNumbered(options, ans)
	return name, nil
}

func pickNumbered(options []Option, s string) (string, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(options) {
			return options[n-1].Name, true
		}
		return "", false
	}
	for _, o := range options {
		if strings.EqualFold(o.Name, s) {
			return o.Name, true
		}
	}
	return "", false
}
