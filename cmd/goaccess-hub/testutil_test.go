package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/cloudpanel-tools/goaccess-hub/internal/cloudpanel"
	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

// errMock is a generic error for test assertions.
var errMock = errors.New("mock error")

func testColorConfig() *ui.ColorConfig {
	c := ui.NewColorConfig()
	c.Enabled = false
	c.EmojiEnabled = false
	return c
}

// mockPrompter answers ReadLine from a fixed list, then io.EOF.
type mockPrompter struct {
	interactive bool
	answers     []string
	asked       []string
}

func (m *mockPrompter) ReadLine(prompt string) (string, error) {
	m.asked = append(m.asked, prompt)
	if len(m.answers) == 0 {
		return "", io.EOF
	}
	a := m.answers[0]
	m.answers = m.answers[1:]
	return a, nil
}

func (m *mockPrompter) ReadSecret(prompt string) (string, error) { return m.ReadLine(prompt) }
func (m *mockPrompter) IsInteractive() bool                      { return m.interactive }

// mockRunner answers commands keyed by "name args..." and keeps a crontab
// in memory. Unknown commands succeed with no output.
type mockRunner struct {
	mu       sync.Mutex
	outputs  map[string]string
	errs     map[string]error
	crontab  string
	commands []string
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.RunInput(ctx, nil, name, args...)
}

func (m *mockRunner) RunInput(_ context.Context, in io.Reader, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.Join(append([]string{name}, args...), " ")
	m.commands = append(m.commands, key)
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	switch key {
	case "crontab -l":
		if m.crontab == "" {
			return nil, errors.New("no crontab for root")
		}
		return []byte(m.crontab), nil
	case "crontab -":
		b, err := io.ReadAll(in)
		m.crontab = string(b)
		return nil, err
	}
	return []byte(m.outputs[key]), nil
}

// newTestDeps returns Deps rooted in a temp dir with a buffered printer.
func newTestDeps(t *testing.T, format string) (*Deps, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := config.Defaults().WithRoot(t.TempDir())
	r := &mockRunner{outputs: map[string]string{}}
	d := &Deps{
		Cfg:      cfg,
		Printer:  ui.NewPrinterTo(&buf, format, testColorConfig()),
		Prompter: &mockPrompter{},
		Runner:   r,
		Sites:    cloudpanel.New(cloudpanel.Options{Root: cfg.Root, Runner: r, LookPath: func(string) (string, error) { return "/usr/bin/clpctl", nil }}),
		HostStats: func(string) (system.HostStats, error) {
			return system.HostStats{Platform: "ubuntu", PlatformVersion: "24.04", DiskFree: 20 << 30, MemTotal: 4 << 30}, nil
		},
		IsRoot:   func() bool { return true },
		LookPath: func(string) (string, error) { return "/usr/bin/clpctl", nil },
		Probe:    func(context.Context, string, bool) error { return nil },
		Follow:   func(context.Context, string, bool, io.Writer) error { return nil },
	}
	return d, &buf
}

func runnerOf(d *Deps) *mockRunner { return d.Runner.(*mockRunner) }
