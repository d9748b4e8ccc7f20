package main

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/cloudpanel-tools/goaccess-hub/internal/cloudpanel"
	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/goaccess"
	"github.com/cloudpanel-tools/goaccess-hub/internal/installer"
	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

// Deps holds all injectable dependencies for command handlers.
type Deps struct {
	Cfg      config.Config
	Printer  ui.Printer
	Prompter ui.Prompter
	Runner   shell.Runner
	Sites    cloudpanel.Manager
	In       io.Reader
	// TTYIn and TTYOut drive the bubbletea picker; nil means numbered prompt.
	TTYIn     io.Reader
	TTYOut    io.Writer
	HostStats system.StatFunc
	IsRoot    func() bool
	LookPath  func(string) (string, error)
	Probe     func(ctx context.Context, wsURL string, insecure bool) error
	Follow    func(ctx context.Context, path string, fromStart bool, out io.Writer) error
}

// newDeps creates production dependencies from the current flags and config.
func newDeps() (*Deps, error) {
	cfg, err := loadCfg()
	if err != nil {
		return nil, err
	}
	runner := shell.ExecRunner{Env: []string{"DEBIAN_FRONTEND=noninteractive"}}
	d := &Deps{
		Cfg:       cfg,
		Printer:   getPrinter(),
		Prompter:  &ui.TTYPrompter{Out: os.Stderr, NonInteractive: flagNonInteractive},
		Runner:    runner,
		In:        os.Stdin,
		HostStats: system.CollectHostStats,
		IsRoot:    system.IsRoot,
		LookPath:  exec.LookPath,
		Probe:     goaccess.ProbeWebSocket,
		Follow:    ui.Follow,
	}
	d.Sites = cloudpanel.New(cloudpanel.Options{Bin: cfg.ClpctlBin, Root: cfg.Root, Runner: runner})
	if ui.IsTerminal() && !flagNonInteractive {
		d.TTYIn, d.TTYOut = os.Stdin, os.Stderr
	}
	return d, nil
}

// installerDeps wires the installer's collaborators onto runner.
func (d *Deps) installerDeps(runner shell.Runner, sites cloudpanel.Manager) installer.Deps {
	return installer.Deps{
		Runner:    runner,
		Sites:     sites,
		Packages:  system.Packages{Runner: runner},
		Services:  system.Services{Runner: runner},
		Cron:      collector.Cron{Runner: runner},
		HostStats: d.HostStats,
		IsRoot:    d.IsRoot,
	}
}
