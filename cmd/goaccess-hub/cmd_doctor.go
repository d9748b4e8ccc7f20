package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/installer"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the host and the dashboard",
	Long: `Checks everything install depends on and everything it leaves behind:
- root privileges, clpctl and GoAccess version
- free disk space
- goaccess.conf, the systemd service and the real-time websocket
- the collection key, inventory and cron entry`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := newDeps()
		if err != nil {
			return err
		}
		return runDoctor(cmd.Context(), d)
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	Name    string   `json:"name" yaml:"name"`
	Status  string   `json:"status" yaml:"status"` // "pass", "warn", "fail"
	Message string   `json:"message" yaml:"message"`
	Details []string `json:"details,omitempty" yaml:"details,omitempty"`
}

type doctorReport struct {
	Checks []checkResult `json:"checks" yaml:"checks"`
	Passed int           `json:"passed" yaml:"passed"`
	Warned int           `json:"warned" yaml:"warned"`
	Failed int           `json:"failed" yaml:"failed"`
}

func runDoctor(ctx context.Context, d *Deps) error {
	p := d.Printer
	c := p.Colors
	p.Header("GOACCESS HUB HEALTH CHECK")
	p.Textf("\n")

	checks := []func(context.Context, *Deps) checkResult{
		checkPrivileges,
		checkClpctl,
		checkGoAccess,
		checkDiskSpace,
		checkGoAccessConfig,
		checkService,
		checkWebSocket,
		checkSSHKey,
		checkCollector,
	}
	var rep doctorReport
	for _, check := range checks {
		r := check(ctx, d)
		if !p.Structured() {
			printCheck(p, r)
		}
		rep.Checks = append(rep.Checks, r)
		switch r.Status {
		case "pass":
			rep.Passed++
		case "warn":
			rep.Warned++
		case "fail":
			rep.Failed++
		}
	}

	if p.Structured() {
		if err := p.Emit(rep); err != nil {
			return err
		}
	} else {
		p.Textf("\n%s\n", c.Separator(60))
		summary := fmt.Sprintf("Checks: %d passed, %d warnings, %d failed", rep.Passed, rep.Warned, rep.Failed)
		switch {
		case rep.Failed > 0:
			p.Error(summary)
		case rep.Warned > 0:
			p.Warn(summary)
		default:
			p.Success(summary)
		}
	}
	if rep.Failed > 0 {
		return silentErr{exitcodes.ValidationErrf("%d doctor check(s) failed", rep.Failed)}
	}
	return nil
}

func checkPrivileges(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Privileges"}
	if d.IsRoot() {
		r.Status, r.Message = "pass", "Running as root"
		return r
	}
	r.Status, r.Message = "warn", "Not running as root"
	r.Details = []string{"install needs root; some checks below may be incomplete"}
	return r
}

func checkClpctl(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "CloudPanel"}
	path, err := d.LookPath(d.Cfg.ClpctlBin)
	if err != nil {
		r.Status, r.Message = "fail", d.Cfg.ClpctlBin+" not found"
		r.Details = []string{"goaccess-hub must run on a CloudPanel host", "Set clpctl_bin in the config if it lives elsewhere"}
		return r
	}
	r.Status, r.Message = "pass", "clpctl at "+path
	return r
}

func checkGoAccess(ctx context.Context, d *Deps) checkResult {
	r := checkResult{Name: "GoAccess"}
	v, err := system.GoAccessVersion(ctx, d.Runner, d.Cfg.GoAccessBin)
	if err != nil {
		r.Status, r.Message = "fail", "GoAccess not installed or not runnable"
		r.Details = []string{err.Error(), "Run goaccess-hub install, or apt-get install goaccess"}
		return r
	}
	if err := system.RequireVersion(v, system.MinGoAccessVersion); err != nil {
		r.Status, r.Message = "fail", err.Error()
		return r
	}
	r.Status, r.Message = "pass", "GoAccess "+v
	return r
}

func checkDiskSpace(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Disk Space"}
	hs, err := d.HostStats(d.Cfg.Path(d.Cfg.DataDir))
	if err != nil {
		r.Status, r.Message = "warn", "Could not read disk usage"
		r.Details = []string{err.Error()}
		return r
	}
	msg := fmt.Sprintf("%s free for %s", ui.FormatBytes(hs.DiskFree), d.Cfg.DataDir)
	if hs.MemTotal > 0 {
		msg += fmt.Sprintf(", %s RAM", ui.FormatBytes(hs.MemTotal))
	}
	if hs.DiskFree < installer.MinFreeDisk {
		r.Status, r.Message = "warn", msg
		r.Details = []string{"GoAccess persists its database there; keep at least " + ui.FormatBytes(installer.MinFreeDisk) + " free"}
		return r
	}
	r.Status, r.Message = "pass", msg
	return r
}

func checkGoAccessConfig(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "GoAccess Config"}
	path := d.Cfg.GoAccessConfPath()
	b, err := os.ReadFile(path)
	if err != nil {
		r.Status, r.Message = "fail", "Missing "+path
		r.Details = []string{"Run goaccess-hub install"}
		return r
	}
	if !strings.Contains(string(b), "\nlog-format ") {
		r.Status, r.Message = "fail", path+" has no log-format line"
		r.Details = []string{"Re-run goaccess-hub install to regenerate it"}
		return r
	}
	r.Status, r.Message = "pass", path
	return r
}

func checkService(ctx context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Service"}
	name := d.Cfg.ServiceName
	if (system.Services{Runner: d.Runner}).IsActive(ctx, name) {
		r.Status, r.Message = "pass", name+" is active"
		return r
	}
	r.Status, r.Message = "fail", name+" is not active"
	r.Details = []string{"journalctl -u " + name + " -n 50", "goaccess-hub logs goaccess"}
	return r
}

func checkWebSocket(ctx context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Real-time WebSocket"}
	if d.Cfg.Domain == "" {
		r.Status, r.Message = "warn", "No domain configured; skipped"
		r.Details = []string{"Pass --config or run install first"}
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	url := d.Cfg.WSURL()
	if err := d.Probe(ctx, url, false); err != nil {
		r.Status, r.Message = "warn", url+" unreachable"
		r.Details = []string{
			err.Error(),
			fmt.Sprintf("Open TCP port %d in the CloudPanel firewall", d.Cfg.Port),
		}
		return r
	}
	r.Status, r.Message = "pass", url+" accepts connections"
	return r
}

func checkSSHKey(_ context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Collection Key"}
	path := d.Cfg.Path(d.Cfg.SSHKeyPath)
	if !fileExists(path) || !fileExists(path+".pub") {
		r.Status, r.Message = "warn", "No key at "+d.Cfg.SSHKeyPath
		r.Details = []string{"Re-run install or: ssh-keygen -t ed25519 -N '' -f " + d.Cfg.SSHKeyPath}
		return r
	}
	r.Status, r.Message = "pass", d.Cfg.SSHKeyPath
	return r
}

func checkCollector(ctx context.Context, d *Deps) checkResult {
	r := checkResult{Name: "Log Collection"}
	inv, err := collector.LoadInventory(d.Cfg.ServersFile())
	if err != nil {
		r.Status, r.Message = "fail", "Inventory unreadable"
		r.Details = []string{err.Error()}
		return r
	}
	if len(inv.Servers) == 0 {
		r.Status, r.Message = "pass", "No remote servers configured"
		return r
	}
	if !(collector.Cron{Runner: d.Runner}).IsInstalled(ctx) {
		r.Status, r.Message = "warn", fmt.Sprintf("%d server(s) but no cron entry", len(inv.Servers))
		r.Details = []string{"goaccess-hub collect-script --write"}
		return r
	}
	var stale []string
	for _, s := range inv.Servers {
		if !fileExists(d.Cfg.Path(collector.LocalLogPath(d.Cfg.CollectDir, s))) {
			stale = append(stale, s.Name)
		}
	}
	if len(stale) > 0 {
		r.Status, r.Message = "warn", "No collected log yet for "+strings.Join(stale, ", ")
		r.Details = []string{"Check " + d.Cfg.CollectLogPath(), "Is the authorized_keys line installed on those servers?"}
		return r
	}
	r.Status, r.Message = "pass", fmt.Sprintf("%d server(s), cron installed", len(inv.Servers))
	return r
}

func printCheck(p ui.Printer, r checkResult) {
	c := p.Colors
	var icon, msg string
	switch r.Status {
	case "pass":
		icon, msg = c.StatusIcon("ok"), c.Success(r.Message)
	case "warn":
		icon, msg = c.StatusIcon("warn"), c.Warning(r.Message)
	case "fail":
		icon, msg = c.StatusIcon("fail"), c.Error(r.Message)
	}
	p.Textf("%s %s: %s\n", icon, c.Apply(c.Theme.Header, r.Name), msg)
	for _, detail := range r.Details {
		p.Textf("  %s %s\n", c.Apply(c.Theme.Pending, "→"), detail)
	}
}
