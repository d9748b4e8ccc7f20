package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/cloudpanel"
	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/installer"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logformat"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logger"
	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
	"github.com/cloudpanel-tools/goaccess-hub/internal/validate"
)

type installFlags struct {
	domain       string
	siteUser     string
	logFormat    string
	customFormat string
	port         int
	servers      []string
	skipSSL      bool
	dryRun       bool
}

func init() {
	var f installFlags
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Provision the GoAccess dashboard",
		Long: `Creates a CloudPanel static site for the dashboard, installs GoAccess,
writes goaccess.conf with the translated log format, enables the real-time
service and scaffolds rsync collection from remote servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			f.port = portFlag(cmd, f.port)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return handleInstall(ctx, d, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.domain, "domain", "", "Dashboard domain, e.g. stats.example.com")
	fl.StringVar(&f.siteUser, "site-user", "", "CloudPanel site user (default derived from the domain)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format preset: standard|cloudpanel|combined|custom")
	fl.StringVar(&f.customFormat, "custom-format", "", "nginx log_format string, implies --log-format custom")
	fl.IntVar(&f.port, "port", 0, "GoAccess real-time websocket port (default 7890)")
	fl.StringArrayVar(&f.servers, "server", nil, "Remote server name=user@host[:port][,/path/access.log] (repeatable)")
	fl.BoolVar(&f.skipSSL, "skip-ssl", false, "Do not request a Let's Encrypt certificate")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print the commands and render files into a scratch directory")
	rootCmd.AddCommand(cmd)
}

// portFlag returns 0 unless --port was set explicitly.
func portFlag(cmd *cobra.Command, v int) int {
	if cmd.Flags().Changed("port") {
		return v
	}
	return 0
}

func handleInstall(ctx context.Context, d *Deps, f installFlags) error {
	p := d.Printer
	cfg, servers, err := resolveInstall(d, f)
	if err != nil {
		return err
	}

	runner, sites := d.Runner, d.Sites
	if f.dryRun {
		scratch, err := os.MkdirTemp("", "goaccess-hub-dry-run-")
		if err != nil {
			return err
		}
		cfg = cfg.WithRoot(scratch)
		dry := &shell.DryRunRunner{Lookup: dryRunAnswers}
		runner = dry
		sites = cloudpanel.New(cloudpanel.Options{Bin: cfg.ClpctlBin, Root: cfg.Root, Runner: dry})
		p.Info("Dry run: files are rendered under " + scratch)
	} else {
		ok, err := ui.Confirm(d.Prompter, fmt.Sprintf("Install the GoAccess dashboard on %s?", cfg.Domain), flagYes)
		if err != nil {
			return err
		}
		if !ok {
			return exitcodes.PreconditionError("install canceled (pass --yes in non-interactive mode)")
		}
		if err := logger.Init(logger.Options{Level: logLevel(), File: cfg.Path(cfg.AuditLogPath())}); err != nil {
			return err
		}
	}

	spin := ui.NewSpinner(os.Stderr, p.Colors)
	opts := installer.Options{
		Servers: servers,
		DryRun:  f.dryRun,
		Result: func(r installer.StepResult) {
			spin.Stop()
			reportStep(p, r)
		},
	}
	if !p.Structured() && !flagQuiet {
		opts.Progress = func(step string) { spin.Start(step) }
	}

	p.Header("Installing GoAccess dashboard")
	res, runErr := installer.New(cfg, d.installerDeps(runner, sites), opts).Run(ctx)
	spin.Stop()

	if p.Structured() {
		if err := p.Emit(res); err != nil {
			return err
		}
		if runErr != nil {
			return silentErr{runErr}
		}
		return nil
	}
	if runErr != nil {
		p.Textf("\n%s", installFailure(cfg, runErr).Format(p.Colors))
		return silentErr{runErr}
	}
	p.Textf("\n%s\n", installer.Summary(p.Colors, cfg, res))
	return nil
}

func reportStep(p ui.Printer, r installer.StepResult) {
	msg := r.Name
	if r.Detail != "" {
		msg += ": " + r.Detail
	}
	switch r.Status {
	case installer.StatusOK:
		p.Success(msg)
	case installer.StatusSkipped:
		p.Info(msg + " (skipped)")
	case installer.StatusWarn:
		p.Warn(r.Name + ": " + r.Error)
	case installer.StatusFailed:
		p.Error(r.Name + ": " + r.Error)
	}
}

// installFailure explains an aborted install and where to look next.
func installFailure(cfg config.Config, err error) ui.ErrorMessage {
	msg := ui.ErrorMessage{
		Problem: err.Error(),
		Actions: []string{
			"goaccess-hub logs install",
			"goaccess-hub doctor",
		},
	}
	switch exitcodes.CodeForError(err) {
	case exitcodes.PreconditionFailed:
		msg.Causes = []string{"The host is not ready: not root, no clpctl, too little disk or the site already exists"}
	case exitcodes.ProcessError:
		msg.Causes = []string{"An external command failed; its output is in " + cfg.AuditLogPath()}
	case exitcodes.ValidationError:
		msg.Causes = []string{"An input value was rejected"}
	}
	msg.Actions = append(msg.Actions, "Fix the cause, remove a half-created site with clpctl site:delete, then re-run install")
	return msg
}

// dryRunAnswers fakes the read-only probes a dry run still needs.
func dryRunAnswers(line string) ([]byte, bool) {
	if strings.HasSuffix(line, " --version") {
		return []byte("GoAccess - 1.9.3.\n"), true
	}
	return nil, false
}

// resolveInstall merges flags, config and prompts into the run config.
func resolveInstall(d *Deps, f installFlags) (config.Config, []collector.Server, error) {
	cfg := d.Cfg
	pr := d.Prompter

	domain, err := ui.Ask(pr, "Dashboard domain", firstNonEmpty(f.domain, cfg.Domain), "--domain", validate.Domain)
	if err != nil {
		return cfg, nil, err
	}
	cfg = cfg.WithDomain(domain)

	user, err := ui.Ask(pr, "Site user", firstNonEmpty(f.siteUser, cfg.SiteUser, siteUserFor(cfg.Domain)), "--site-user", validate.SiteUser)
	if err != nil {
		return cfg, nil, err
	}
	cfg = cfg.WithSiteUser(user)

	name, custom := f.logFormat, firstNonEmpty(f.customFormat, cfg.CustomFormat)
	if name == "" && f.customFormat != "" {
		name = logformat.PresetCustom
	}
	if name == "" {
		name, err = ui.Select(pr, "Log format of the sites you collect", presetOptions(), cfg.LogFormat, d.TTYIn, d.TTYOut)
		if err != nil {
			return cfg, nil, err
		}
	}
	if strings.EqualFold(name, logformat.PresetCustom) && custom == "" {
		custom, err = ui.Ask(pr, "nginx log_format string", "", "--custom-format", nil)
		if err != nil {
			return cfg, nil, err
		}
	}
	if _, err := logformat.Resolve(name, custom); err != nil {
		return cfg, nil, err
	}
	cfg = cfg.WithLogFormat(strings.ToLower(name), custom)

	if f.port != 0 {
		cfg.Port = f.port
	}
	if f.skipSSL {
		cfg.SkipSSL = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	entries := f.servers
	if len(entries) == 0 {
		entries, err = ui.AskList(pr, "Remote server (name=user@host[:port])", func(s string) error {
			_, err := parseServer(s)
			return err
		})
		if err != nil {
			return cfg, nil, err
		}
	}
	servers := make([]collector.Server, 0, len(entries))
	check := &collector.Inventory{}
	for _, raw := range entries {
		s, err := parseServer(raw)
		if err != nil {
			return cfg, nil, err
		}
		if err := check.Add(s); err != nil {
			return cfg, nil, err
		}
		servers = append(servers, s)
	}
	return cfg, servers, nil
}

func presetOptions() []ui.Option {
	var opts []ui.Option
	for _, p := range logformat.Presets() {
		opts = append(opts, ui.Option{Name: p.Name, Description: p.Description})
	}
	return append(opts, ui.Option{Name: logformat.PresetCustom, Description: "paste your own nginx log_format"})
}

// parseServer reads name=user@host[:port][,/remote/log].
func parseServer(raw string) (collector.Server, error) {
	name, rest, ok := strings.Cut(strings.TrimSpace(raw), "=")
	if !ok {
		return collector.Server{}, exitcodes.ValidationErrf("server %q must be name=user@host[:port]", raw)
	}
	addr, logPath, _ := strings.Cut(rest, ",")
	s := collector.Server{Name: strings.TrimSpace(name), Address: strings.TrimSpace(addr), LogPath: strings.TrimSpace(logPath)}
	if err := validate.ServerName(s.Name); err != nil {
		return s, err
	}
	if err := validate.ServerAddress(s.Address); err != nil {
		return s, err
	}
	return s, nil
}

var nonUserChars = regexp.MustCompile(`[^a-z0-9]+`)

// siteUserFor suggests a site user from the domain's first label.
func siteUserFor(domain string) string {
	if domain == "" {
		return ""
	}
	label, _, _ := strings.Cut(domain, ".")
	u := nonUserChars.ReplaceAllString(label, "")
	if u == "" || u[0] < 'a' || u[0] > 'z' {
		u = "ga" + u
	}
	if len(u) < 3 {
		u += "-hub"
	}
	if len(u) > 32 {
		u = u[:32]
	}
	return u
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
