package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudpanel-tools/goaccess-hub/internal/cloudpanel"
	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/goaccess"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logformat"
	"github.com/cloudpanel-tools/goaccess-hub/internal/sshkeys"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
	"github.com/cloudpanel-tools/goaccess-hub/internal/validate"
)

func (i *Installer) defaultSteps() []Step {
	return []Step{
		{Name: "preflight", Policy: Abort, Run: i.preflight},
		{Name: "domain", Policy: Abort, Run: i.checkDomain},
		{Name: "packages", Policy: Abort, Run: i.installPackages},
		{Name: "site", Policy: Abort, Run: i.createSite},
		{Name: "ssl", Policy: Warn, Skip: skipSSL, Run: i.installCertificate},
		{Name: "logformat", Policy: Abort, Run: resolveLogFormat},
		{Name: "goaccess-config", Policy: Abort, Run: i.writeGoAccessConfig},
		{Name: "credentials", Policy: Abort, Run: i.writeCredentials},
		{Name: "service", Policy: Abort, Run: i.installService},
		{Name: "logrotate", Policy: Warn, Run: writeLogrotate},
		{Name: "ssh-key", Policy: Warn, Run: i.ensureSSHKey},
		{Name: "collector", Policy: Warn, Run: i.setupCollector},
	}
}

func (i *Installer) preflight(_ context.Context, st *State) (string, error) {
	if !st.DryRun {
		if !i.deps.IsRoot() {
			return "", exitcodes.PreconditionError("install must run as root")
		}
		if !i.deps.Sites.Available() {
			return "", exitcodes.PreconditionError("clpctl not found; run this on a CloudPanel host")
		}
	}
	hs, err := i.deps.HostStats(st.Config.Path(st.Config.DataDir))
	if err != nil {
		return "", exitcodes.WrapError(exitcodes.PreconditionFailed, "could not read host stats", err)
	}
	if hs.DiskFree < MinFreeDisk {
		return "", exitcodes.PreconditionErrorf("only %s free for %s, need %s",
			ui.FormatBytes(hs.DiskFree), st.Config.DataDir, ui.FormatBytes(MinFreeDisk))
	}
	detail := ui.FormatBytes(hs.DiskFree) + " free"
	if hs.Platform != "" {
		detail = fmt.Sprintf("%s %s, %s", hs.Platform, hs.PlatformVersion, detail)
	}
	return detail, nil
}

func (i *Installer) checkDomain(ctx context.Context, st *State) (string, error) {
	if err := validate.Domain(st.Config.Domain); err != nil {
		return "", err
	}
	if err := validate.SiteUser(st.Config.SiteUser); err != nil {
		return "", err
	}
	exists, err := i.deps.Sites.SiteExists(ctx, st.Config.Domain)
	if err != nil {
		return "", err
	}
	if exists {
		return "", exitcodes.PreconditionErrorf("a CloudPanel site for %s already exists; pick another domain or delete it first", st.Config.Domain)
	}
	return st.Config.Domain, nil
}

func (i *Installer) installPackages(ctx context.Context, st *State) (string, error) {
	if err := i.deps.Packages.Install(ctx, Packages...); err != nil {
		return "", err
	}
	v, err := system.GoAccessVersion(ctx, i.deps.Runner, st.Config.GoAccessBin)
	if err != nil {
		return "", err
	}
	if err := system.RequireVersion(v, system.MinGoAccessVersion); err != nil {
		return "", err
	}
	st.Result.GoAccessVersion = v
	return "goaccess " + v, nil
}

func (i *Installer) createSite(ctx context.Context, st *State) (string, error) {
	pw, err := validate.Password(24)
	if err != nil {
		return "", err
	}
	st.Password = pw
	site := cloudpanel.Site{Domain: st.Config.Domain, SiteUser: st.Config.SiteUser, Password: pw}
	if err := i.deps.Sites.CreateStaticSite(ctx, site); err != nil {
		return "", err
	}
	return "static site " + st.Config.Domain, nil
}

func skipSSL(st *State) string {
	if st.Config.SkipSSL {
		return "--skip-ssl"
	}
	return ""
}

func (i *Installer) installCertificate(ctx context.Context, st *State) (string, error) {
	if err := i.deps.Sites.InstallCertificate(ctx, st.Config.Domain); err != nil {
		return "", err
	}
	st.SSL = true
	return "Let's Encrypt certificate issued", nil
}

func resolveLogFormat(_ context.Context, st *State) (string, error) {
	lf, err := logformat.Resolve(st.Config.LogFormat, st.Config.CustomFormat)
	if err != nil {
		return "", err
	}
	st.Result.LogFormat = lf.Name
	st.Result.GoAccessFormat = lf.Format
	st.Result.DateFormat = lf.DateFormat
	st.Result.NginxFormat = lf.Nginx
	return lf.Name + ": " + lf.Format, nil
}

func (i *Installer) writeGoAccessConfig(_ context.Context, st *State) (string, error) {
	cfg := st.Config
	for _, dir := range []string{cfg.DataDir, cfg.DBPath(), cfg.LogDir} {
		if err := os.MkdirAll(cfg.Path(dir), 0o755); err != nil {
			return "", err
		}
	}
	s := goaccess.Settings{
		Title:      cfg.Domain,
		LogFormat:  st.Result.GoAccessFormat,
		TimeFormat: logformat.TimeFormat,
		DateFormat: st.Result.DateFormat,
		Port:       cfg.Port,
		WSURL:      cfg.WSURLFor(st.SSL),
		OutputPath: cfg.ReportPath(),
		DebugFile:  cfg.DebugLogPath(),
		DBPath:     cfg.DBPath(),
		KeepLast:   cfg.KeepLast,
	}
	if st.SSL {
		s.SSLCert, s.SSLKey = cfg.SSLCertPath(), cfg.SSLKeyPath()
	}
	st.Result.DashboardURL = cfg.DashboardURLFor(st.SSL)
	st.Result.WSURL = s.WSURL
	res, err := i.store(0o644).Write(cfg.GoAccessConfPath(), goaccess.Render(s))
	if err != nil {
		return "", err
	}
	st.confChanged = res.Changed

	hub, err := cfg.YAML()
	if err != nil {
		return "", err
	}
	if _, err := i.store(0o644).Write(cfg.FilePath(), hub); err != nil {
		return "", err
	}
	return describeWrite(cfg.GoAccessConfPath(), res), nil
}

func (i *Installer) writeCredentials(_ context.Context, st *State) (string, error) {
	cfg := st.Config
	var b strings.Builder
	fmt.Fprintf(&b, "domain=%s\n", cfg.Domain)
	fmt.Fprintf(&b, "site_user=%s\n", cfg.SiteUser)
	fmt.Fprintf(&b, "site_password=%s\n", st.Password)
	fmt.Fprintf(&b, "dashboard=%s\n", st.Result.DashboardURL)
	res, err := i.store(0o600).Write(cfg.CredentialsFile(), b.String())
	if err != nil {
		return "", err
	}
	return describeWrite(cfg.CredentialsFile(), res), nil
}

// ServiceUnit is the systemd unit serving the dashboard: goaccess reads the
// site's own access log plus one collected copy per server.
func ServiceUnit(cfg config.Config, servers []collector.Server) system.Unit {
	exec := []string{cfg.GoAccessBin, cfg.AccessLogPath()}
	for _, s := range servers {
		exec = append(exec, collector.LocalLogPath(cfg.CollectDir, s))
	}
	exec = append(exec, "--config-file="+cfg.GoAccessConf())
	return system.Unit{
		Name:           cfg.ServiceName,
		Description:    "GoAccess real-time dashboard for " + cfg.Domain,
		ExecStart:      exec,
		ReadWritePaths: []string{cfg.DataDir, cfg.LogDir, cfg.SiteRoot()},
	}
}

// TouchCollectedLogs creates the local copy of every server's log; goaccess
// refuses to start on a missing input file.
func TouchCollectedLogs(cfg config.Config, servers []collector.Server) error {
	for _, s := range servers {
		if err := touch(cfg.Path(collector.LocalLogPath(cfg.CollectDir, s))); err != nil {
			return err
		}
	}
	return nil
}

func (i *Installer) installService(ctx context.Context, st *State) (string, error) {
	cfg := st.Config
	inv, err := collector.LoadInventory(cfg.ServersFile())
	if err != nil {
		return "", err
	}
	// servers added before a reinstall stay in the unit
	servers := append([]collector.Server(nil), st.Servers...)
	for _, s := range inv.Servers {
		if !containsServer(servers, s.Name) {
			servers = append(servers, s)
		}
	}
	if err := TouchCollectedLogs(cfg, servers); err != nil {
		return "", err
	}
	unitChanged, err := i.deps.Services.WriteUnit(cfg.UnitPath(), ServiceUnit(cfg, servers))
	if err != nil {
		return "", err
	}
	wasActive := i.deps.Services.IsActive(ctx, cfg.ServiceName)
	if err := i.deps.Services.Enable(ctx, cfg.ServiceName); err != nil {
		return "", err
	}
	if wasActive && (st.confChanged || unitChanged) {
		if err := i.deps.Services.Restart(ctx, cfg.ServiceName); err != nil {
			return "", err
		}
		return cfg.ServiceName + " restarted", nil
	}
	return cfg.ServiceName + " enabled", nil
}

func containsServer(servers []collector.Server, name string) bool {
	for _, s := range servers {
		if s.Name == name {
			return true
		}
	}
	return false
}

func writeLogrotate(_ context.Context, st *State) (string, error) {
	cfg := st.Config
	path, err := system.SetupLogrotate(cfg.Root, system.LogrotateConfig{
		Name:  cfg.ServiceName,
		Paths: []string{filepath.Join(cfg.LogDir, "*.log")},
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

func (i *Installer) ensureSSHKey(ctx context.Context, st *State) (string, error) {
	path := st.Config.Path(st.Config.SSHKeyPath)
	pub, created, err := sshkeys.EnsureKey(ctx, i.deps.Runner, path)
	if err != nil {
		if st.DryRun {
			return "ssh-keygen not run in dry run", nil
		}
		return "", err
	}
	st.Result.AuthorizedKeysLine = sshkeys.AuthorizedKeysLine(pub)
	if created {
		return "generated " + path, nil
	}
	return "using existing " + path, nil
}

func (i *Installer) setupCollector(ctx context.Context, st *State) (string, error) {
	cfg := st.Config
	inv, err := collector.LoadInventory(cfg.ServersFile())
	if err != nil {
		return "", err
	}
	for _, s := range st.Servers {
		if have, ok := inv.Get(s.Name); ok && have == s {
			continue
		}
		if err := inv.Add(s); err != nil {
			return "", err
		}
	}
	if err := inv.Save(cfg.ServersFile()); err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Path(cfg.CollectDir), 0o755); err != nil {
		return "", err
	}
	script := collector.RenderScript(collector.ScriptParams{
		SSHKey:     cfg.SSHKeyPath,
		CollectDir: cfg.CollectDir,
		LogFile:    cfg.CollectLogPath(),
		Servers:    inv.Servers,
	})
	if _, err := i.store(0o755).Write(cfg.CollectScriptPath(), script); err != nil {
		return "", err
	}
	if len(inv.Servers) == 0 {
		return "no servers yet; add them with goaccess-hub servers add", nil
	}
	if _, err := i.deps.Cron.Install(ctx, cfg.CollectSchedule, cfg.CollectScript(), cfg.CollectLogPath()); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d server(s), cron %q", len(inv.Servers), cfg.CollectSchedule), nil
}

func (i *Installer) store(mode os.FileMode) goaccess.Store {
	return goaccess.Store{Now: i.deps.Now, Mode: mode}
}

func describeWrite(path string, res goaccess.WriteResult) string {
	switch {
	case !res.Changed:
		return path + " unchanged"
	case res.Backup != "":
		return path + " updated, previous saved to " + filepath.Base(res.Backup)
	default:
		return path + " written"
	}
}

func touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}
