package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/installer"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logformat"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logger"
)

func TestParseServer(t *testing.T) {
	tests := []struct {
		raw     string
		name    string
		addr    string
		log     string
		wantErr bool
	}{
		{"web1=root@10.0.0.5", "web1", "root@10.0.0.5", "", false},
		{" shop = deploy@shop.example.com:2222 , /home/shop/logs/nginx/access.log", "shop", "deploy@shop.example.com:2222", "/home/shop/logs/nginx/access.log", false},
		{"root@10.0.0.5", "", "", "", true},
		{"../x=root@10.0.0.5", "", "", "", true},
		{"web1=10.0.0.5", "", "", "", true},
	}
	for _, tt := range tests {
		s, err := parseServer(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseServer(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			if exitcodes.CodeForError(err) != exitcodes.ValidationError {
				t.Errorf("parseServer(%q) code = %d", tt.raw, exitcodes.CodeForError(err))
			}
			continue
		}
		if s.Name != tt.name || s.Address != tt.addr || s.LogPath != tt.log {
			t.Errorf("parseServer(%q) = %+v", tt.raw, s)
		}
	}
}

func TestSiteUserFor(t *testing.T) {
	tests := []struct{ domain, want string }{
		{"stats.example.com", "stats"},
		{"web-stats.example.com", "webstats"},
		{"1st.example.com", "ga1st"},
		{"ab.example.com", "ab-hub"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := siteUserFor(tt.domain); got != tt.want {
			t.Errorf("siteUserFor(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestResolveInstall_NonInteractiveNeedsDomain(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	_, _, err := resolveInstall(d, installFlags{})
	if exitcodes.CodeForError(err) != exitcodes.InvalidArgs {
		t.Fatalf("code = %d, want InvalidArgs (err %v)", exitcodes.CodeForError(err), err)
	}
	if !strings.Contains(err.Error(), "--domain") {
		t.Errorf("error should name --domain: %v", err)
	}
}

func TestResolveInstall_Flags(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	cfg, servers, err := resolveInstall(d, installFlags{
		domain:       "Stats.Example.com",
		customFormat: `$remote_addr "$request" $status`,
		port:         7999,
		servers:      []string{"web1=root@10.0.0.5", "web2=root@10.0.0.6"},
		skipSSL:      true,
	})
	if err != nil {
		t.Fatalf("resolveInstall() error = %v", err)
	}
	if cfg.Domain != "stats.example.com" || cfg.SiteUser != "stats" {
		t.Errorf("domain/user = %q/%q", cfg.Domain, cfg.SiteUser)
	}
	if cfg.LogFormat != logformat.PresetCustom || cfg.CustomFormat == "" {
		t.Errorf("log format = %q/%q, want custom", cfg.LogFormat, cfg.CustomFormat)
	}
	if cfg.Port != 7999 || !cfg.SkipSSL {
		t.Errorf("port/skipSSL = %d/%v", cfg.Port, cfg.SkipSSL)
	}
	if len(servers) != 2 || servers[1].Name != "web2" {
		t.Errorf("servers = %+v", servers)
	}
}

func TestResolveInstall_DuplicateServers(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	_, _, err := resolveInstall(d, installFlags{
		domain:  "stats.example.com",
		servers: []string{"web1=root@10.0.0.5", "web1=root@10.0.0.6"},
	})
	if exitcodes.CodeForError(err) != exitcodes.ValidationError {
		t.Errorf("code = %d, want ValidationError", exitcodes.CodeForError(err))
	}
}

func TestResolveInstall_Interactive(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	d.Prompter = &mockPrompter{interactive: true, answers: []string{
		"stats.example.com", // domain
		"",                  // site user default
		"2",                 // numbered log format choice
		"web1=root@10.0.0.5",
		"",
	}}
	cfg, servers, err := resolveInstall(d, installFlags{})
	if err != nil {
		t.Fatalf("resolveInstall() error = %v", err)
	}
	if cfg.SiteUser != "stats" {
		t.Errorf("site user = %q, want default stats", cfg.SiteUser)
	}
	if cfg.LogFormat != logformat.Presets()[1].Name {
		t.Errorf("log format = %q, want %q", cfg.LogFormat, logformat.Presets()[1].Name)
	}
	if len(servers) != 1 {
		t.Errorf("servers = %+v", servers)
	}
}

func TestResolveInstall_UnknownPreset(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	_, _, err := resolveInstall(d, installFlags{domain: "stats.example.com", logFormat: "apache"})
	if err == nil {
		t.Fatal("unknown preset should fail")
	}
}

func TestDryRunAnswers(t *testing.T) {
	if out, ok := dryRunAnswers("goaccess --version"); !ok || !strings.Contains(string(out), "1.") {
		t.Errorf("dryRunAnswers(version) = %q, %v", out, ok)
	}
	if _, ok := dryRunAnswers("apt-get update -q"); ok {
		t.Error("dryRunAnswers should not answer apt-get")
	}
}

func TestHandleInstall_DryRunJSON(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	d, buf := newTestDeps(t, "json")
	f := installFlags{domain: "stats.example.com", logFormat: "cloudpanel", servers: []string{"web1=root@10.0.0.5"}, dryRun: true}

	if err := handleInstall(context.Background(), d, f); err != nil {
		t.Fatalf("handleInstall() error = %v\n%s", err, buf.String())
	}
	var res installer.Result
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if !res.DryRun {
		t.Error("Result.DryRun = false")
	}
	joined := strings.Join(res.Commands, "\n")
	for _, want := range []string{"apt-get install", "clpctl site:add:static", "--siteUserPassword=***", "systemctl"} {
		if !strings.Contains(joined, want) {
			t.Errorf("dry-run commands missing %q:\n%s", want, joined)
		}
	}
	if len(runnerOf(d).commands) != 0 {
		t.Errorf("dry run used the real runner: %v", runnerOf(d).commands)
	}
	if _, err := os.Stat(d.Cfg.GoAccessConfPath()); !os.IsNotExist(err) {
		t.Error("dry run wrote into the configured root")
	}
}

func TestHandleInstall_DeclinedConfirm(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	// domain and site user take their defaults, then the confirm
	d.Prompter = &mockPrompter{interactive: true, answers: []string{"", "", "n"}}
	old := flagYes
	flagYes = false
	defer func() { flagYes = old }()

	err := handleInstall(context.Background(), d, installFlags{domain: "stats.example.com", siteUser: "stats", logFormat: "standard", servers: []string{"web1=root@10.0.0.5"}})
	if exitcodes.CodeForError(err) != exitcodes.PreconditionFailed {
		t.Errorf("code = %d, want PreconditionFailed (err %v)", exitcodes.CodeForError(err), err)
	}
	if len(runnerOf(d).commands) != 0 {
		t.Errorf("declined install ran %v", runnerOf(d).commands)
	}
}

func TestHandleInstall_Run(t *testing.T) {
	d, buf := newTestDeps(t, "text")
	r := runnerOf(d)
	r.outputs["goaccess --version"] = "GoAccess - 1.9.3.\n"
	old := flagYes
	flagYes = true
	defer func() { flagYes = old }()
	t.Cleanup(func() { logger.Set(nil) })

	f := installFlags{domain: "stats.example.com", logFormat: "cloudpanel", skipSSL: true, servers: []string{"web1=root@10.0.0.5"}}
	if err := handleInstall(context.Background(), d, f); err != nil {
		t.Fatalf("handleInstall() error = %v\n%s", err, buf.String())
	}
	conf, err := os.ReadFile(d.Cfg.GoAccessConfPath())
	if err != nil {
		t.Fatalf("goaccess.conf not written: %v", err)
	}
	if !strings.Contains(string(conf), `log-format %h - %^ [%d:%t %^] "%r" %s %b "%R" "%u" %T`) {
		t.Errorf("goaccess.conf has wrong log-format:\n%s", conf)
	}
	if !strings.Contains(buf.String(), "http://stats.example.com/") {
		t.Errorf("summary missing dashboard URL:\n%s", buf.String())
	}
}

func TestHandleInstall_AbortReturnsCode(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	d.IsRoot = func() bool { return false }
	old := flagYes
	flagYes = true
	defer func() { flagYes = old }()
	t.Cleanup(func() { logger.Set(nil) })

	err := handleInstall(context.Background(), d, installFlags{domain: "stats.example.com", logFormat: "standard", servers: []string{"web1=root@10.0.0.5"}})
	if exitcodes.CodeForError(err) != exitcodes.PreconditionFailed {
		t.Errorf("code = %d, want PreconditionFailed (err %v)", exitcodes.CodeForError(err), err)
	}
}

func TestInstallFailure(t *testing.T) {
	cfg := config.Defaults()
	msg := installFailure(cfg, fmt.Errorf("packages: %w", exitcodes.ProcessErr("apt-get install -y goaccess", errMock)))
	if len(msg.Causes) != 1 || !strings.Contains(msg.Causes[0], cfg.AuditLogPath()) {
		t.Errorf("Causes = %v", msg.Causes)
	}
	out := msg.Format(testColorConfig())
	for _, want := range []string{"packages:", "goaccess-hub doctor", "goaccess-hub logs install"} {
		if !strings.Contains(out, want) {
			t.Errorf("formatted failure missing %q:\n%s", want, out)
		}
	}
}
