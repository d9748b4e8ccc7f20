package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

func TestDefaults_AllFields(t *testing.T) {
	cfg := Defaults()

	if cfg.LogFormat != "standard" {
		t.Errorf("Expected LogFormat to be 'standard', got '%s'", cfg.LogFormat)
	}
	if cfg.Port != 7890 {
		t.Errorf("Expected Port to be 7890, got %d", cfg.Port)
	}
	if cfg.ConfigDir != "/etc/goaccess-hub" {
		t.Errorf("Expected ConfigDir to be '/etc/goaccess-hub', got '%s'", cfg.ConfigDir)
	}
	if cfg.ServiceName != "goaccess-hub" {
		t.Errorf("Expected ServiceName to be 'goaccess-hub', got '%s'", cfg.ServiceName)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults().Validate() = %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv("GOACCESS_HUB_PORT", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.ConfigDir != Defaults().ConfigDir {
		t.Errorf("ConfigDir = %q, want default", cfg.ConfigDir)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "domain: stats.example.com\nsite_user: stats\nport: 7891\nlog_format: cloudpanel\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOACCESS_HUB_SITE_USER", "analytics")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Domain != "stats.example.com" {
		t.Errorf("Domain = %q", cfg.Domain)
	}
	if cfg.Port != 7891 {
		t.Errorf("Port = %d, want 7891", cfg.Port)
	}
	if cfg.SiteUser != "analytics" {
		t.Errorf("SiteUser = %q, want env override 'analytics'", cfg.SiteUser)
	}
	if cfg.LogFormat != "cloudpanel" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}
	if cfg.DataDir != Defaults().DataDir {
		t.Errorf("DataDir = %q, want default", cfg.DataDir)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing explicit file")
	}
	if code := exitcodes.CodeForError(err); code != exitcodes.InvalidArgs {
		t.Errorf("exit code = %d, want %d", code, exitcodes.InvalidArgs)
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults().WithDomain("stats.example.com").WithSiteUser("stats").WithLogFormat("custom", `$remote_addr "$request"`).WithRoot(dir)
	cfg.Port = 8443

	text, err := cfg.YAML()
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(text, "root:") {
		t.Errorf("root leaked into the config file:\n%s", text)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.FilePath(), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(cfg.FilePath())
	if err != nil {
		t.Fatal(err)
	}
	want := cfg.WithRoot("/")
	if got != want {
		t.Errorf("Load(YAML()) = %+v\nwant %+v", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"negative keep_last", func(c *Config) { c.KeepLast = -1 }},
		{"relative data dir", func(c *Config) { c.DataDir = "var/lib" }},
		{"empty service", func(c *Config) { c.ServiceName = " " }},
		{"bad schedule", func(c *Config) { c.CollectSchedule = "hourly" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if code := exitcodes.CodeForError(err); code != exitcodes.ValidationError {
				t.Errorf("exit code = %d, want %d", code, exitcodes.ValidationError)
			}
		})
	}
}

func TestWith_DoesNotMutate(t *testing.T) {
	base := Defaults()
	next := base.WithDomain("  Stats.Example.COM ").WithSiteUser(" stats ").WithLogFormat("custom", "$status")
	if base.Domain != "" || base.SiteUser != "" || base.LogFormat != "standard" {
		t.Errorf("base mutated: %+v", base)
	}
	if next.Domain != "stats.example.com" || next.SiteUser != "stats" || next.CustomFormat != "$status" {
		t.Errorf("derived config = %+v", next)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Defaults().WithDomain("stats.example.com").WithSiteUser("stats")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"goaccess conf", cfg.GoAccessConfPath(), "/etc/goaccess-hub/goaccess.conf"},
		{"servers", cfg.ServersFile(), "/etc/goaccess-hub/servers.yaml"},
		{"unit", cfg.UnitPath(), "/etc/systemd/system/goaccess-hub.service"},
		{"report", cfg.ReportPath(), "/home/stats/htdocs/stats.example.com/index.html"},
		{"access log", cfg.AccessLogPath(), "/home/stats/logs/nginx/access.log"},
		{"db", cfg.DBPath(), "/var/lib/goaccess-hub/db"},
		{"collect script", cfg.CollectScriptPath(), "/var/lib/goaccess-hub/collect-logs.sh"},
		{"ssl cert", cfg.SSLCertPath(), "/etc/nginx/ssl-certificates/stats.example.com.crt"},
		{"dashboard", cfg.DashboardURL(), "https://stats.example.com/"},
		{"ws", cfg.WSURL(), "wss://stats.example.com:7890"},
		{"dashboard without tls", cfg.DashboardURLFor(false), "http://stats.example.com/"},
		{"ws without tls", cfg.WSURLFor(false), "ws://stats.example.com:7890"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
		}
	}

	rooted := cfg.WithRoot("/tmp/fake")
	if got := rooted.GoAccessConfPath(); got != "/tmp/fake/etc/goaccess-hub/goaccess.conf" {
		t.Errorf("rooted GoAccessConfPath = %q", got)
	}
	if got := rooted.GoAccessConf(); got != "/etc/goaccess-hub/goaccess.conf" {
		t.Errorf("rooted GoAccessConf = %q, want the unrooted path", got)
	}
	plain := cfg
	plain.SkipSSL = true
	if plain.WSURL() != "ws://stats.example.com:7890" || plain.DashboardURL() != "http://stats.example.com/" {
		t.Errorf("skip-ssl URLs = %s %s", plain.WSURL(), plain.DashboardURL())
	}
}
