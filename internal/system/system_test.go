package system

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

func TestPackagesInstall(t *testing.T) {
	r := &shell.DryRunRunner{}
	p := Packages{Runner: r}
	if err := p.Install(context.Background(), "goaccess", "rsync"); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"apt-get update -q",
		"apt-get install -y -q --no-install-recommends goaccess rsync",
	}
	got := r.Commands()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("commands = %q, want %q", got, want)
	}

	r2 := &shell.DryRunRunner{}
	if err := (Packages{Runner: r2}).Install(context.Background()); err != nil || len(r2.Commands()) != 0 {
		t.Errorf("Install() with no names ran %v, err %v", r2.Commands(), err)
	}
}

func TestParseGoAccessVersion(t *testing.T) {
	tests := []struct {
		out    string
		want   string
		wantOK bool
	}{
		{"GoAccess - 1.9.3.\nFor more details visit: https://goaccess.io/\n", "v1.9.3", true},
		{"GoAccess - 1.4.", "v1.4.0", true},
		{"GoAccess - 1.3.\n", "v1.3.0", true},
		{"goaccess: command not found", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseGoAccessVersion(tt.out)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseGoAccessVersion(%q) = %q, %v, want %q, %v", tt.out, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestGoAccessVersion(t *testing.T) {
	r := &shell.DryRunRunner{Lookup: func(line string) ([]byte, bool) {
		return []byte("GoAccess - 1.7.2.\n"), line == "goaccess --version"
	}}
	v, err := GoAccessVersion(context.Background(), r, "goaccess")
	if err != nil || v != "v1.7.2" {
		t.Errorf("GoAccessVersion() = %q, %v", v, err)
	}

	empty := &shell.DryRunRunner{}
	if _, err := GoAccessVersion(context.Background(), empty, "goaccess"); exitcodes.CodeForError(err) != exitcodes.PreconditionFailed {
		t.Errorf("unparseable version error = %v", err)
	}
}

func TestRequireVersion(t *testing.T) {
	tests := []struct {
		v       string
		wantErr bool
	}{
		{"v1.4.0", false},
		{"v1.9.3", false},
		{"v2.0.0", false},
		{"v1.3.0", true},
		{"1.9.3", true},
	}
	for _, tt := range tests {
		if err := RequireVersion(tt.v, MinGoAccessVersion); (err != nil) != tt.wantErr {
			t.Errorf("RequireVersion(%q) error = %v, wantErr %v", tt.v, err, tt.wantErr)
		}
	}
}

func TestRenderUnit(t *testing.T) {
	u := Unit{
		Name:           "goaccess-hub",
		Description:    "GoAccess real-time dashboard",
		ExecStart:      []string{"/usr/bin/goaccess", "/home/stats/logs/nginx/access.log", "--config-file=/etc/goaccess-hub/goaccess.conf"},
		ReadWritePaths: []string{"/var/lib/goaccess-hub", "/home/stats/htdocs/stats.example.com"},
	}
	got := RenderUnit(u)
	for _, want := range []string{
		"Description=GoAccess real-time dashboard",
		"User=root",
		"ExecStart=/usr/bin/goaccess /home/stats/logs/nginx/access.log --config-file=/etc/goaccess-hub/goaccess.conf",
		"ReadWritePaths=/var/lib/goaccess-hub /home/stats/htdocs/stats.example.com",
		"Restart=on-failure",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("unit missing %q:\n%s", want, got)
		}
	}
}

func TestServices(t *testing.T) {
	dir := t.TempDir()
	r := &shell.DryRunRunner{Lookup: func(line string) ([]byte, bool) {
		return []byte("active\n"), line == "systemctl is-active goaccess-hub"
	}}
	s := Services{Runner: r}
	path := filepath.Join(dir, "etc", "systemd", "system", "goaccess-hub.service")
	u := Unit{Description: "x", ExecStart: []string{"goaccess"}}
	if changed, err := s.WriteUnit(path, u); err != nil || !changed {
		t.Fatalf("WriteUnit() = %v, %v, want changed", changed, err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("unit not written: %v", err)
	}
	if changed, err := s.WriteUnit(path, u); err != nil || changed {
		t.Errorf("rewriting the same unit = %v, %v, want unchanged", changed, err)
	}
	u.ExecStart = append(u.ExecStart, "/var/log/remote/web1/access.log")
	if changed, _ := s.WriteUnit(path, u); !changed {
		t.Error("WriteUnit() with a new input should report a change")
	}

	ctx := context.Background()
	if err := s.Enable(ctx, "goaccess-hub"); err != nil {
		t.Fatal(err)
	}
	if !s.IsActive(ctx, "goaccess-hub") {
		t.Error("IsActive() = false, want true")
	}
	if s.IsActive(ctx, "other") {
		t.Error("IsActive(other) = true")
	}
	want := "systemctl daemon-reload|systemctl enable --now goaccess-hub|systemctl is-active goaccess-hub|systemctl is-active other"
	if got := strings.Join(r.Commands(), "|"); got != want {
		t.Errorf("commands = %q", got)
	}
}

func TestSetupLogrotate(t *testing.T) {
	root := t.TempDir()
	path, err := SetupLogrotate(root, LogrotateConfig{
		Name:    "goaccess-hub",
		Paths:   []string{"/var/log/goaccess-hub/*.log"},
		Service: "goaccess-hub",
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(root, "etc", "logrotate.d", "goaccess-hub"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{"/var/log/goaccess-hub/*.log {", "rotate 7", "size 50M", "copytruncate", "systemctl try-restart goaccess-hub"} {
		if !strings.Contains(got, want) {
			t.Errorf("logrotate config missing %q:\n%s", want, got)
		}
	}
}

func TestExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	if got := existingAncestor(filepath.Join(dir, "a", "b", "c")); got != dir {
		t.Errorf("existingAncestor() = %q, want %q", got, dir)
	}
}

func TestCollectHostStats(t *testing.T) {
	hs, err := CollectHostStats(t.TempDir())
	if err != nil {
		t.Skipf("host stats unavailable: %v", err)
	}
	if hs.DiskFree == 0 {
		t.Error("DiskFree = 0")
	}
}
