package cloudpanel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

func TestSiteExists(t *testing.T) {
	root := t.TempDir()
	vhosts := filepath.Join(root, "etc", "nginx", "sites-enabled")
	if err := os.MkdirAll(vhosts, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vhosts, "shop.example.com.conf"), []byte("server {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := New(Options{Root: root})
	ctx := context.Background()

	ok, err := m.SiteExists(ctx, "shop.example.com")
	if err != nil || !ok {
		t.Errorf("SiteExists(shop) = %v, %v, want true", ok, err)
	}
	ok, err = m.SiteExists(ctx, "stats.example.com")
	if err != nil || ok {
		t.Errorf("SiteExists(stats) = %v, %v, want false", ok, err)
	}
}

func TestCreateStaticSite(t *testing.T) {
	r := &shell.DryRunRunner{}
	m := New(Options{Bin: "/usr/bin/clpctl", Runner: r})

	err := m.CreateStaticSite(context.Background(), Site{Domain: "stats.example.com", SiteUser: "stats", Password: "pw"})
	if err != nil {
		t.Fatalf("CreateStaticSite() error = %v", err)
	}
	want := "/usr/bin/clpctl site:add:static --domainName=stats.example.com --siteUser=stats --siteUserPassword=***"
	if got := strings.Join(r.Commands(), "\n"); got != want {
		t.Errorf("commands = %q, want %q", got, want)
	}
}

func TestInstallCertificate(t *testing.T) {
	r := &shell.DryRunRunner{}
	m := New(Options{Runner: r})
	if err := m.InstallCertificate(context.Background(), "stats.example.com"); err != nil {
		t.Fatal(err)
	}
	if got := r.Commands(); len(got) != 1 || got[0] != "clpctl lets-encrypt:install:certificate --domainName=stats.example.com" {
		t.Errorf("commands = %v", got)
	}
}

func TestAvailable(t *testing.T) {
	found := New(Options{LookPath: func(string) (string, error) { return "/usr/bin/clpctl", nil }})
	if !found.Available() {
		t.Error("Available() = false with clpctl on PATH")
	}
	missing := New(Options{LookPath: func(string) (string, error) { return "", errors.New("not found") }})
	if missing.Available() {
		t.Error("Available() = true without clpctl")
	}
}
