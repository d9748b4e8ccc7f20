package cloudpanel

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

// Site is the static CloudPanel site that serves the GoAccess report.
type Site struct {
	Domain   string
	SiteUser string
	Password string
}

// Manager wraps the clpctl commands the installer needs.
type Manager interface {
	Available() bool
	SiteExists(ctx context.Context, domain string) (bool, error)
	CreateStaticSite(ctx context.Context, site Site) error
	InstallCertificate(ctx context.Context, domain string) error
}

// Options configures the clpctl-backed Manager.
type Options struct {
	Bin    string // clpctl binary, default "clpctl"
	Root   string // filesystem root for vhost lookups, default "/"
	Runner shell.Runner
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

type manager struct {
	bin      string
	root     string
	run      shell.Runner
	lookPath func(string) (string, error)
}

// New returns a Manager driving clpctl through opts.Runner.
func New(opts Options) Manager {
	m := &manager{bin: opts.Bin, root: opts.Root, run: opts.Runner, lookPath: opts.LookPath}
	if m.bin == "" {
		m.bin = "clpctl"
	}
	if m.root == "" {
		m.root = "/"
	}
	if m.run == nil {
		m.run = shell.ExecRunner{}
	}
	if m.lookPath == nil {
		m.lookPath = exec.LookPath
	}
	return m
}

func (m *manager) Available() bool {
	_, err := m.lookPath(m.bin)
	return err == nil
}

// SiteExists looks for the nginx vhost CloudPanel writes for every site.
func (m *manager) SiteExists(_ context.Context, domain string) (bool, error) {
	path := filepath.Join(m.root, "etc", "nginx", "sites-enabled", domain+".conf")
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func (m *manager) CreateStaticSite(ctx context.Context, site Site) error {
	_, err := m.run.Run(ctx, m.bin, "site:add:static",
		"--domainName="+site.Domain,
		"--siteUser="+site.SiteUser,
		"--siteUserPassword="+site.Password,
	)
	return err
}

func (m *manager) InstallCertificate(ctx context.Context, domain string) error {
	_, err := m.run.Run(ctx, m.bin, "lets-encrypt:install:certificate", "--domainName="+domain)
	return err
}
