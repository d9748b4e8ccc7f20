package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

// Unit describes the systemd service that runs GoAccess in real-time mode.
type Unit struct {
	Name        string
	Description string
	ExecStart   []string
	User        string
	// ReadWritePaths are the only paths the sandboxed service may write.
	ReadWritePaths []string
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Description}}
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
User={{.User}}
ExecStart={{.Exec}}
Restart=on-failure
RestartSec=5
ProtectSystem=strict
ProtectHome=read-only
PrivateTmp=true
NoNewPrivileges=true
ReadWritePaths={{.RW}}

[Install]
WantedBy=multi-user.target
`))

// RenderUnit returns the unit file text.
func RenderUnit(u Unit) string {
	user := u.User
	if user == "" {
		user = "root"
	}
	exec := ""
	if len(u.ExecStart) > 0 {
		exec = shell.CommandLine(u.ExecStart[0], u.ExecStart[1:]...)
	}
	var b bytes.Buffer
	_ = unitTemplate.Execute(&b, struct {
		Description, User, Exec, RW string
	}{
		Description: u.Description,
		User:        user,
		Exec:        exec,
		RW:          strings.Join(u.ReadWritePaths, " "),
	})
	return b.String()
}

// Services manages systemd units.
type Services struct {
	Runner shell.Runner
}

// WriteUnit writes the rendered unit to path and reports whether the file
// changed. An identical unit is left untouched.
func (s Services) WriteUnit(path string, u Unit) (bool, error) {
	want := []byte(RenderUnit(u))
	if have, err := os.ReadFile(path); err == nil && bytes.Equal(have, want) {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, want, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

// DaemonReload makes systemd pick up edited unit files.
func (s Services) DaemonReload(ctx context.Context) error {
	_, err := s.Runner.Run(ctx, "systemctl", "daemon-reload")
	return err
}

// Enable reloads systemd and enables and starts name.
func (s Services) Enable(ctx context.Context, name string) error {
	if err := s.DaemonReload(ctx); err != nil {
		return err
	}
	_, err := s.Runner.Run(ctx, "systemctl", "enable", "--now", name)
	return err
}

// Restart restarts name, e.g. after goaccess.conf changed.
func (s Services) Restart(ctx context.Context, name string) error {
	_, err := s.Runner.Run(ctx, "systemctl", "restart", name)
	return err
}

// IsActive reports whether systemctl considers name active.
func (s Services) IsActive(ctx context.Context, name string) bool {
	out, err := s.Runner.Run(ctx, "systemctl", "is-active", name)
	return err == nil && strings.TrimSpace(string(out)) == "active"
}
