package system

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogrotateConfig rotates the installer's own log files.
type LogrotateConfig struct {
	Name    string   // file name under /etc/logrotate.d
	Paths   []string // globs
	Rotate  int
	SizeMB  int
	Service string // restarted after rotation when set
}

// RenderLogrotate returns the logrotate stanza for cfg.
func RenderLogrotate(cfg LogrotateConfig) string {
	rotate := cfg.Rotate
	if rotate <= 0 {
		rotate = 7
	}
	size := cfg.SizeMB
	if size <= 0 {
		size = 50
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s {\n", strings.Join(cfg.Paths, " "))
	fmt.Fprintf(&b, "    rotate %d\n", rotate)
	fmt.Fprintf(&b, "    size %dM\n", size)
	b.WriteString("    missingok\n    notifempty\n    compress\n    delaycompress\n    copytruncate\n")
	if cfg.Service != "" {
		fmt.Fprintf(&b, "    postrotate\n        systemctl try-restart %s >/dev/null 2>&1 || true\n    endscript\n", cfg.Service)
	}
	b.WriteString("}\n")
	return b.String()
}

// SetupLogrotate writes cfg under root/etc/logrotate.d.
func SetupLogrotate(root string, cfg LogrotateConfig) (string, error) {
	dir := filepath.Join(root, "etc", "logrotate.d")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, cfg.Name)
	return path, os.WriteFile(path, []byte(RenderLogrotate(cfg)), 0o644)
}
