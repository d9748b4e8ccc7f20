package system

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

// MinGoAccessVersion is the first release with persist/restore, which the
// generated configuration relies on.
const MinGoAccessVersion = "v1.4.0"

// Packages installs Debian packages through apt-get.
type Packages struct {
	Runner shell.Runner
}

// Install refreshes the package index and installs names non-interactively.
func (p Packages) Install(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := p.Runner.Run(ctx, "apt-get", "update", "-q"); err != nil {
		return err
	}
	args := append([]string{"install", "-y", "-q", "--no-install-recommends"}, names...)
	_, err := p.Runner.Run(ctx, "apt-get", args...)
	return err
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseGoAccessVersion extracts a semver ("v1.9.3") from goaccess --version
// output, which starts with "GoAccess - 1.9.3.".
func ParseGoAccessVersion(out string) (string, bool) {
	first, _, _ := strings.Cut(out, "\n")
	m := versionRe.FindStringSubmatch(first)
	if m == nil {
		return "", false
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := "v" + m[1] + "." + m[2] + "." + patch
	return v, semver.IsValid(v)
}

// GoAccessVersion runs `<bin> --version` and parses the result.
func GoAccessVersion(ctx context.Context, r shell.Runner, bin string) (string, error) {
	out, err := r.Run(ctx, bin, "--version")
	if err != nil {
		return "", err
	}
	v, ok := ParseGoAccessVersion(string(out))
	if !ok {
		return "", exitcodes.PreconditionErrorf("could not parse goaccess version from %q", strings.TrimSpace(string(out)))
	}
	return v, nil
}

// RequireVersion fails when v is older than min.
func RequireVersion(v, min string) error {
	if !semver.IsValid(v) {
		return exitcodes.PreconditionErrorf("invalid goaccess version %q", v)
	}
	if semver.Compare(v, min) < 0 {
		return exitcodes.PreconditionErrorf("goaccess %s is older than required %s; install it from deb.goaccess.io", v, min)
	}
	return nil
}
