package sshkeys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

// Comment tags the collection key on remote authorized_keys files.
const Comment = "goaccess-hub"

// EnsureKey creates an ed25519 key pair at path unless one exists and
// returns the public key. created reports whether ssh-keygen ran.
func EnsureKey(ctx context.Context, r shell.Runner, path string) (pub string, created bool, err error) {
	if pub, err := readPublic(path); err == nil {
		return pub, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", false, err
	}
	if _, err := r.Run(ctx, "ssh-keygen", "-q", "-t", "ed25519", "-N", "", "-C", Comment, "-f", path); err != nil {
		return "", false, err
	}
	pub, err = readPublic(path)
	if err != nil {
		return "", true, exitcodes.WrapError(exitcodes.ProcessError, "ssh-keygen did not produce "+path+".pub", err)
	}
	return pub, true, nil
}

func readPublic(path string) (string, error) {
	b, err := os.ReadFile(path + ".pub")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// AuthorizedKeysLine restricts pub to read-only rsync use: no forwarding,
// no pty. The operator appends it to ~/.ssh/authorized_keys on each server.
func AuthorizedKeysLine(pub string) string {
	return fmt.Sprintf("no-port-forwarding,no-X11-forwarding,no-agent-forwarding,no-pty %s", strings.TrimSpace(pub))
}
