package shell

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logger"
)

// Runner abstracts exec.Command calls for testability.
type Runner interface {
	// Run executes name with args and returns its stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// RunInput is Run with stdin fed from in.
	RunInput(ctx context.Context, in io.Reader, name string, args ...string) ([]byte, error)
}

// CommandLine renders name and args the way an operator would type them.
func CommandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'$") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// ExecRunner is the production Runner. Env entries are appended to the
// inherited environment.
type ExecRunner struct {
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunInput(ctx, nil, name, args...)
}

func (r ExecRunner) RunInput(ctx context.Context, in io.Reader, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	if in != nil {
		cmd.Stdin = in
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	line := CommandLine(name, args...)
	logger.Debug("exec", zap.String("cmd", redact(line)))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		logger.Debug("exec failed", zap.String("cmd", redact(line)), zap.String("output", msg), zap.Error(err))
		if msg != "" {
			err = &outputError{err: err, output: msg}
		}
		return stdout.Bytes(), exitcodes.ProcessErr(redact(line), err)
	}
	return stdout.Bytes(), nil
}

type outputError struct {
	err    error
	output string
}

func (e *outputError) Error() string { return e.err.Error() + ": " + e.output }
func (e *outputError) Unwrap() error { return e.err }

// redact hides password flag values before a command line is logged.
func redact(line string) string {
	const flag = "--siteUserPassword="
	i := strings.Index(line, flag)
	if i < 0 {
		return line
	}
	end := strings.IndexByte(line[i:], ' ')
	if end < 0 {
		return line[:i+len(flag)] + "***"
	}
	return line[:i+len(flag)] + "***" + line[i+end:]
}

// DryRunRunner records commands instead of running them. Lookup lets
// read-only probes (version checks, is-active) return canned output.
type DryRunRunner struct {
	mu       sync.Mutex
	commands []string
	Lookup   func(line string) ([]byte, bool)
}

func (r *DryRunRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.RunInput(ctx, nil, name, args...)
}

func (r *DryRunRunner) RunInput(_ context.Context, _ io.Reader, name string, args ...string) ([]byte, error) {
	line := CommandLine(name, args...)
	r.mu.Lock()
	r.commands = append(r.commands, redact(line))
	r.mu.Unlock()
	if r.Lookup != nil {
		if out, ok := r.Lookup(line); ok {
			return out, nil
		}
	}
	return nil, nil
}

// Commands returns the recorded command lines in order.
func (r *DryRunRunner) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.commands))
	copy(out, r.commands)
	return out
}
