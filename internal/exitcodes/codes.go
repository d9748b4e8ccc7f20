package exitcodes

import (
	"errors"
	"fmt"
	"os"
)

// Process exit codes for goaccess-hub.
const (
	Success = 0

	// GeneralError is any failure without a more specific code.
	GeneralError = 1

	// InvalidArgs covers bad flags, arguments or unknown presets.
	InvalidArgs = 2

	// PreconditionFailed means the host is not ready: not root, clpctl
	// missing, site already provisioned, too little disk.
	PreconditionFailed = 3

	// NetworkError covers unreachable endpoints (dashboard websocket).
	NetworkError = 4

	// ProcessError means an external command (clpctl, apt-get, systemctl,
	// ssh-keygen, crontab) failed.
	ProcessError = 5

	// ValidationError covers operator input that fails validation.
	ValidationError = 6
)

// ExitWithError prints msg to stderr and exits with code.
func ExitWithError(code int, msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}

// CodeForError returns the exit code carried by err, looking through
// wrapped errors. Errors without an explicit code map to GeneralError.
func CodeForError(err error) int {
	if err == nil {
		return Success
	}
	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec.Code
	}
	return GeneralError
}
