package validate

import (
	"crypto/rand"
	"math/big"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

var (
	labelRe    = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	siteUserRe = regexp.MustCompile(`^[a-z][a-z0-9_-]{2,31}$`)
	sshUserRe  = regexp.MustCompile(`^[a-z_][a-z0-9_.-]*$`)
	nameRe     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Domain checks that s is a fully qualified host name: at least two
// RFC 1123 labels of at most 63 characters, 253 characters overall.
func Domain(s string) error {
	d := strings.ToLower(strings.TrimSpace(s))
	if d == "" {
		return exitcodes.ValidationErr("domain is empty")
	}
	if len(d) > 253 {
		return exitcodes.ValidationErrf("domain %q is longer than 253 characters", s)
	}
	labels := strings.Split(d, ".")
	if len(labels) < 2 {
		return exitcodes.ValidationErrf("domain %q must contain at least one dot", s)
	}
	for _, l := range labels {
		if len(l) == 0 || len(l) > 63 || !labelRe.MatchString(l) {
			return exitcodes.ValidationErrf("domain %q has an invalid label %q", s, l)
		}
	}
	if _, err := strconv.Atoi(labels[len(labels)-1]); err == nil {
		return exitcodes.ValidationErrf("domain %q looks like an IP address", s)
	}
	return nil
}

// SiteUser checks a CloudPanel site user name.
func SiteUser(s string) error {
	if !siteUserRe.MatchString(s) {
		return exitcodes.ValidationErrf("site user %q must be 3-32 characters of a-z, 0-9, _ or -, starting with a letter", s)
	}
	return nil
}

// ServerAddress checks a remote server spec of the form user@host[:port].
func ServerAddress(s string) error {
	user, hostport, ok := strings.Cut(strings.TrimSpace(s), "@")
	if !ok || user == "" || hostport == "" {
		return exitcodes.ValidationErrf("server %q must be user@host[:port]", s)
	}
	if !sshUserRe.MatchString(user) {
		return exitcodes.ValidationErrf("server %q has an invalid user %q", s, user)
	}
	host := hostport
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		n, perr := strconv.Atoi(p)
		if perr != nil || n < 1 || n > 65535 {
			return exitcodes.ValidationErrf("server %q has an invalid port %q", s, p)
		}
		host = h
	}
	if net.ParseIP(host) != nil {
		return nil
	}
	if err := Domain(host); err != nil {
		return exitcodes.ValidationErrf("server %q has an invalid host %q", s, host)
	}
	return nil
}

// ServerName checks an inventory name, which also becomes a directory name.
func ServerName(s string) error {
	if len(s) > 64 || !nameRe.MatchString(s) {
		return exitcodes.ValidationErrf("server name %q must be 1-64 characters of letters, digits, '.', '_' or '-'", s)
	}
	return nil
}

// MinPasswordLength is the shortest password Password will generate.
const MinPasswordLength = 16

const passwordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// Password returns n random characters from an unambiguous alphanumeric
// alphabet. n below MinPasswordLength is raised to it.
func Password(n int) (string, error) {
	if n < MinPasswordLength {
		n = MinPasswordLength
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = passwordAlphabet[idx.Int64()]
	}
	return string(b), nil
}
