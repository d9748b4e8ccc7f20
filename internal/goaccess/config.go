package goaccess

import (
	"fmt"
	"strings"
)

// Settings is everything goaccess.conf carries for one dashboard.
type Settings struct {
	Title      string
	LogFormat  string // GoAccess log-format directive string
	TimeFormat string
	DateFormat string
	Port       int
	WSURL      string
	OutputPath string
	DebugFile  string
	DBPath     string
	KeepLast   int

	// SSLCert and SSLKey enable wss on the real-time server. Both or neither.
	SSLCert string
	SSLKey  string
}

// Render returns the goaccess.conf text. log-format is written verbatim on
// a single line; GoAccess reads everything after the key as the value.
func Render(s Settings) string {
	var b strings.Builder
	kv := func(key string, val any) { fmt.Fprintf(&b, "%s %v\n", key, val) }

	b.WriteString("# Managed by goaccess-hub. Local edits are overwritten on reinstall.\n")
	b.WriteString("no-global-config true\n\n")

	kv("time-format", s.TimeFormat)
	kv("date-format", s.DateFormat)
	kv("log-format", strings.ReplaceAll(s.LogFormat, "\n", " "))
	b.WriteString("\n")

	kv("real-time-html", true)
	kv("port", s.Port)
	kv("ws-url", s.WSURL)
	if s.SSLCert != "" && s.SSLKey != "" {
		kv("ssl-cert", s.SSLCert)
		kv("ssl-key", s.SSLKey)
	}
	kv("output", s.OutputPath)
	kv("debug-file", s.DebugFile)
	b.WriteString("\n")

	kv("keep-last", s.KeepLast)
	kv("load-from-disk", true)
	kv("db-path", s.DBPath)
	kv("restore", true)
	kv("persist", true)
	b.WriteString("\n")

	title := s.Title
	if title == "" {
		title = "Web Analytics"
	}
	kv("html-report-title", title)
	return b.String()
}

// Directives lists the keys Render always emits, in order.
func Directives() []string {
	return []string{
		"no-global-config", "time-format", "date-format", "log-format",
		"real-time-html", "port", "ws-url", "output", "debug-file",
		"keep-last", "load-from-disk", "db-path", "restore", "persist",
		"html-report-title",
	}
}
