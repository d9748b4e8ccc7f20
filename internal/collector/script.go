package collector

import (
	"bytes"
	"net"
	"path/filepath"
	"strings"
	"text/template"
)

// ScriptParams feeds RenderScript.
type ScriptParams struct {
	SSHKey     string
	CollectDir string
	LogFile    string
	Servers    []Server
}

type scriptServer struct {
	Name   string
	Port   string
	Source string
	Dest   string
}

// splitAddress turns user@host[:port] into an rsync source prefix and port.
func splitAddress(addr string) (userHost, port string) {
	user, hostport, _ := strings.Cut(addr, "@")
	host := hostport
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		host, port = h, p
	}
	host = strings.Trim(host, "[]")
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return user + "@" + host, port
}

// LocalLogPath is where a server's collected log lands on the hub.
func LocalLogPath(collectDir string, s Server) string {
	return filepath.Join(collectDir, s.Name, "access.log")
}

// shellQuote wraps s in single quotes so bash takes it literally.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var scriptTemplate = template.Must(template.New("collect").Funcs(template.FuncMap{
	"shellQuote": shellQuote,
}).Parse(`#!/usr/bin/env bash
# Managed by goaccess-hub. Regenerate with: goaccess-hub collect-script
set -uo pipefail

SSH={{shellQuote .SSHCommand}}
LOG={{shellQuote .LogFile}}

exec 9>{{shellQuote .LockFile}}
flock -n 9 || exit 0

log() { printf '%s %s\n' "$(date -Is)" "$*" >>"$LOG"; }

failed=0
pull() {
	local name=$1 port=$2 src=$3 dest=$4
	local ssh_cmd=$SSH
	[ -n "$port" ] && ssh_cmd="$ssh_cmd -p $port"
	mkdir -p "$(dirname "$dest")"
	if rsync -az --inplace --timeout=60 -e "$ssh_cmd" "$src" "$dest" 2>>"$LOG"; then
		log "ok $name"
	else
		log "failed $name"
		failed=1
	fi
}
{{range .Servers}}
pull {{shellQuote .Name}} {{shellQuote .Port}} {{shellQuote .Source}} {{shellQuote .Dest}}
{{- end}}

exit $failed
`))

// RenderScript returns the bash script cron runs to pull every server's log.
// --inplace keeps the inode stable so the running GoAccess keeps tailing.
func RenderScript(p ScriptParams) string {
	// rsync splits -e on whitespace but honors quotes
	data := struct {
		SSHCommand, LockFile, LogFile string
		Servers                       []scriptServer
	}{
		SSHCommand: "ssh -i " + shellQuote(p.SSHKey) + " -o BatchMode=yes -o ConnectTimeout=10 -o StrictHostKeyChecking=accept-new",
		LockFile:   filepath.Join(p.CollectDir, ".collect.lock"),
		LogFile:    p.LogFile,
	}
	for _, s := range p.Servers {
		src, port := splitAddress(s.Address)
		data.Servers = append(data.Servers, scriptServer{
			Name:   s.Name,
			Port:   port,
			Source: src + ":" + s.RemoteLog(),
			Dest:   LocalLogPath(p.CollectDir, s),
		})
	}
	var b bytes.Buffer
	_ = scriptTemplate.Execute(&b, data)
	return b.String()
}
