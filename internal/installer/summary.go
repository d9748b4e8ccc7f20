package installer

import (
	"fmt"
	"strconv"

	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

// Summary renders the operator instructions printed after a run.
func Summary(c *ui.ColorConfig, cfg config.Config, r *Result) string {
	title := "GoAccess dashboard ready"
	if r.DryRun {
		title = "Dry run complete, nothing was changed"
	}
	lines := []ui.SummaryLine{
		{Label: "Dashboard", Value: r.DashboardURL},
		{Label: "WebSocket", Value: r.WSURL},
		{Label: "Site user", Value: r.SiteUser},
		{Label: "Credentials", Value: r.CredentialsFile},
		{Label: "Log format", Value: r.LogFormat},
	}
	if r.GoAccessVersion != "" {
		lines = append(lines, ui.SummaryLine{Label: "GoAccess", Value: r.GoAccessVersion})
	}
	if len(r.Servers) > 0 {
		lines = append(lines, ui.SummaryLine{Label: "Servers", Value: strconv.Itoa(len(r.Servers))})
	}

	notes := []string{
		fmt.Sprintf("Open TCP port %d in the CloudPanel firewall so browsers reach the real-time socket.", cfg.Port),
	}
	if r.NginxFormat != "" {
		notes = append(notes, fmt.Sprintf("Remote servers must log with: log_format goaccess '%s';", r.NginxFormat))
	}
	if r.AuthorizedKeysLine != "" {
		notes = append(notes, "Append this line to ~/.ssh/authorized_keys on every remote server:\n  "+r.AuthorizedKeysLine)
	}
	if len(r.Servers) == 0 {
		notes = append(notes, "Add servers with: goaccess-hub servers add <name> <user@host>")
	}
	for _, w := range r.Warnings() {
		notes = append(notes, fmt.Sprintf("Step %s needs attention: %s", w.Name, w.Error))
	}
	return ui.SummaryBox(c, title, lines, notes)
}
