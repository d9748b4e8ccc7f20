package collector

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudpanel-tools/goaccess-hub/internal/shell"
)

// CronMarker tags the crontab line this package owns.
const CronMarker = "# goaccess-hub-collect"

// Cron edits root's crontab through crontab -l / crontab -.
type Cron struct {
	Runner shell.Runner
}

func (c Cron) current(ctx context.Context) string {
	// no crontab yet is an error from crontab -l
	out, err := c.Runner.Run(ctx, "crontab", "-l")
	if err != nil {
		return ""
	}
	return string(out)
}

func withoutMarker(tab string) []string {
	var kept []string
	for _, line := range strings.Split(tab, "\n") {
		if line == "" || strings.Contains(line, CronMarker) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// Line is the crontab entry Install writes.
func Line(schedule, script, logFile string) string {
	return fmt.Sprintf("%s %s >>%s 2>&1 %s", schedule, script, logFile, CronMarker)
}

// Install adds or replaces the collection entry. It is a no-op when the
// entry is already present unchanged.
func (c Cron) Install(ctx context.Context, schedule, script, logFile string) (bool, error) {
	tab := c.current(ctx)
	line := Line(schedule, script, logFile)
	for _, l := range strings.Split(tab, "\n") {
		if l == line {
			return false, nil
		}
	}
	lines := append(withoutMarker(tab), line)
	_, err := c.Runner.RunInput(ctx, strings.NewReader(strings.Join(lines, "\n")+"\n"), "crontab", "-")
	return err == nil, err
}

// Uninstall removes the collection entry if present.
func (c Cron) Uninstall(ctx context.Context) error {
	tab := c.current(ctx)
	if !strings.Contains(tab, CronMarker) {
		return nil
	}
	kept := withoutMarker(tab)
	content := ""
	if len(kept) > 0 {
		content = strings.Join(kept, "\n") + "\n"
	}
	_, err := c.Runner.RunInput(ctx, strings.NewReader(content), "crontab", "-")
	return err
}

// IsInstalled reports whether the crontab holds the collection entry.
func (c Cron) IsInstalled(ctx context.Context) bool {
	return strings.Contains(c.current(ctx), CronMarker)
}
