package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
)

func init() {
	var fromStart bool
	cmd := &cobra.Command{
		Use:       "logs [goaccess|collect|install]",
		Short:     "Follow the GoAccess debug log, the collector log or the install audit log",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"goaccess", "collect", "install"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			which := "goaccess"
			if len(args) == 1 {
				which = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return handleLogs(ctx, d, which, fromStart)
		},
	}
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "Print the whole file before following")
	rootCmd.AddCommand(cmd)
}

// handleLogs tails the selected log until interrupted.
func handleLogs(ctx context.Context, d *Deps, which string, fromStart bool) error {
	var path string
	switch which {
	case "goaccess":
		path = d.Cfg.DebugLogPath()
	case "collect":
		path = d.Cfg.CollectLogPath()
	case "install":
		path = d.Cfg.AuditLogPath()
	default:
		return exitcodes.InvalidArgsErrorf("unknown log %q (use goaccess|collect|install)", which)
	}
	path = d.Cfg.Path(path)
	if !fileExists(path) {
		if d.Printer.Structured() {
			_ = d.Printer.Emit(map[string]any{"ok": false, "error": "log file not found", "path": path})
			return silentErr{exitcodes.PreconditionErrorf("log file not found: %s", path)}
		}
		return exitcodes.PreconditionErrorf("log file not found: %s", path)
	}
	d.Printer.Info("Following " + path + " (Ctrl+C to stop)")
	return d.Follow(ctx, path, fromStart, d.Printer.Writer())
}
