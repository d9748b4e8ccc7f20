package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
)

func init() {
	var write bool
	cmd := &cobra.Command{
		Use:   "collect-script",
		Short: "Print the rsync collection script, or rewrite it with --write",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleCollectScript(cmd.Context(), d, write)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Write the script and update cron instead of printing it")
	rootCmd.AddCommand(cmd)
}

func handleCollectScript(ctx context.Context, d *Deps, write bool) error {
	inv, err := collector.LoadInventory(d.Cfg.ServersFile())
	if err != nil {
		return err
	}
	if write {
		return syncCollector(ctx, d, inv)
	}
	script := collector.RenderScript(collector.ScriptParams{
		SSHKey:     d.Cfg.SSHKeyPath,
		CollectDir: d.Cfg.CollectDir,
		LogFile:    d.Cfg.CollectLogPath(),
		Servers:    inv.Servers,
	})
	_, err = d.Printer.Writer().Write([]byte(script))
	return err
}
