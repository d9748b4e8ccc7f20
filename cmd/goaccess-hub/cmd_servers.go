package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/goaccess"
	"github.com/cloudpanel-tools/goaccess-hub/internal/installer"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

func init() {
	serversCmd := &cobra.Command{
		Use:   "servers",
		Short: "Manage the remote servers whose logs are collected",
	}

	serversCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the collection inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleServersList(d)
		},
	})

	var logPath string
	var noSync bool
	addCmd := &cobra.Command{
		Use:     "add <name> <user@host[:port]>",
		Short:   "Add a server and refresh the collection script",
		Example: "  goaccess-hub servers add web1 root@10.0.0.5 --log-path /home/shop/logs/nginx/access.log",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			s := collector.Server{Name: args[0], Address: args[1], LogPath: logPath}
			return handleServersAdd(cmd.Context(), d, s, !noSync)
		},
	}
	addCmd.Flags().StringVar(&logPath, "log-path", "", "Remote access log (default "+collector.DefaultLogPath+")")
	addCmd.Flags().BoolVar(&noSync, "no-sync", false, "Only edit the inventory; leave script and cron alone")
	serversCmd.AddCommand(addCmd)

	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a server and refresh the collection script",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			return handleServersRemove(cmd.Context(), d, args[0], !noSync)
		},
	}
	removeCmd.Flags().BoolVar(&noSync, "no-sync", false, "Only edit the inventory; leave script and cron alone")
	serversCmd.AddCommand(removeCmd)

	rootCmd.AddCommand(serversCmd)
}

func handleServersList(d *Deps) error {
	inv, err := collector.LoadInventory(d.Cfg.ServersFile())
	if err != nil {
		return err
	}
	p := d.Printer
	if p.Structured() {
		return p.Emit(inv)
	}
	if len(inv.Servers) == 0 {
		p.Info("No servers yet. Add one with: goaccess-hub servers add <name> <user@host>")
		return nil
	}
	rows := make([][]string, 0, len(inv.Servers))
	for _, s := range inv.Servers {
		rows = append(rows, []string{s.Name, s.Address, s.RemoteLog(), collector.LocalLogPath(d.Cfg.CollectDir, s)})
	}
	p.Textf("%s\n", ui.Table(p.Colors, []string{"NAME", "ADDRESS", "REMOTE LOG", "LOCAL COPY"}, rows))
	return nil
}

func handleServersAdd(ctx context.Context, d *Deps, s collector.Server, sync bool) error {
	inv, err := collector.LoadInventory(d.Cfg.ServersFile())
	if err != nil {
		return err
	}
	if err := inv.Add(s); err != nil {
		return err
	}
	if err := inv.Save(d.Cfg.ServersFile()); err != nil {
		return err
	}
	d.Printer.Success("Added " + s.Name + " (" + s.Address + ")")
	if !sync {
		return nil
	}
	return syncCollector(ctx, d, inv)
}

func handleServersRemove(ctx context.Context, d *Deps, name string, sync bool) error {
	inv, err := collector.LoadInventory(d.Cfg.ServersFile())
	if err != nil {
		return err
	}
	if err := inv.Remove(name); err != nil {
		return err
	}
	if err := inv.Save(d.Cfg.ServersFile()); err != nil {
		return err
	}
	d.Printer.Success("Removed " + name)
	if !sync {
		return nil
	}
	return syncCollector(ctx, d, inv)
}

// syncCollector rewrites the collection script for inv, keeps the cron
// entry present with servers and absent without, and points the dashboard
// service at the collected logs.
func syncCollector(ctx context.Context, d *Deps, inv *collector.Inventory) error {
	cfg := d.Cfg
	script := collector.RenderScript(collector.ScriptParams{
		SSHKey:     cfg.SSHKeyPath,
		CollectDir: cfg.CollectDir,
		LogFile:    cfg.CollectLogPath(),
		Servers:    inv.Servers,
	})
	res, err := goaccess.Store{Mode: 0o755}.Write(cfg.CollectScriptPath(), script)
	if err != nil {
		return err
	}
	if res.Changed {
		d.Printer.Success("Rewrote " + cfg.CollectScriptPath())
	}

	cron := collector.Cron{Runner: d.Runner}
	if len(inv.Servers) == 0 {
		if err := cron.Uninstall(ctx); err != nil {
			return err
		}
		d.Printer.Info("No servers left; collection cron removed")
	} else {
		changed, err := cron.Install(ctx, cfg.CollectSchedule, cfg.CollectScript(), cfg.CollectLogPath())
		if err != nil {
			return err
		}
		if changed {
			d.Printer.Success("Installed collection cron (" + cfg.CollectSchedule + ")")
		}
	}
	return syncService(ctx, d, inv)
}

// syncService rewrites the dashboard unit so goaccess reads every collected
// log and restarts it when the unit changed. Nothing happens before install.
func syncService(ctx context.Context, d *Deps, inv *collector.Inventory) error {
	cfg := d.Cfg
	if _, err := os.Stat(cfg.UnitPath()); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := installer.TouchCollectedLogs(cfg, inv.Servers); err != nil {
		return err
	}
	svc := system.Services{Runner: d.Runner}
	changed, err := svc.WriteUnit(cfg.UnitPath(), installer.ServiceUnit(cfg, inv.Servers))
	if err != nil || !changed {
		return err
	}
	if err := svc.DaemonReload(ctx); err != nil {
		return err
	}
	if err := svc.Restart(ctx, cfg.ServiceName); err != nil {
		return err
	}
	d.Printer.Success(fmt.Sprintf("Restarted %s with %d collected log(s)", cfg.ServiceName, len(inv.Servers)))
	return nil
}
