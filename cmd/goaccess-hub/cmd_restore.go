package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/goaccess"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

func init() {
	var latest bool
	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "List or restore the backups taken when managed files were rewritten",
		Long: `Without arguments, list the .bak.lz4 backups of goaccess.conf, config.yaml,
the credentials file and the collection script. With a backup path, put it
back in place. --latest restores the newest goaccess.conf backup.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			backup := ""
			if len(args) == 1 {
				backup = args[0]
			}
			return handleRestore(cmd.Context(), d, backup, latest)
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "Restore the newest goaccess.conf backup")
	rootCmd.AddCommand(cmd)
}

type managedFile struct {
	Path string
	Mode os.FileMode
}

// managedFiles are the files written through goaccess.Store, which backs up
// the previous content on every change.
func managedFiles(d *Deps) []managedFile {
	cfg := d.Cfg
	return []managedFile{
		{cfg.GoAccessConfPath(), 0o644},
		{cfg.FilePath(), 0o644},
		{cfg.CredentialsFile(), 0o600},
		{cfg.CollectScriptPath(), 0o755},
	}
}

type backupEntry struct {
	File   string `json:"file" yaml:"file"`
	Backup string `json:"backup" yaml:"backup"`
}

func handleRestore(ctx context.Context, d *Deps, backup string, latest bool) error {
	files := managedFiles(d)
	var entries []backupEntry
	for _, f := range files {
		bs, err := goaccess.Backups(f.Path)
		if err != nil {
			return err
		}
		for _, b := range bs {
			entries = append(entries, backupEntry{File: f.Path, Backup: b})
		}
	}

	if latest {
		if backup != "" {
			return exitcodes.InvalidArgsError("pass a backup path or --latest, not both")
		}
		conf := d.Cfg.GoAccessConfPath()
		for _, e := range entries {
			if e.File == conf {
				backup = e.Backup
			}
		}
		if backup == "" {
			return exitcodes.PreconditionErrorf("no backups of %s", conf)
		}
	}

	p := d.Printer
	if backup == "" {
		if p.Structured() {
			return p.Emit(entries)
		}
		if len(entries) == 0 {
			p.Info("No backups yet. They are taken when install rewrites a managed file.")
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.File, filepath.Base(e.Backup)})
		}
		p.Textf("%s\n", ui.Table(p.Colors, []string{"FILE", "BACKUP"}, rows))
		return nil
	}

	var target *managedFile
	for i := range files {
		for _, e := range entries {
			if e.File == files[i].Path && e.Backup == backup {
				target = &files[i]
			}
		}
	}
	if target == nil {
		return exitcodes.InvalidArgsErrorf("%s is not a backup of a managed file (see: goaccess-hub restore)", backup)
	}
	restored, err := goaccess.Store{Mode: target.Mode}.Restore(backup)
	if err != nil {
		return err
	}

	restarted := false
	svc := system.Services{Runner: d.Runner}
	if restored == d.Cfg.GoAccessConfPath() && svc.IsActive(ctx, d.Cfg.ServiceName) {
		if err := svc.Restart(ctx, d.Cfg.ServiceName); err != nil {
			return err
		}
		restarted = true
	}

	if p.Structured() {
		return p.Emit(map[string]any{"ok": true, "restored": restored, "backup": backup, "restarted": restarted})
	}
	p.Success("Restored " + restored + " from " + filepath.Base(backup))
	if restarted {
		p.Success("Restarted " + d.Cfg.ServiceName)
	}
	return nil
}
