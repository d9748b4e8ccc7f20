package main

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/cloudpanel-tools/goaccess-hub/internal/collector"
	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/installer"
	"github.com/cloudpanel-tools/goaccess-hub/internal/system"
)

func TestHandleServersAdd_SyncsScriptAndCron(t *testing.T) {
	d, buf := newTestDeps(t, "text")
	ctx := context.Background()

	s := collector.Server{Name: "web1", Address: "root@10.0.0.5"}
	if err := handleServersAdd(ctx, d, s, true); err != nil {
		t.Fatalf("handleServersAdd() error = %v", err)
	}

	inv, err := collector.LoadInventory(d.Cfg.ServersFile())
	if err != nil || len(inv.Servers) != 1 {
		t.Fatalf("inventory = %+v, %v", inv, err)
	}
	script, err := os.ReadFile(d.Cfg.CollectScriptPath())
	if err != nil {
		t.Fatalf("collect script not written: %v", err)
	}
	if !strings.Contains(string(script), "10.0.0.5") {
		t.Error("collect script does not pull from web1")
	}
	if info, _ := os.Stat(d.Cfg.CollectScriptPath()); info.Mode().Perm() != 0o755 {
		t.Errorf("script mode = %v, want 0755", info.Mode().Perm())
	}
	if !strings.Contains(runnerOf(d).crontab, collector.CronMarker) {
		t.Errorf("crontab = %q, want collection entry", runnerOf(d).crontab)
	}
	if !strings.Contains(buf.String(), "Added web1") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestHandleServersAdd_RewritesServiceUnit(t *testing.T) {
	d, buf := newTestDeps(t, "text")
	d.Cfg = d.Cfg.WithDomain("stats.example.com").WithSiteUser("stats")
	ctx := context.Background()

	svc := system.Services{Runner: d.Runner}
	if _, err := svc.WriteUnit(d.Cfg.UnitPath(), installer.ServiceUnit(d.Cfg, nil)); err != nil {
		t.Fatal(err)
	}
	s := collector.Server{Name: "web1", Address: "root@10.0.0.5"}
	if err := handleServersAdd(ctx, d, s, true); err != nil {
		t.Fatalf("handleServersAdd() error = %v", err)
	}

	local := collector.LocalLogPath(d.Cfg.CollectDir, s)
	unit, err := os.ReadFile(d.Cfg.UnitPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(unit), local) {
		t.Errorf("unit does not read %s:\n%s", local, unit)
	}
	if _, err := os.Stat(d.Cfg.Path(local)); err != nil {
		t.Errorf("collected log not created: %v", err)
	}
	cmds := strings.Join(runnerOf(d).commands, "|")
	if !strings.Contains(cmds, "systemctl daemon-reload|systemctl restart goaccess-hub") {
		t.Errorf("commands = %s", cmds)
	}
	if !strings.Contains(buf.String(), "Restarted goaccess-hub") {
		t.Errorf("output = %q", buf.String())
	}

	runnerOf(d).commands = nil
	if err := handleServersRemove(ctx, d, "web1", true); err != nil {
		t.Fatal(err)
	}
	unit, _ = os.ReadFile(d.Cfg.UnitPath())
	if strings.Contains(string(unit), local) {
		t.Errorf("removed server still in unit:\n%s", unit)
	}
	if !strings.Contains(strings.Join(runnerOf(d).commands, "|"), "systemctl restart goaccess-hub") {
		t.Errorf("commands = %v", runnerOf(d).commands)
	}
}

func TestHandleServersAdd_NoUnitBeforeInstall(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	s := collector.Server{Name: "web1", Address: "root@10.0.0.5"}
	if err := handleServersAdd(context.Background(), d, s, true); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(d.Cfg.UnitPath()); !os.IsNotExist(err) {
		t.Errorf("unit created before install: %v", err)
	}
	for _, c := range runnerOf(d).commands {
		if strings.HasPrefix(c, "systemctl") {
			t.Errorf("unexpected %q before install", c)
		}
	}
}

func TestHandleServersAdd_Duplicate(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	ctx := context.Background()
	s := collector.Server{Name: "web1", Address: "root@10.0.0.5"}

	if err := handleServersAdd(ctx, d, s, false); err != nil {
		t.Fatal(err)
	}
	err := handleServersAdd(ctx, d, s, false)
	if exitcodes.CodeForError(err) != exitcodes.ValidationError {
		t.Errorf("duplicate add code = %d, want ValidationError (err %v)", exitcodes.CodeForError(err), err)
	}
}

func TestHandleServersAdd_NoSync(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	if err := handleServersAdd(context.Background(), d, collector.Server{Name: "web1", Address: "root@10.0.0.5"}, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(d.Cfg.CollectScriptPath()); !os.IsNotExist(err) {
		t.Error("--no-sync should not write the collect script")
	}
	if len(runnerOf(d).commands) != 0 {
		t.Errorf("--no-sync ran %v", runnerOf(d).commands)
	}
}

func TestHandleServersRemove_LastServerDropsCron(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	ctx := context.Background()
	r := runnerOf(d)
	r.crontab = "0 3 * * * /usr/local/bin/backup\n"

	if err := handleServersAdd(ctx, d, collector.Server{Name: "web1", Address: "root@10.0.0.5"}, true); err != nil {
		t.Fatal(err)
	}
	if err := handleServersRemove(ctx, d, "web1", true); err != nil {
		t.Fatalf("handleServersRemove() error = %v", err)
	}
	if strings.Contains(r.crontab, collector.CronMarker) {
		t.Errorf("crontab still has collection entry: %q", r.crontab)
	}
	if !strings.Contains(r.crontab, "/usr/local/bin/backup") {
		t.Errorf("unrelated crontab entry lost: %q", r.crontab)
	}
}

func TestHandleServersRemove_Unknown(t *testing.T) {
	d, _ := newTestDeps(t, "text")
	err := handleServersRemove(context.Background(), d, "nope", true)
	if exitcodes.CodeForError(err) != exitcodes.InvalidArgs {
		t.Errorf("code = %d, want InvalidArgs", exitcodes.CodeForError(err))
	}
}

func TestHandleServersList(t *testing.T) {
	d, buf := newTestDeps(t, "text")
	if err := handleServersList(d); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No servers yet") {
		t.Errorf("empty list output = %q", buf.String())
	}

	d, buf = newTestDeps(t, "json")
	inv := &collector.Inventory{}
	if err := inv.Add(collector.Server{Name: "web1", Address: "root@10.0.0.5"}); err != nil {
		t.Fatal(err)
	}
	if err := inv.Save(d.Cfg.ServersFile()); err != nil {
		t.Fatal(err)
	}
	if err := handleServersList(d); err != nil {
		t.Fatal(err)
	}
	var got collector.Inventory
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if len(got.Servers) != 1 || got.Servers[0].Name != "web1" {
		t.Errorf("servers = %+v", got.Servers)
	}
}
