package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/config"
	"github.com/cloudpanel-tools/goaccess-hub/internal/exitcodes"
	"github.com/cloudpanel-tools/goaccess-hub/internal/logger"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

// Version information - set via -ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var (
	flagConfig         string
	flagRoot           string
	flagOutput         string
	flagVerbose        bool
	flagQuiet          bool
	flagDebug          bool
	flagNoColor        bool
	flagNoEmoji        bool
	flagYes            bool
	flagNonInteractive bool
)

// silentErr carries an exit code for failures the command already reported.
type silentErr struct{ err error }

func (e silentErr) Error() string { return e.err.Error() }
func (e silentErr) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:           "goaccess-hub",
	Short:         "GoAccess dashboard installer for CloudPanel",
	Long:          "Provision a real-time GoAccess dashboard on a CloudPanel host and collect nginx logs from remote servers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ui.InitGlobal(ui.Config{
			NoColor:        flagNoColor,
			NoEmoji:        flagNoEmoji,
			Yes:            flagYes,
			NonInteractive: flagNonInteractive,
			Quiet:          flagQuiet,
		})
		// lipgloss reads NO_COLOR itself
		if flagNoColor {
			os.Setenv("NO_COLOR", "1")
		}
		switch flagOutput {
		case "text", "json", "yaml":
		default:
			return exitcodes.InvalidArgsErrorf("invalid --output %q (use text|json|yaml)", flagOutput)
		}
		return logger.Init(logger.Options{Level: logLevel()})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func logLevel() string {
	switch {
	case flagDebug:
		return "debug"
	case flagVerbose:
		return "info"
	default:
		return "warn"
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default "+config.DefaultFile+" when present)")
	pf.StringVar(&flagRoot, "root", "", "Write every file under this directory instead of /")
	pf.StringVarP(&flagOutput, "output", "o", "text", "Output format: json|yaml|text")
	pf.BoolVar(&flagVerbose, "verbose", false, "Log each step to stderr")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Minimal output")
	pf.BoolVarP(&flagDebug, "debug", "d", false, "Debug logging, including every command run")
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable ANSI colors")
	pf.BoolVar(&flagNoEmoji, "no-emoji", false, "Disable emoji output")
	pf.BoolVarP(&flagYes, "yes", "y", false, "Assume yes for all prompts")
	pf.BoolVar(&flagNonInteractive, "non-interactive", false, "Fail instead of prompting")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != rootCmd {
			fmt.Fprintln(os.Stdout, cmd.UsageString())
			return
		}
		// help runs before PersistentPreRun
		c := ui.NewColorConfig()
		c.Enabled = c.Enabled && !flagNoColor
		printRootHelp(os.Stdout, c)
	})
}

func printRootHelp(w io.Writer, c *ui.ColorConfig) {
	const width = 34
	line := func(name, desc string) {
		fmt.Fprintf(w, "  %s%*s%s\n", c.Command(name), width-len(name), "", c.Description(desc))
	}
	fmt.Fprintln(w, c.Header(" GoAccess Hub "))
	fmt.Fprintln(w, c.Description(rootCmd.Long))
	fmt.Fprintln(w, c.Separator(50))
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.SubHeader("USAGE"))
	fmt.Fprintln(w, "  goaccess-hub <command> [flags]")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Setup"))
	line("install", "Provision the dashboard site, GoAccess and the collector")
	line("doctor", "Check the host and a finished install")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Log formats"))
	line("translate [format]", "Convert an nginx log_format to GoAccess")
	line("presets", "List built-in log formats")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Remote servers"))
	line("servers list", "Show the collection inventory")
	line("servers add <name> <addr>", "Add a server (user@host[:port])")
	line("servers remove <name>", "Remove a server")
	line("collect-script", "Print or rewrite the rsync script")
	fmt.Fprintln(w)

	fmt.Fprintln(w, c.SubHeader("Utilities"))
	line("logs [goaccess|collect|install]", "Follow a log file")
	line("restore [backup]", "List or restore config backups")
	line("version", "Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, c.Description("Global flags: --config --root -o/--output --yes --non-interactive --no-color --debug"))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := exitcodes.CodeForError(err)
		var se silentErr
		if errors.As(err, &se) {
			os.Exit(code)
		}
		exitcodes.ExitWithError(code, err.Error())
	}
}

// loadCfg layers the config file and env with the global --root flag.
// With --root and no --config, the file install wrote under root wins.
func loadCfg() (config.Config, error) {
	path := flagConfig
	if path == "" && flagRoot != "" {
		if candidate := config.Defaults().WithRoot(flagRoot).FilePath(); fileExists(candidate) {
			path = candidate
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if flagRoot != "" {
		cfg = cfg.WithRoot(flagRoot)
	}
	return cfg, nil
}

func getPrinter() ui.Printer { return ui.NewPrinter(flagOutput) }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
