package main

import (
	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(getPrinter())
		},
	})
}

func printVersion(p ui.Printer) error {
	if p.Structured() {
		return p.Emit(versionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate})
	}
	p.Textf("goaccess-hub %s (%s) built %s\n", Version, Commit, BuildDate)
	return nil
}
