package main

import (
	"github.com/spf13/cobra"

	"github.com/cloudpanel-tools/goaccess-hub/internal/logformat"
	"github.com/cloudpanel-tools/goaccess-hub/internal/ui"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "presets",
		Short: "List built-in log formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlePresets(getPrinter())
		},
	})
}

func handlePresets(p ui.Printer) error {
	presets := logformat.Presets()
	if p.Structured() {
		return p.Emit(presets)
	}
	for _, lf := range presets {
		p.Section(lf.Name + " - " + lf.Description)
		p.KeyValueLine("goaccess", lf.Format)
		if lf.Nginx != "" {
			p.KeyValueLine("nginx", lf.Nginx)
		}
	}
	p.Textf("\n%s\n", p.Colors.Description("Use --log-format custom --custom-format '<nginx log_format>' for anything else."))
	return nil
}
