package main

import "github.com/cloudpanel-tools/goaccess-hub/internal/ui"

func main() {
	// must run before lipgloss or bubbletea touch the terminal
	ui.InitTerminal()

	Execute()
}
