package cli

import (
	"github.com/spf13/cobra"
)

// liveCmd opens the dashboard directly.
var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Open the live patch dashboard",
	Long: `Open the live dashboard. It refreshes every refresh.interval and accepts
single-key commands; press ? for the list.

Leaving the dashboard with m or Esc opens the menu and leaves running
batches alone. Ctrl+C in the dashboard returns to the menu when nothing
is running; while a batch runs it stops everything and exits 1, as does
Ctrl+C at the menu.

Examples:
  patchctl live
  PATCHCTL_REFRESH_INTERVAL=10s patchctl live`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd.Context(), true)
	},
}
