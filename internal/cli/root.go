package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// rootCmd opens the interactive menu when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "patchctl",
	Short: "Watch Azure VM patching and remediate machines in bulk",
	Long: `patchctl classifies every virtual machine in your tenant by patch state
(pending, installing, rebooting, completed, failed, deallocated, unassessed)
using Azure Resource Graph, shows them on a live dashboard, and sends bulk
start, restart, install and assess commands through the az CLI.

Run without arguments for the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColor(noColor)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return menuCommand(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.patchctl.yaml, then ~/.config/patchctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	os.Exit(exitCode(err))
}

// exitCode prints err (unless it only carries a code) and maps it to a
// process exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := errors.GetExitCode(err); ok {
		return code
	}
	if stderrors.Is(err, context.Canceled) {
		return 1
	}
	fmt.Fprint(os.Stderr, err.Error())
	if !errorHasNewline(err) {
		fmt.Fprintln(os.Stderr)
	}
	return 1
}

func errorHasNewline(err error) bool {
	s := err.Error()
	return len(s) > 0 && s[len(s)-1] == '\n'
}
