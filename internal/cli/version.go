package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rileyhilliard/patchctl/internal/azcli"
	"github.com/spf13/cobra"
)

// Version information set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	versionShort bool
	versionNoAz  bool
)

// azVersionTimeout bounds the 'az version' call.
const azVersionTimeout = 10 * time.Second

// azVersioner reports the installed azure-cli version.
type azVersioner interface {
	CLIVersion(ctx context.Context) (string, error)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the version, commit hash and build date of patchctl, along with
the azure-cli version it will drive. Pass --no-az to skip the az lookup.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, version)
			return
		}

		var az azVersioner
		if !versionNoAz {
			az = azcli.NewAccountLister(azcli.NewRunner(0, nil))
		}
		writeVersion(cmd.Context(), out, az)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.Flags().BoolVar(&versionNoAz, "no-az", false, "Don't query the installed azure-cli version")
}

// writeVersion prints build information. A nil az leaves out the az line.
func writeVersion(ctx context.Context, w io.Writer, az azVersioner) {
	fmt.Fprintf(w, "patchctl %s\n", formatVersion(version))
	fmt.Fprintf(w, "commit: %s\n", commit)
	fmt.Fprintf(w, "built: %s\n", date)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if az != nil {
		fmt.Fprintf(w, "az: %s\n", azVersionLine(ctx, az))
	}
}

func azVersionLine(ctx context.Context, az azVersioner) string {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, azVersionTimeout)
	defer cancel()

	v, err := az.CLIVersion(ctx)
	switch {
	case err != nil:
		return "unavailable (run 'patchctl doctor')"
	case v == "":
		return "unknown"
	}
	return v
}

// formatVersion ensures version has a 'v' prefix for display
func formatVersion(v string) string {
	if v == "" || v == "dev" {
		return v
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
