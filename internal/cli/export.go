package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/patchctl/internal/export"
	"github.com/rileyhilliard/patchctl/internal/reconcile"
	"github.com/rileyhilliard/patchctl/internal/ui"
	"github.com/spf13/cobra"
)

var exportDir string

// exportCmd writes one cohort to a text file.
var exportCmd = &cobra.Command{
	Use:   "export <cohort>",
	Short: "Write a cohort's machines to a text file",
	Long: `Gather inventory once and write the machines in a cohort to
<export.dir>/patchctl-<cohort>-<yyyymmdd-hhmmss>.txt.

Examples:
  patchctl export failed
  patchctl export target --dir /tmp`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: reconcile.CohortNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requireLogin(cmd.Context()); err != nil {
			return err
		}

		_, summary, err := gather(cmd.Context(), a)
		if err != nil {
			return err
		}
		path, err := exportCohort(a, summary, args[0], exportDir)
		if err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", ui.SymbolSuccess, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default: export.dir)")
}

// exportCohort writes the named cohort and returns the file path.
func exportCohort(a *app, summary reconcile.Summary, cohortName, dir string) (string, error) {
	cohortName = strings.ToLower(strings.TrimSpace(cohortName))
	ids, err := reconcile.Cohort(summary, cohortName)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = a.cfg.Export.Dir
	}
	path, err := export.Write(dir, cohortName, ids, time.Now())
	if err != nil {
		return "", err
	}
	a.log.Info("exported %d machines in %s to %s", len(ids), cohortName, path)
	return path, nil
}

// exportInteractive picks a cohort from the menu and exports it.
func (c *console) exportInteractive(ctx context.Context) error {
	snap, summary, err := gather(ctx, c.app)
	if err != nil {
		return err
	}
	cohortName, err := pickCohort("Export which cohort?", snap, summary)
	if err != nil {
		return err
	}
	path, err := exportCohort(c.app, summary, cohortName, "")
	if err != nil {
		return err
	}
	c.sess.LastAction = "Exported " + cohortName + " to " + path
	fmt.Fprintf(c.out, "%s Wrote %s\n", ui.SymbolSuccess, path)
	return nil
}
