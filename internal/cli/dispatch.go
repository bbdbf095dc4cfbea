package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/patchctl/internal/dispatch"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/reconcile"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/rileyhilliard/patchctl/internal/ui"
	"github.com/spf13/cobra"
)

var dispatchYes bool

// previewRows is how many machines the confirmation shows.
const previewRows = 10

// dispatchCmd sends one bulk command to a cohort.
var dispatchCmd = &cobra.Command{
	Use:   "dispatch <action> <cohort>",
	Short: "Send a bulk command to every machine in a cohort",
	Long: `Gather inventory once, select a cohort, and send one command to every
machine in it through 'az vm ... --no-wait'.

Actions: start, restart, install, assess, restart+install
Cohorts: target, pending, in-progress, rebooting, completed, failed,
         deallocated, unassessed

restart+install restarts the cohort, waits dispatch.settle, then installs
updates one machine at a time spaced by dispatch.stagger.

Examples:
  patchctl dispatch install target
  patchctl dispatch start deallocated --yes
  patchctl dispatch restart+install failed`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		switch len(args) {
		case 0:
			return actionNames(), cobra.ShellCompDirectiveNoFileComp
		case 1:
			return reconcile.CohortNames(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dispatchCommand(cmd.Context(), args[0], args[1], dispatchYes)
	},
}

func init() {
	dispatchCmd.Flags().BoolVarP(&dispatchYes, "yes", "y", false, "skip the confirmation prompt")
}

// dispatchCommand runs one batch in the foreground. An interrupt stops it in
// two phases and exits 1.
func dispatchCommand(ctx context.Context, actionName, cohortName string, yes bool) error {
	act, err := parseAction(actionName)
	if err != nil {
		return err
	}

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	_, summary, err := gather(ctx, a)
	if err != nil {
		return err
	}
	ids, err := reconcile.Cohort(summary, cohortName)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		fmt.Printf("%s Cohort '%s' is empty, nothing to send.\n", ui.SymbolPending, cohortName)
		return nil
	}

	if !yes {
		printPreview(os.Stdout, ids)
		ok, err := confirm(fmt.Sprintf("Send %s to %d machine%s?", act.name, len(ids), pluralize(len(ids))))
		if err != nil || !ok {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	return runForeground(ctx, a, act, ids)
}

// runForeground supervises a single batch with a live spinner.
func runForeground(ctx context.Context, a *app, act action, ids []resource.ID) error {
	sup := dispatch.NewSupervisor(logger.NewEnvLogger("[supervisor]"))
	label := fmt.Sprintf("%s on %d machine%s", act.name, len(ids), pluralize(len(ids)))
	spinner := ui.NewSpinner(label)
	spinner.Start()

	progress := func(p dispatch.Progress) {
		spinner.SetLabel(label + ": " + p.String())
	}
	h := sup.Go(act.name, act.run(a.dispatcher, ids, a.installParams(), progress))

	select {
	case <-h.Done():
	case <-ctx.Done():
		spinner.Fail("interrupted")
		report := sup.Shutdown(a.cfg.Dispatch.Grace)
		fmt.Fprintln(os.Stderr, shutdownSummary(report))
		return errors.NewExitError(1)
	}

	report := h.Report()
	spinner.SetLabel(label)
	if report.Failed > 0 {
		spinner.Fail(fmt.Sprintf("%d failed to submit", report.Failed))
	} else {
		spinner.Success()
	}
	fmt.Printf("  %s\n", report.Summary())
	fmt.Println("  Commands run asynchronously; refresh the dashboard to follow them.")
	return nil
}

// dispatchInteractive picks an action and cohort from the menu and launches
// the batch in the background under the session supervisor.
func (c *console) dispatchInteractive(ctx context.Context) error {
	var actionName string
	options := make([]huh.Option[string], 0, len(actionNames()))
	for _, name := range actionNames() {
		options = append(options, huh.NewOption(name, name))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which command?").
				Options(options...).
				Value(&actionName),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	act, err := parseAction(actionName)
	if err != nil {
		return err
	}

	snap, summary, err := gather(ctx, c.app)
	if err != nil {
		return err
	}

	cohortName, err := pickCohort(fmt.Sprintf("Send %s to which cohort?", act.name), snap, summary)
	if err != nil {
		return err
	}
	ids, err := reconcile.Cohort(summary, cohortName)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		c.sess.LastAction = fmt.Sprintf("Cohort '%s' is empty, nothing sent", cohortName)
		fmt.Fprintln(c.out, c.sess.LastAction)
		return nil
	}

	printPreview(c.out, ids)
	ok, err := confirm(fmt.Sprintf("Send %s to %d machine%s?", act.name, len(ids), pluralize(len(ids))))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	log := logger.NewEnvLogger("[dispatch]")
	progress := func(p dispatch.Progress) {
		log.Debug("%s: %s", act.name, p)
	}
	name := fmt.Sprintf("%s %s", act.name, cohortName)
	c.sess.Supervisor.Go(name, act.run(c.app.dispatcher, ids, c.app.installParams(), progress))
	c.sess.LastAction = fmt.Sprintf("%s launched for %d machine%s", name, len(ids), pluralize(len(ids)))
	fmt.Fprintf(c.out, "%s %s\n", ui.SymbolProgress, c.sess.LastAction)
	return nil
}

// pickCohort offers every cohort with its current size.
func pickCohort(title string, snap inventory.Snapshot, summary reconcile.Summary) (string, error) {
	options := []huh.Option[string]{
		huh.NewOption(fmt.Sprintf("target (%d)", summary.Counts.Target), reconcile.CohortTarget),
	}
	for _, c := range inventory.Classifications {
		options = append(options, huh.NewOption(fmt.Sprintf("%s (%d)", c, snap.Set(c).Len()), c.String()))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func confirm(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description("Commands are sent with --no-wait and cannot be recalled").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// printPreview lists the first machines of a cohort.
func printPreview(w io.Writer, ids []resource.ID) {
	n := min(len(ids), previewRows)
	fmt.Fprintln(w, ui.RenderSimpleTable(idColumns, idRows(ids[:n])))
	if len(ids) > n {
		fmt.Fprintf(w, "... and %d more\n", len(ids)-n)
	}
}
