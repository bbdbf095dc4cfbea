package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/patchctl/internal/dedup"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/monitor"
	"github.com/rileyhilliard/patchctl/internal/reconcile"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/rileyhilliard/patchctl/internal/ui"
	"github.com/spf13/cobra"
)

var statusJSON bool

// statusCmd prints one inventory snapshot.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print one snapshot of patch state",
	Long: `Run every classification query once and print the counts, the target
cohort and recent installation events.

Examples:
  patchctl status
  patchctl status --json | jq '.data.counts'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			if statusJSON {
				_ = WriteJSONFromError(os.Stdout, err)
			}
			return err
		}
		defer a.Close()

		if _, err := a.requireLogin(cmd.Context()); err != nil {
			if statusJSON {
				_ = WriteJSONFromError(os.Stdout, err)
			}
			return err
		}
		return statusCommand(cmd.Context(), a, os.Stdout, statusJSON)
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")
}

// StatusOutput represents the JSON output for the status command.
type StatusOutput struct {
	Started  time.Time                `json:"started"`
	Duration string                   `json:"duration"`
	Counts   reconcile.Counts         `json:"counts"`
	Target   []resource.ID            `json:"target"`
	History  []inventory.HistoryEvent `json:"history"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// gather runs one inventory cycle behind a spinner on stderr.
func gather(ctx context.Context, a *app) (inventory.Snapshot, reconcile.Summary, error) {
	spinner := ui.NewSpinner("Querying Resource Graph")
	spinner.Start()

	snap := a.adapter.Gather(ctx)
	if snap.Cancelled || ctx.Err() != nil {
		spinner.Fail("cancelled")
		return inventory.Snapshot{}, reconcile.Summary{}, ctx.Err()
	}

	if len(snap.Warnings) > 0 {
		spinner.Skip(fmt.Sprintf("%d warning%s", len(snap.Warnings), pluralize(len(snap.Warnings))))
	} else {
		spinner.Success()
	}
	return snap, reconcile.Summarize(snap), nil
}

// statusCommand gathers once and prints the result.
func statusCommand(ctx context.Context, a *app, w io.Writer, asJSON bool) error {
	snap, summary, err := gather(ctx, a)
	if err != nil {
		return err
	}

	now := time.Now()
	events := dedup.Window(snap.History, now, a.cfg.History.Window, a.cfg.History.Display)

	if asJSON {
		return WriteJSONSuccess(w, StatusOutput{
			Started:  snap.Started,
			Duration: snap.Duration.Round(time.Millisecond).String(),
			Counts:   summary.Counts,
			Target:   summary.Target,
			History:  events,
			Warnings: snap.Warnings,
		})
	}

	renderStatusText(w, snap, summary, events, now)
	return nil
}

func renderStatusText(w io.Writer, snap inventory.Snapshot, summary reconcile.Summary, events []inventory.HistoryEvent, now time.Time) {
	headerStyle := lipgloss.NewStyle().Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)

	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderCounts(monitor.CountRows(snap, summary)))

	for _, warning := range snap.Warnings {
		fmt.Fprintf(w, "%s %s\n", warnStyle.Render(ui.SymbolWarning), warning)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("TARGET"))
	if len(summary.Target) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No machines need patching"))
	} else {
		fmt.Fprintln(w, ui.RenderSimpleTable(idColumns, idRows(summary.Target)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("RECENT INSTALLATIONS"))
	if len(events) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No recent installation events"))
	}
	for _, e := range events {
		name := e.ResourceName
		if name == "" {
			name = resource.Parse(e.ResourceID).Name
		}
		fmt.Fprintf(w, "  %-16s %-22s %s\n", humanize.RelTime(e.Timestamp, now, "ago", "from now"), e.Status, name)
	}
	fmt.Fprintln(w)
}

var idColumns = []ui.TableColumn{
	{Title: "SUBSCRIPTION"},
	{Title: "RESOURCE GROUP"},
	{Title: "NAME"},
}

func idRows(ids []resource.ID) [][]string {
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id.Subscription, id.ResourceGroup, id.Name}
	}
	return rows
}
