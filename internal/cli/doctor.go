package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/patchctl/internal/azcli"
	"github.com/rileyhilliard/patchctl/internal/config"
	"github.com/rileyhilliard/patchctl/internal/doctor"
	"github.com/rileyhilliard/patchctl/internal/errors"
	"github.com/rileyhilliard/patchctl/internal/logger"
	"github.com/rileyhilliard/patchctl/internal/ui"
	"github.com/spf13/cobra"
)

var (
	doctorJSON bool
	doctorFix  bool
)

// doctorCmd runs the preflight checks.
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config, az installation and login",
	Long: `Run preflight checks before using the dashboard:

  - Config file found and valid
  - az CLI on PATH
  - Signed in to Azure
  - resource-graph extension installed
  - Configured subscriptions are enabled and visible

Exits 1 when any check fails.

Examples:
  patchctl doctor
  patchctl doctor --fix
  patchctl doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		var results []doctor.CheckResult
		if doctorJSON {
			results, err = doctorJSONOutput(cmd.Context(), os.Stdout)
		} else {
			results, err = runDoctor(cmd.Context(), os.Stdout, doctorFix)
		}
		if err != nil {
			return err
		}
		if doctor.HasFailures(results) {
			return errors.NewExitError(1)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand runs the checks with text output. Used from the menu.
func doctorCommand(ctx context.Context, w io.Writer) error {
	_, err := runDoctor(ctx, w, false)
	return err
}

// collectChecks builds the check list. Config errors are left for the
// config checks to report.
func collectChecks() []doctor.Check {
	var subs []string
	if cfg, _, err := config.LoadOrDefault(Config()); err == nil {
		subs = cfg.Subscriptions
	}

	runner := azcli.NewRunner(azcli.DefaultGrace, logger.NewEnvLogger("[doctor]"))
	account := azcli.NewAccountLister(runner)

	var checks []doctor.Check
	checks = append(checks, doctor.NewConfigChecks(Config(), config.ConfigFileName)...)
	checks = append(checks, doctor.NewAzureChecks(account, subs)...)
	return checks
}

func runChecks(ctx context.Context, fix bool) ([]doctor.Check, []doctor.CheckResult) {
	checks := collectChecks()
	results := doctor.RunAll(ctx, checks)
	if fix {
		results = doctor.AttemptFixes(ctx, checks, results)
	}
	return checks, results
}

func doctorJSONOutput(ctx context.Context, w io.Writer) ([]doctor.CheckResult, error) {
	checks, results := runChecks(ctx, doctorFix)
	return results, WriteJSONSuccess(w, buildDoctorOutput(checks, results))
}

func buildDoctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	grouped := make(map[string][]doctor.CheckResult)
	var categoryOrder []string

	for i, check := range checks {
		cat := check.Category()
		if _, exists := grouped[cat]; !exists {
			categoryOrder = append(categoryOrder, cat)
		}
		grouped[cat] = append(grouped[cat], results[i])
	}

	output := DoctorOutput{
		Categories: make([]CategoryOutput, 0, len(categoryOrder)),
	}
	for _, cat := range categoryOrder {
		output.Categories = append(output.Categories, CategoryOutput{
			Name:    cat,
			Results: grouped[cat],
		})
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}
	return output
}

func runDoctor(ctx context.Context, w io.Writer, fix bool) ([]doctor.CheckResult, error) {
	spinner := ui.NewSpinner("Running checks")
	spinner.Start()
	checks, results := runChecks(ctx, fix)
	spinner.Stop()

	renderDoctorText(w, checks, results, fix)
	return results, nil
}

// renderDoctorText prints results grouped by category.
func renderDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult, fixed bool) {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	warnStyle := lipgloss.NewStyle().Foreground(ui.ColorWarning)
	mutedStyle := lipgloss.NewStyle().Foreground(ui.ColorMuted)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("patchctl Diagnostic Report"))
	fmt.Fprintln(w)

	grouped := make(map[string][]int)
	var order []string
	for i, check := range checks {
		cat := check.Category()
		if _, ok := grouped[cat]; !ok {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], i)
	}

	for _, category := range order {
		fmt.Fprintln(w, headerStyle.Render(category))
		for _, idx := range grouped[category] {
			renderCheckResult(w, results[idx], successStyle, errorStyle, warnStyle, mutedStyle)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render(ui.SymbolFail), doctor.Summary(results))

		if fixable := doctor.FixableCount(results); fixable > 0 && !fixed {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  Run with %s to attempt automatic fixes where possible.\n",
				mutedStyle.Render("--fix"))
		}
	}
	fmt.Fprintln(w)
}

// renderCheckResult renders a single check result.
func renderCheckResult(w io.Writer, result doctor.CheckResult, successStyle, errorStyle, warnStyle, mutedStyle lipgloss.Style) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol = ui.SymbolComplete
		style = successStyle
	case doctor.StatusWarn:
		symbol = ui.SymbolWarning
		style = warnStyle
	default:
		symbol = ui.SymbolFail
		style = errorStyle
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", mutedStyle.Render(line))
		}
	}
}
