package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/patchctl/internal/dedup"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/reconcile"
	"github.com/rileyhilliard/patchctl/internal/resource"
	"github.com/rileyhilliard/patchctl/internal/ui"
)

// View renders the dashboard.
func (m Model) View() string {
	if m.machine.State.Terminal() {
		return ""
	}
	switch {
	case m.machine.Mode == ModeHelp:
		return m.renderHelpOverlay()
	case m.machine.Mode.IsDetail():
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	if !m.hasData {
		b.WriteString(LabelStyle.Render("Gathering inventory from Azure Resource Graph..."))
		b.WriteString("\n\n")
		b.WriteString(m.renderFooter())
		return b.String()
	}

	for _, w := range m.snap.Warnings {
		b.WriteString(WarningStyle.Render(ui.SymbolWarning + " " + w))
		b.WriteString("\n")
	}
	if len(m.snap.Warnings) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.renderCounts())
	b.WriteString("\n")
	b.WriteString(m.renderTargetSample())
	b.WriteString("\n")
	b.WriteString(m.renderActivity())
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title line with cycle timing.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("patchctl live")

	parts := []string{fmt.Sprintf("cycle %d", m.cycle)}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, "updated "+ago(m.lastUpdate, m.now()))
	}
	switch m.machine.State {
	case StateGathering, StateRefreshing:
		parts = append(parts, "refreshing...")
	default:
		if !m.nextRefresh.IsZero() {
			left := max(m.nextRefresh.Sub(m.now()).Round(time.Second), 0)
			parts = append(parts, fmt.Sprintf("next refresh in %s", left))
		}
	}

	stats := LabelStyle.Render(" | " + strings.Join(parts, " | "))
	return HeaderStyle.Render(title + stats)
}

// renderCounts renders the seven classification counts plus the target.
func (m Model) renderCounts() string {
	return ui.RenderCounts(CountRows(m.snap, m.summary))
}

// CountRows returns one row per classification plus the target total.
func CountRows(snap inventory.Snapshot, s reconcile.Summary) []ui.CountRow {
	rows := make([]ui.CountRow, 0, len(inventory.Classifications)+1)
	for _, c := range inventory.Classifications {
		rows = append(rows, ui.CountRow{
			Label: c.Label(),
			Count: snap.Set(c).Len(),
			Color: classificationColor(c),
		})
	}
	return append(rows, ui.CountRow{Label: "Target (pending, not installing)", Count: s.Counts.Target, Color: ColorAccent})
}

// renderTargetSample shows the first few target machines.
func (m Model) renderTargetSample() string {
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render("Target"))
	b.WriteString("\n")

	target := m.summary.Target
	if len(target) == 0 {
		b.WriteString(MutedStyle.Render("No machines need patching"))
		b.WriteString("\n")
		return b.String()
	}

	n := min(len(target), m.opts.TargetSample)
	b.WriteString(idTable(target[:n]))
	b.WriteString("\n")
	if len(target) > n {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("... and %d more (t to list all)", len(target)-n)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderActivity shows the running batch, background batches and the
// most recent results.
func (m Model) renderActivity() string {
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render("Activity"))
	b.WriteString("\n")

	if m.batch != nil {
		status := m.progress.String()
		if m.batch.adopted {
			status = "running"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(ColorBusy).Render(ui.SymbolProgress + " " + m.batch.name + ": " + status))
		b.WriteString("\n")
	}

	background := 0
	for _, h := range m.session.Supervisor.Active() {
		if m.batch == nil || h.ID != m.batch.handle.ID {
			background++
		}
	}
	if background > 0 {
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%d batch(es) still running from an earlier session", background)))
		b.WriteString("\n")
	}

	for i := len(m.session.Activity) - 1; i >= 0; i-- {
		r := m.session.Activity[i]
		symbol := ui.SymbolSuccess
		if r.Failed > 0 || r.Cancelled {
			symbol = ui.SymbolWarning
		}
		b.WriteString(ValueStyle.Render(symbol+" "+r.Summary()) + MutedStyle.Render(" (took "+r.Duration.Round(time.Second).String()+")"))
		b.WriteString("\n")
	}

	if m.session.LastAction != "" {
		b.WriteString(LabelStyle.Render("Last: " + m.session.LastAction))
		b.WriteString("\n")
	}
	if m.batch == nil && background == 0 && len(m.session.Activity) == 0 && m.session.LastAction == "" {
		b.WriteString(MutedStyle.Render("No commands issued yet"))
		b.WriteString("\n")
	}
	return b.String()
}

// renderEvents renders the installation event stream.
func (m Model) renderEvents() string {
	var b strings.Builder
	b.WriteString(SectionTitleStyle.Render(fmt.Sprintf("Installations (last %s)", humanWindow(m.opts.HistoryWindow))))
	b.WriteString("\n")

	if len(m.events) == 0 {
		b.WriteString(MutedStyle.Render("No recent installation events"))
		b.WriteString("\n")
		return b.String()
	}

	now := m.now()
	for _, e := range m.events {
		b.WriteString(eventLine(e, now))
		b.WriteString("\n")
	}
	return b.String()
}

// eventLine renders one marked event.
func eventLine(e dedup.Marked, now time.Time) string {
	marker := "   "
	if e.IsNew {
		marker = NewMarkerStyle.Render("NEW")
	}
	age := MutedStyle.Render(fmt.Sprintf("%-16s", ago(e.Timestamp, now)))
	status := statusStyle(e.Status).Render(fmt.Sprintf("%-21s", e.Status))
	name := e.ResourceName
	if name == "" {
		name = resource.Parse(e.ResourceID).Name
	}
	line := fmt.Sprintf("%s %s %s %s %s", marker, age, status, ValueStyle.Render(name), MutedStyle.Render(e.ResourceGroup))
	if e.ErrorCode != "" {
		line += " " + lipgloss.NewStyle().Foreground(ColorCritical).Render(e.ErrorCode)
	}
	return line
}

// renderFooter renders the key hints or the active prompt.
func (m Model) renderFooter() string {
	switch m.machine.Mode {
	case ModeManageFailed:
		n := m.summary.Counts.Failed
		return PromptStyle.Render(fmt.Sprintf(
			"Manage %d failed machines:  r restart then install  |  i install only  |  a assess  |  Esc back", n))
	case ModeConfirmStart:
		return PromptStyle.Render(fmt.Sprintf("Start all %d deallocated machines? (y/n)", m.summary.Counts.Deallocated))
	case ModeConfirmQuit:
		return PromptStyle.Render("Emergency exit? Running batches will be cancelled. (y/n)")
	}
	return FooterStyle.Render("r refresh  t target  f failed  x manage failed  d deallocated  s start  m menu  q quit  ? help")
}

// idTable renders machines as name / resource group / subscription.
func idTable(ids []resource.ID) string {
	rows := make([][]string, len(ids))
	for i, id := range ids {
		rows[i] = []string{id.Name, id.ResourceGroup, id.Subscription}
	}
	return ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "NAME"},
		{Title: "RESOURCE GROUP"},
		{Title: "SUBSCRIPTION"},
	}, rows)
}

// ago renders t relative to now, e.g. "3 minutes ago".
func ago(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

// humanWindow renders a history window such as 20m or 1h.
func humanWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}
