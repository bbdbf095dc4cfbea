package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/patchctl/internal/inventory"
	"github.com/rileyhilliard/patchctl/internal/ui"
)

// Detail view layout
const (
	detailHeaderHeight = 3
	detailFooterHeight = 2
	defaultWidth       = 100
	defaultHeight      = 30
	maxErrorWidth      = 60
)

// resizeViewport sizes the detail viewport to the terminal.
func (m *Model) resizeViewport() {
	height := max(m.height-detailHeaderHeight-detailFooterHeight, 1)
	if !m.viewportReady {
		m.detailViewport = viewport.New(m.width, height)
		m.detailViewport.YPosition = detailHeaderHeight
		m.viewportReady = true
	} else {
		m.detailViewport.Width = m.width
		m.detailViewport.Height = height
	}
	if m.machine.Mode.IsDetail() {
		m.refreshDetail()
	}
}

// refreshDetail rebuilds the viewport content for the current detail mode.
func (m *Model) refreshDetail() {
	if !m.viewportReady {
		w, h := m.width, m.height
		if w == 0 {
			w = defaultWidth
		}
		if h == 0 {
			h = defaultHeight
		}
		m.detailViewport = viewport.New(w, max(h-detailHeaderHeight-detailFooterHeight, 1))
		m.viewportReady = true
	}
	m.detailViewport.SetContent(m.detailContent())
}

// detailTitle names the current detail view and its size.
func (m Model) detailTitle() string {
	switch m.machine.Mode {
	case ModeTargetDetail:
		return fmt.Sprintf("Target machines (%d)", len(m.summary.Target))
	case ModeFailedDetail:
		return fmt.Sprintf("Failed installs, last 24h (%d)", m.summary.Counts.Failed)
	case ModeDeallocatedDetail:
		return fmt.Sprintf("Deallocated machines (%d)", m.summary.Counts.Deallocated)
	}
	return ""
}

// detailContent renders the rows behind the current detail view.
func (m Model) detailContent() string {
	switch m.machine.Mode {
	case ModeTargetDetail:
		if len(m.summary.Target) == 0 {
			return MutedStyle.Render("No machines need patching")
		}
		return idTable(m.summary.Target)

	case ModeFailedDetail:
		records := m.summary.Records(inventory.Failed)
		if len(records) == 0 {
			return MutedStyle.Render("No failed installations in the last 24 hours")
		}
		now := m.now()
		rows := make([][]string, len(records))
		for i, r := range records {
			when := ""
			if !r.LastModified.IsZero() {
				when = ago(r.LastModified, now)
			}
			rows[i] = []string{r.ID.Name, r.ID.ResourceGroup, r.ErrorCode, truncate(r.ErrorMessage, maxErrorWidth), when}
		}
		return ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "NAME"},
			{Title: "RESOURCE GROUP"},
			{Title: "ERROR"},
			{Title: "MESSAGE"},
			{Title: "WHEN"},
		}, rows)

	case ModeDeallocatedDetail:
		records := m.summary.Records(inventory.Deallocated)
		if len(records) == 0 {
			return MutedStyle.Render("No deallocated machines")
		}
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{r.ID.Name, r.ID.ResourceGroup, r.ID.Subscription, r.PowerState}
		}
		return ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "NAME"},
			{Title: "RESOURCE GROUP"},
			{Title: "SUBSCRIPTION"},
			{Title: "POWER STATE"},
		}, rows)
	}
	return ""
}

// renderDetailView renders a scrollable detail view.
func (m Model) renderDetailView() string {
	var b strings.Builder
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(m.detailTitle())
	b.WriteString(HeaderStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(m.detailViewport.View())
	b.WriteString("\n")

	scroll := ""
	if m.detailViewport.TotalLineCount() > m.detailViewport.Height {
		scroll = fmt.Sprintf("  %3.0f%%", m.detailViewport.ScrollPercent()*100)
	}
	b.WriteString(FooterStyle.Render("Esc back  ↑/↓ scroll" + scroll))
	return b.String()
}

// truncate shortens s to n display cells with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) > n-1 {
		r = r[:n-1]
	}
	return string(r) + "…"
}
