package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
// A zero Width sizes the column to its widest cell.
type TableColumn struct {
	Title string
	Width int
}

// fitColumns fills in zero widths from the content.
func fitColumns(columns []TableColumn, rows [][]string) []TableColumn {
	out := make([]TableColumn, len(columns))
	copy(out, columns)
	for i := range out {
		if out[i].Width > 0 {
			continue
		}
		w := lipgloss.Width(out[i].Title)
		for _, row := range rows {
			if i < len(row) {
				w = max(w, lipgloss.Width(row[i]))
			}
		}
		out[i].Width = w
	}
	return out
}

// NewTable creates a Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.Foreground(ColorPrimary)
	s.Selected = s.Selected.Foreground(ColorPrimary).Bold(false)

	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive styled table.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(fitColumns(columns, rows), tableRows).View()
}

// RenderPlainTable renders the same layout with no escape codes: a header,
// a dashed rule, then one padded line per row. Suitable for files.
func RenderPlainTable(columns []TableColumn, rows [][]string) string {
	cols := fitColumns(columns, rows)

	var b strings.Builder
	writeRow := func(cells []string) {
		parts := make([]string, len(cols))
		for i, c := range cols {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = cell + strings.Repeat(" ", max(0, c.Width-lipgloss.Width(cell)))
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteString("\n")
	}

	titles := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
		rules[i] = strings.Repeat("-", c.Width)
	}
	writeRow(titles)
	writeRow(rules)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

// CountRow is one line of a status summary.
type CountRow struct {
	Label string
	Count int
	Color lipgloss.Color
}

// RenderCounts renders label/count pairs right-aligned into a compact block.
func RenderCounts(rows []CountRow) string {
	labelWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}

	labelStyle := lipgloss.NewStyle().Foreground(ColorMuted).Width(labelWidth + 2)
	var b strings.Builder
	for _, r := range rows {
		color := r.Color
		if color == "" || r.Count == 0 {
			color = ColorPrimary
		}
		count := lipgloss.NewStyle().Foreground(color).Bold(r.Count > 0).Width(6).Align(lipgloss.Right)
		b.WriteString(labelStyle.Render(r.Label))
		b.WriteString(count.Render(strconv.Itoa(r.Count)))
		b.WriteString("\n")
	}
	return b.String()
}
