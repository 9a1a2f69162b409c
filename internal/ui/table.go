package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RenderTable builds a formatted table string using lipgloss.
// When color is true, headers are styled and borders are rendered with color.
// When color is false, a plain ASCII table is produced.
func RenderTable(headers []string, rows [][]string, color bool) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		BorderColumn(true).
		BorderHeader(true)

	if color {
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7c3aed"))
		cellStyle := lipgloss.NewStyle()

		t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	}

	return t.Render()
}

// Field is one labelled value of a detail view.
type Field struct {
	Label string
	Value string
}

// RenderFields renders fields as aligned "Label: value" lines. Fields with an
// empty value are skipped.
func RenderFields(fields []Field, color bool) string {
	width := 0
	for _, f := range fields {
		if f.Value != "" {
			width = max(width, lipgloss.Width(f.Label)+1)
		}
	}

	label := lipgloss.NewStyle().Width(width + 1)
	if color {
		label = label.Bold(true).Foreground(lipgloss.Color("#7c3aed"))
	}

	var b strings.Builder

	for _, f := range fields {
		if f.Value == "" {
			continue
		}

		b.WriteString(label.Render(f.Label+":"))
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}

	return b.String()
}
