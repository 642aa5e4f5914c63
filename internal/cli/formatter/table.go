package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = "  "

// Column is one table column. Align is lipgloss.Left unless set; counters
// and ordinals read better right-aligned.
type Column struct {
	Title string
	Align lipgloss.Position
}

// Cols builds left-aligned columns from titles.
func Cols(titles ...string) []Column {
	out := make([]Column, len(titles))
	for i, t := range titles {
		out[i] = Column{Title: t, Align: lipgloss.Left}
	}
	return out
}

// RenderTable lays rows out under a styled header and a rule. Widths are
// measured on visible text, so styled cells line up. Missing cells render
// empty; trailing blanks are trimmed from every line.
func RenderTable(cols []Column, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = lipgloss.Width(c.Title)
	}
	for _, row := range rows {
		for i := range cols {
			if i < len(row) {
				widths[i] = max(widths[i], lipgloss.Width(row[i]))
			}
		}
	}

	lines := make([]string, 0, len(rows)+2)

	header := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, c := range cols {
		header[i] = place(widths[i], c.Align, StyleHeader.Render(c.Title))
		rule[i] = StyleDim.Render(strings.Repeat("─", widths[i]))
	}
	lines = append(lines, joinCells(header), joinCells(rule))

	for _, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = place(widths[i], c.Align, cell)
		}
		lines = append(lines, joinCells(cells))
	}
	return strings.Join(lines, "\n")
}

func place(width int, align lipgloss.Position, cell string) string {
	return lipgloss.PlaceHorizontal(width, align, cell)
}

func joinCells(cells []string) string {
	return strings.TrimRight(strings.Join(cells, colGap), " ")
}
