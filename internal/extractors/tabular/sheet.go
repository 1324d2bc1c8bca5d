package tabular

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Sheet is one named table of cells.
type Sheet struct {
	Name string
	Rows [][]string
}

// Layout is the text and section tree rendered from a workbook.
type Layout struct {
	Text       string
	Sections   []domain.DocumentSection
	Scorecards int
}

// Render lays out every sheet in order. Sheets without any non-empty row
// still get a section so the sheet count matches the section count.
func Render(sheets []Sheet) Layout {
	var (
		b      strings.Builder
		layout Layout
	)
	for i, sheet := range sheets {
		id := "s" + strconv.Itoa(i+1)
		name := strings.TrimSpace(sheet.Name)
		if name == "" {
			name = fmt.Sprintf("Sheet %d", i+1)
		}

		start := b.Len()
		b.WriteString(name)
		b.WriteByte('\n')

		section := domain.DocumentSection{ID: id, Title: name, Level: 1, StartOffset: start}

		rows := nonEmptyRows(sheet.Rows)
		if len(rows) > 0 && IsScorecard(rows[0]) {
			layout.Scorecards++
			section.Children = renderScorecard(&b, id, rows[0], rows[1:])
		} else {
			for _, row := range rows {
				b.WriteString(strings.Join(row, "\t"))
				b.WriteByte('\n')
			}
		}

		section.EndOffset = b.Len()
		layout.Sections = append(layout.Sections, section)
	}
	layout.Text = b.String()
	return layout
}

type group struct {
	title string
	rows  [][]string
}

// renderScorecard writes the header and one block per criterion group.
// Rows sharing a group value are written together in order of first appearance.
func renderScorecard(b *strings.Builder, parentID string, header []string, rows [][]string) []domain.DocumentSection {
	b.WriteString(strings.Join(header, "\t"))
	b.WriteByte('\n')

	col := groupColumn(header)
	var groups []*group
	index := make(map[string]*group)
	for _, row := range rows {
		title := ""
		if col >= 0 && col < len(row) {
			title = row[col]
		}
		if col < 0 || title == "" {
			title = firstCell(row)
			groups = append(groups, &group{title: title, rows: [][]string{row}})
			continue
		}
		g, ok := index[title]
		if !ok {
			g = &group{title: title}
			index[title] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}

	children := make([]domain.DocumentSection, 0, len(groups))
	for i, g := range groups {
		start := b.Len()
		b.WriteString(g.title)
		b.WriteByte('\n')
		for _, row := range g.rows {
			b.WriteString(labelRow(header, row))
			b.WriteByte('\n')
		}
		children = append(children, domain.DocumentSection{
			ID:          parentID + "." + strconv.Itoa(i+1),
			Title:       g.title,
			Level:       2,
			StartOffset: start,
			EndOffset:   b.Len(),
		})
	}
	return children
}

// labelRow renders "Header: value" pairs for non-empty cells.
func labelRow(header, row []string) string {
	parts := make([]string, 0, len(row))
	for i, cell := range row {
		if cell == "" {
			continue
		}
		label := ""
		if i < len(header) {
			label = header[i]
		}
		if label == "" {
			label = "Column " + strconv.Itoa(i+1)
		}
		parts = append(parts, label+": "+cell)
	}
	return strings.Join(parts, " | ")
}

func firstCell(row []string) string {
	for _, cell := range row {
		if cell != "" {
			return cell
		}
	}
	return ""
}

func nonEmptyRows(rows [][]string) [][]string {
	var out [][]string
	for _, row := range rows {
		if trimmed := trimRow(row); len(trimmed) > 0 {
			out = append(out, trimmed)
		}
	}
	return out
}
