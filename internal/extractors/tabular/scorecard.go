// Package tabular turns spreadsheet sheets into sections.
//
// Each sheet is classified by IsScorecard. Scorecard sheets become one
// section per sheet with a child per criterion group; other sheets are kept
// as opaque tab-separated text under a single section.
package tabular

import (
	"strings"
)

// scorecardTokens mark a header row as a compliance scorecard.
var scorecardTokens = []string{"criteria", "compliance", "score"}

// groupTokens mark the header column used to group scorecard rows.
var groupTokens = []string{"category", "section", "group"}

// IsScorecard reports whether any header cell contains "criteria",
// "compliance" or "score", ignoring case. Trailing empty cells are ignored;
// an empty or single-cell header is never a scorecard.
func IsScorecard(header []string) bool {
	header = trimRow(header)
	if len(header) <= 1 {
		return false
	}
	for _, cell := range header {
		lower := strings.ToLower(cell)
		for _, token := range scorecardTokens {
			if strings.Contains(lower, token) {
				return true
			}
		}
	}
	return false
}

// groupColumn returns the index of the first header column naming a
// category, section or group, or -1.
func groupColumn(header []string) int {
	for i, cell := range header {
		lower := strings.ToLower(cell)
		for _, token := range groupTokens {
			if strings.Contains(lower, token) {
				return i
			}
		}
	}
	return -1
}

// trimRow drops trailing empty cells and trims whitespace.
func trimRow(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}
