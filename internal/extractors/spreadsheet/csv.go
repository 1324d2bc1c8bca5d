// Package spreadsheet extracts sections from CSV and XLSX workbooks.
//
// Both readers produce tabular.Sheet values; layout and scorecard detection
// are shared through the tabular package.
package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
	"github.com/custodia-labs/auditkit/internal/extractors/tabular"
)

// Ensure CSVExtractor implements the interface.
var _ driven.Extractor = (*CSVExtractor)(nil)

// CSVExtractor handles comma, semicolon and tab separated files.
type CSVExtractor struct{}

// NewCSV creates a new CSV extractor.
func NewCSV() *CSVExtractor {
	return &CSVExtractor{}
}

// Formats returns the formats this extractor handles.
func (e *CSVExtractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatCSV}
}

// Extract parses the file as a single sheet named after the file.
func (e *CSVExtractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := outline.Decode(raw.Content)
	rows, err := readCSV(text)
	if err != nil {
		return nil, &domain.CorruptedInputError{Format: domain.FormatCSV, Err: err}
	}

	name := outline.TitleFromName(raw.Name)
	layout := tabular.Render([]tabular.Sheet{{Name: name, Rows: rows}})

	return outline.NewContent(domain.FormatCSV, outline.ChooseTitle(name, "Sheet 1"), layout.Text, layout.Sections, 1), nil
}

func readCSV(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sniffDelimiter(text)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the first line.
func sniffDelimiter(text string) rune {
	first := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		first = text[:i]
	}
	best, bestCount := ',', strings.Count(first, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(first, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
