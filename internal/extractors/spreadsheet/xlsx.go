package spreadsheet

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/ooxml"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
	"github.com/custodia-labs/auditkit/internal/extractors/tabular"
)

// Ensure XLSXExtractor implements the interface.
var _ driven.Extractor = (*XLSXExtractor)(nil)

const (
	workbookPart      = "xl/workbook.xml"
	workbookRelsPart  = "xl/_rels/workbook.xml.rels"
	sharedStringsPart = "xl/sharedStrings.xml"
	worksheetPrefix   = "xl/worksheets/"
)

// XLSXExtractor handles Excel workbooks.
type XLSXExtractor struct{}

// NewXLSX creates a new XLSX extractor.
func NewXLSX() *XLSXExtractor {
	return &XLSXExtractor{}
}

// Formats returns the formats this extractor handles.
func (e *XLSXExtractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatXLSX}
}

// Extract reads every worksheet in workbook order. Cell values are taken as
// stored; formulas contribute their cached value.
func (e *XLSXExtractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	sheets, pkg, err := readWorkbook(raw.Content)
	if err != nil {
		return nil, &domain.CorruptedInputError{Format: domain.FormatXLSX, Err: err}
	}

	layout := tabular.Render(sheets)
	name := outline.TitleFromName(raw.Name)
	title := outline.ChooseTitle(pkg.Title(), name)

	return outline.NewContent(domain.FormatXLSX, title, layout.Text, layout.Sections, len(sheets)), nil
}

type workbookXML struct {
	Sheets []struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sheets>sheet"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func readWorkbook(content []byte) ([]tabular.Sheet, *ooxml.Package, error) {
	pkg, err := ooxml.Open(content)
	if err != nil {
		return nil, nil, err
	}

	data, err := pkg.Read(workbookPart)
	if err != nil {
		return nil, nil, err
	}
	var wb workbookXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, nil, fmt.Errorf("parse workbook: %w", err)
	}

	targets := relationshipTargets(pkg)
	shared, err := readSharedStrings(pkg)
	if err != nil {
		return nil, nil, err
	}

	var sheets []tabular.Sheet
	if len(wb.Sheets) == 0 {
		for i, part := range pkg.NumberedParts(worksheetPrefix) {
			rows, err := readSheet(pkg, part, shared)
			if err != nil {
				return nil, nil, err
			}
			sheets = append(sheets, tabular.Sheet{Name: fmt.Sprintf("Sheet %d", i+1), Rows: rows})
		}
	}
	for i, s := range wb.Sheets {
		part, ok := targets[s.RID]
		if !ok {
			part = fmt.Sprintf("%ssheet%d.xml", worksheetPrefix, i+1)
		}
		rows, err := readSheet(pkg, part, shared)
		if err != nil {
			return nil, nil, err
		}
		sheets = append(sheets, tabular.Sheet{Name: s.Name, Rows: rows})
	}

	if len(sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}
	return sheets, pkg, nil
}

func readSheet(pkg *ooxml.Package, part string, shared []string) ([][]string, error) {
	data, err := pkg.Read(part)
	if err != nil {
		return nil, err
	}
	rows, err := parseWorksheet(data, shared)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", part, err)
	}
	return rows, nil
}

// relationshipTargets maps relationship ids to package part names.
func relationshipTargets(pkg *ooxml.Package) map[string]string {
	out := make(map[string]string)
	data, err := pkg.Read(workbookRelsPart)
	if err != nil {
		return out
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(data, &rels); err != nil {
		return out
	}
	for _, r := range rels.Relationships {
		target := r.Target
		if strings.HasPrefix(target, "/") {
			target = strings.TrimPrefix(target, "/")
		} else {
			target = path.Join("xl", target)
		}
		out[r.ID] = target
	}
	return out
}

// readSharedStrings returns the shared string table, concatenating rich text runs.
func readSharedStrings(pkg *ooxml.Package) ([]string, error) {
	if !pkg.Has(sharedStringsPart) {
		return nil, nil
	}
	data, err := pkg.Read(sharedStringsPart)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		out     []string
		current strings.Builder
		inItem  bool
		inText  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse shared strings: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				inItem = true
				current.Reset()
			case "t":
				inText = inItem
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "si":
				inItem = false
				out = append(out, current.String())
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
}

type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Ref    string `xml:"r,attr"`
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				Text string `xml:"t"`
				Runs []struct {
					Text string `xml:"t"`
				} `xml:"r"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

func parseWorksheet(data []byte, shared []string) ([][]string, error) {
	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(ws.Rows))
	for _, r := range ws.Rows {
		var row []string
		for i, c := range r.Cells {
			col := i
			if idx, ok := columnIndex(c.Ref); ok {
				col = idx
			}
			for len(row) <= col {
				row = append(row, "")
			}

			switch c.Type {
			case "s":
				n, err := strconv.Atoi(strings.TrimSpace(c.Value))
				if err == nil && n >= 0 && n < len(shared) {
					row[col] = shared[n]
				}
			case "inlineStr":
				text := c.Inline.Text
				for _, run := range c.Inline.Runs {
					text += run.Text
				}
				row[col] = text
			case "b":
				if c.Value == "1" {
					row[col] = "TRUE"
				} else {
					row[col] = "FALSE"
				}
			default:
				row[col] = c.Value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columnIndex converts the letters of a cell reference such as "AB12" to a
// zero-based column index.
func columnIndex(ref string) (int, bool) {
	n := 0
	letters := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		n = n*26 + int(r-'A'+1)
		letters++
	}
	if letters == 0 {
		return 0, false
	}
	return n - 1, true
}
