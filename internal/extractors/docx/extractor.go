// Package docx extracts sections from Word documents.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/ooxml"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatDOCX}
}

// Extract reads word/document.xml paragraph by paragraph. Heading and
// Title paragraph styles, or an explicit outline level, become heading levels.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, corrupted(err)
	}
	data, err := pkg.Read(documentPart)
	if err != nil {
		return nil, corrupted(err)
	}
	paragraphs, err := parseParagraphs(data)
	if err != nil {
		return nil, corrupted(err)
	}

	var text strings.Builder
	lines := make([]outline.Line, 0, len(paragraphs))
	for _, p := range paragraphs {
		lines = append(lines, outline.Line{Text: p.text, Offset: text.Len(), StyleLevel: p.level})
		text.WriteString(p.text)
		text.WriteByte('\n')
	}
	rawText := text.String()

	name := outline.TitleFromName(raw.Name)
	sections := outline.Build(lines, rawText, outline.WithRootTitle(name))
	title := outline.ChooseTitle(pkg.Title(), outline.FirstTitle(sections), name)

	pages := pkg.PageCount()
	if pages <= 0 {
		pages = 1
	}
	return outline.NewContent(domain.FormatDOCX, title, rawText, sections, pages), nil
}

func corrupted(err error) error {
	return &domain.CorruptedInputError{Format: domain.FormatDOCX, Err: err}
}

type paragraph struct {
	text  string
	level int
}

// parseParagraphs streams the document body. Paragraphs inside tables are
// kept in document order. Empty paragraphs are dropped.
func parseParagraphs(data []byte) ([]paragraph, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		out     []paragraph
		current strings.Builder
		level   int
		inText  bool
		depth   int
	)
	sawBody := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				sawBody = true
			case "p":
				depth++
				if depth == 1 {
					current.Reset()
					level = 0
				}
			case "pStyle":
				if l := styleLevel(ooxml.Attr(t, "val")); l > 0 && level == 0 {
					level = l
				}
			case "outlineLvl":
				if n, err := strconv.Atoi(ooxml.Attr(t, "val")); err == nil && n >= 0 && n < 9 && level == 0 {
					level = n + 1
				}
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				depth--
				if depth == 0 {
					if txt := strings.TrimSpace(current.String()); txt != "" {
						out = append(out, paragraph{text: txt, level: level})
					}
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	if !sawBody {
		return nil, errors.New("document has no body")
	}
	return out, nil
}

// styleLevel maps paragraph style ids such as "Heading2", "heading 3" and
// "Title" to heading levels.
func styleLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	switch {
	case s == "title":
		return 1
	case strings.HasPrefix(s, "heading"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "heading"))
		if err != nil || n < 1 || n > 9 {
			return 0
		}
		return n
	default:
		return 0
	}
}
