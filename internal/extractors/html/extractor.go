// Package html extracts sections from HTML documents.
//
// The document is tokenised with golang.org/x/net/html. Block elements end a
// line of text and h1 to h6 give explicit heading levels. Script, style and
// similar non-content elements are dropped.
package html

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles HTML documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatHTML}
}

var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true, "template": true, "iframe": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "blockquote": true, "pre": true,
	"table": true, "section": true, "article": true, "header": true, "footer": true,
	"ul": true, "ol": true, "dt": true, "dd": true, "br": true, "hr": true, "body": true,
}

var headingLevels = map[string]int{
	"h1": 1, "h2": 2, "h3": 3, "h4": 4, "h5": 5, "h6": 6,
}

// Extract converts markup to text lines and builds the section tree from them.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := parse(outline.Decode(raw.Content))
	if err != nil {
		return nil, &domain.CorruptedInputError{Format: domain.FormatHTML, Err: err}
	}

	name := outline.TitleFromName(raw.Name)
	text := doc.text.String()
	sections := outline.Build(doc.lines, text, outline.PreferStyles(), outline.WithRootTitle(name))
	title := outline.ChooseTitle(doc.title, outline.FirstTitle(sections), name)

	return outline.NewContent(domain.FormatHTML, title, text, sections, 1), nil
}

type document struct {
	title string
	text  strings.Builder
	lines []outline.Line

	current strings.Builder
	level   int
}

// flush ends the current line, collapsing whitespace.
func (d *document) flush() {
	line := strings.Join(strings.Fields(d.current.String()), " ")
	d.current.Reset()
	level := d.level
	d.level = 0
	if line == "" {
		return
	}
	d.lines = append(d.lines, outline.Line{Text: line, Offset: d.text.Len(), StyleLevel: level})
	d.text.WriteString(line)
	d.text.WriteByte('\n')
}

func parse(src string) (*document, error) {
	doc := &document{}
	z := html.NewTokenizer(bytes.NewReader([]byte(src)))

	skipDepth := 0
	inTitle := false
	var title strings.Builder

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				doc.flush()
				doc.title = strings.Join(strings.Fields(title.String()), " ")
				return doc, nil
			}
			return nil, z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			nameBytes, _ := z.TagName()
			name := string(nameBytes)
			switch {
			case skipElements[name]:
				if tt == html.StartTagToken {
					skipDepth++
				}
			case name == "title":
				inTitle = tt == html.StartTagToken
			case headingLevels[name] > 0:
				doc.flush()
				doc.level = headingLevels[name]
			case blockElements[name]:
				doc.flush()
			case name == "td" || name == "th":
				doc.current.WriteByte(' ')
			}

		case html.EndTagToken:
			nameBytes, _ := z.TagName()
			name := string(nameBytes)
			switch {
			case skipElements[name]:
				if skipDepth > 0 {
					skipDepth--
				}
			case name == "title":
				inTitle = false
			case headingLevels[name] > 0, blockElements[name]:
				doc.flush()
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if inTitle {
				title.Write(z.Text())
				continue
			}
			doc.current.Write(z.Text())
		}
	}
}
