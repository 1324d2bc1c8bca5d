// Package pptx extracts one section per slide from PowerPoint decks.
package pptx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
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

const slidePrefix = "ppt/slides/"

// Extractor handles PPTX presentations.
type Extractor struct{}

// New creates a new PPTX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatPPTX}
}

// Extract reads slides in numeric order. Slides never nest: each is a level
// 1 section titled by its title placeholder, else by its first line of text.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, corrupted(err)
	}
	parts := pkg.NumberedParts(slidePrefix)
	if len(parts) == 0 {
		return nil, corrupted(errors.New("presentation has no slides"))
	}

	var (
		text     strings.Builder
		sections = make([]domain.DocumentSection, 0, len(parts))
	)
	for i, part := range parts {
		data, err := pkg.Read(part)
		if err != nil {
			return nil, corrupted(err)
		}
		s, err := parseSlide(data)
		if err != nil {
			return nil, corrupted(fmt.Errorf("parse %s: %w", part, err))
		}

		title := s.title()
		if title == "" {
			title = "Slide " + strconv.Itoa(i+1)
		}
		start := text.Len()
		for _, line := range s.lines {
			text.WriteString(line)
			text.WriteByte('\n')
		}
		sections = append(sections, domain.DocumentSection{
			ID:          "s" + strconv.Itoa(i+1),
			Title:       title,
			Level:       1,
			StartOffset: start,
			EndOffset:   text.Len(),
		})
	}

	name := outline.TitleFromName(raw.Name)
	title := outline.ChooseTitle(pkg.Title(), sections[0].Title, name)
	return outline.NewContent(domain.FormatPPTX, title, text.String(), sections, len(parts)), nil
}

func corrupted(err error) error {
	return &domain.CorruptedInputError{Format: domain.FormatPPTX, Err: err}
}

type slide struct {
	placeholder string
	lines       []string
}

func (s slide) title() string {
	if s.placeholder != "" {
		return s.placeholder
	}
	for _, l := range s.lines {
		if l != "" {
			return l
		}
	}
	return ""
}

// parseSlide collects paragraph text from every shape. The text of the
// first shape with a title or ctrTitle placeholder is remembered separately.
func parseSlide(data []byte) (slide, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		s          slide
		para       strings.Builder
		shape      strings.Builder
		shapeDepth int
		isTitle    bool
		inPara     bool
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return slide{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shapeDepth++
				if shapeDepth == 1 {
					isTitle = false
					shape.Reset()
				}
			case "ph":
				switch ooxml.Attr(t, "type") {
				case "title", "ctrTitle":
					isTitle = shapeDepth > 0
				}
			case "p":
				inPara = true
				para.Reset()
			case "t":
				inText = inPara
			case "br":
				if inPara {
					para.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				if shapeDepth == 1 && isTitle && s.placeholder == "" {
					s.placeholder = strings.TrimSpace(shape.String())
				}
				if shapeDepth > 0 {
					shapeDepth--
				}
			case "p":
				if !inPara {
					continue
				}
				inPara = false
				line := strings.Join(strings.Fields(para.String()), " ")
				if line == "" {
					continue
				}
				s.lines = append(s.lines, line)
				if shapeDepth > 0 {
					if shape.Len() > 0 {
						shape.WriteByte(' ')
					}
					shape.WriteString(line)
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
}
