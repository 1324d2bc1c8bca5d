// Package plaintext extracts sections from plain text and JSON documents.
package plaintext

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text and JSON documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatText, domain.FormatJSON}
}

// Extract splits text into sections using the flowed text heuristics.
// JSON is pretty-printed first and its first two levels of object keys
// become headings.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	format := raw.DeclaredFormat()
	if format == domain.FormatJSON {
		return extractJSON(raw)
	}

	text := outline.Decode(raw.Content)
	sections := outline.Build(outline.SplitLines(text), text,
		outline.WithRootTitle(outline.TitleFromName(raw.Name)))
	title := outline.ChooseTitle(outline.FirstTitle(sections), outline.TitleFromName(raw.Name))

	return outline.NewContent(domain.FormatText, title, text, sections, 1), nil
}

func extractJSON(raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	decoded := []byte(outline.Decode(raw.Content))
	if !json.Valid(decoded) {
		return nil, &domain.CorruptedInputError{
			Format: domain.FormatJSON,
			Err:    errors.New("not valid JSON"),
		}
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, decoded, "", "  "); err != nil {
		return nil, &domain.CorruptedInputError{Format: domain.FormatJSON, Err: err}
	}
	text := buf.String()

	lines := outline.SplitLines(text)
	for i := range lines {
		lines[i].StyleLevel, lines[i].Title = keyLevel(lines[i].Text)
	}

	name := outline.TitleFromName(raw.Name)
	sections := outline.Build(lines, text, outline.PreferStyles(), outline.WithRootTitle(name))
	title := outline.ChooseTitle(jsonTitle(decoded), name)

	return outline.NewContent(domain.FormatJSON, title, text, sections, 1), nil
}

// keyLevel returns the heading level of an indented object key line.
// Keys nested one or two objects deep map to levels 1 and 2.
func keyLevel(line string) (int, string) {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent != 2 && indent != 4 {
		return 0, ""
	}
	rest := line[indent:]
	if !strings.HasPrefix(rest, `"`) {
		return 0, ""
	}
	end := strings.Index(rest, `": `)
	if end < 0 {
		return 0, ""
	}
	key, err := strconv.Unquote(rest[:end+1])
	if err != nil || key == "" {
		return 0, ""
	}
	return indent / 2, key
}

// jsonTitle looks for a conventional title field on a top-level object.
func jsonTitle(data []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"title", "name", "template_name"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
