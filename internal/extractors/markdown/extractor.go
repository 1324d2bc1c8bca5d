// Package markdown extracts sections from Markdown documents.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles Markdown documents.
type Extractor struct{}

// New creates a new Markdown extractor.
func New() *Extractor {
	return &Extractor{}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatMarkdown}
}

// Pre-compiled regular expressions for Markdown structure.
var (
	atxHeading    = regexp.MustCompile(`^ {0,3}(#{1,6})(?:\s+(.*?))?(?:\s+#+)?\s*$`)
	setextLevel1  = regexp.MustCompile(`^ {0,3}=+\s*$`)
	setextLevel2  = regexp.MustCompile(`^ {0,3}-+\s*$`)
	fenceMarker   = regexp.MustCompile("^ {0,3}(```|~~~)")
	listItem      = regexp.MustCompile(`^\s*([-*+]|\d+[.)])\s`)
	inlineMarkups = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Extract keeps the Markdown source as raw text so section offsets point
// at the original markup. ATX and setext headings give explicit levels and
// fenced code is never treated as a heading.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := outline.Decode(raw.Content)
	lines := classify(outline.SplitLines(text))

	name := outline.TitleFromName(raw.Name)
	sections := outline.Build(lines, text, outline.PreferStyles(), outline.WithRootTitle(name))
	title := outline.ChooseTitle(firstTopHeading(lines), name)

	return outline.NewContent(domain.FormatMarkdown, title, text, sections, 1), nil
}

func classify(lines []outline.Line) []outline.Line {
	inFence := false
	fence := ""
	for i := range lines {
		l := &lines[i]
		if l.Literal {
			continue
		}

		if m := fenceMarker.FindStringSubmatch(l.Text); m != nil {
			switch {
			case !inFence:
				inFence, fence = true, m[1]
			case m[1] == fence:
				inFence = false
			}
			l.Literal = true
			continue
		}
		if inFence {
			l.Literal = true
			continue
		}

		if m := atxHeading.FindStringSubmatch(l.Text); m != nil {
			l.StyleLevel = len(m[1])
			l.Title = cleanTitle(m[2])
			if l.Title == "" {
				l.StyleLevel = 0
			}
			continue
		}

		if i+1 < len(lines) && isSetextCandidate(l.Text) {
			next := lines[i+1].Text
			switch {
			case setextLevel1.MatchString(next):
				l.StyleLevel, l.Title = 1, cleanTitle(l.Text)
				lines[i+1].Literal = true
			case setextLevel2.MatchString(next):
				l.StyleLevel, l.Title = 2, cleanTitle(l.Text)
				lines[i+1].Literal = true
			}
		}
	}
	return lines
}

func isSetextCandidate(text string) bool {
	t := strings.TrimSpace(text)
	return t != "" && !listItem.MatchString(text) && !strings.HasPrefix(t, ">") && !setextLevel2.MatchString(text)
}

func cleanTitle(s string) string {
	return strings.TrimSpace(inlineMarkups.Replace(s))
}

func firstTopHeading(lines []outline.Line) string {
	for _, l := range lines {
		if l.StyleLevel == 1 && !l.Literal {
			return l.Title
		}
	}
	return ""
}
