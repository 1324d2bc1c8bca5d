package outline

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// DefaultRootTitle names the synthetic root section of a document without headings.
const DefaultRootTitle = "Document"

// Option configures Build.
type Option func(*builder)

// WithRootTitle sets the title of the synthetic root section and of the
// preamble section before the first heading.
func WithRootTitle(title string) Option {
	return func(b *builder) {
		if strings.TrimSpace(title) != "" {
			b.rootTitle = strings.TrimSpace(title)
		}
	}
}

// PreferStyles ignores the text heuristics whenever at least one line carries
// an explicit style level. Markdown, HTML and JSON use it because their
// heading markup is authoritative and numbered list items would otherwise
// become headings. DOCX does not: styled titles there commonly sit beside
// numbered clauses typed as body paragraphs.
func PreferStyles() Option {
	return func(b *builder) {
		b.preferStyles = true
	}
}

type builder struct {
	rootTitle    string
	preferStyles bool
}

type node struct {
	title    string
	level    int
	start    int
	end      int
	children []*node
}

// Headings returns every heading detected in lines.
func Headings(lines []Line, opts ...Option) []Heading {
	b := newBuilder(opts)
	return b.headings(lines)
}

// Build detects headings and nests them into a section tree whose offsets
// index rawText. A heading at level L closes every open section with level
// >= L. Text with letters or digits before the first heading becomes a
// level 1 preamble section.
// When no heading is found the result is a single root section spanning
// the whole text.
func Build(lines []Line, rawText string, opts ...Option) []domain.DocumentSection {
	b := newBuilder(opts)
	headings := b.headings(lines)

	if len(headings) == 0 {
		return []domain.DocumentSection{{
			ID:          sectionID("", 1),
			Title:       b.rootTitle,
			Level:       1,
			StartOffset: 0,
			EndOffset:   len(rawText),
		}}
	}

	var roots []*node
	if hasWords(rawText[:headings[0].Offset]) {
		roots = append(roots, &node{title: b.rootTitle, level: 1, start: 0, end: headings[0].Offset})
	}

	var stack []*node
	for _, h := range headings {
		for len(stack) > 0 && stack[len(stack)-1].level >= h.Level {
			stack[len(stack)-1].end = h.Offset
			stack = stack[:len(stack)-1]
		}
		n := &node{title: h.Title, level: h.Level, start: h.Offset}
		if len(stack) == 0 {
			roots = append(roots, n)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, n)
		}
		stack = append(stack, n)
	}
	for _, n := range stack {
		n.end = len(rawText)
	}

	return toSections(roots, "")
}

func hasWords(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func newBuilder(opts []Option) *builder {
	b := &builder{rootTitle: DefaultRootTitle}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *builder) headings(lines []Line) []Heading {
	styled := false
	if b.preferStyles {
		for _, l := range lines {
			if l.StyleLevel > 0 && !l.Literal && strings.TrimSpace(l.Text) != "" {
				styled = true
				break
			}
		}
	}

	var out []Heading
	for _, l := range lines {
		if styled && l.StyleLevel == 0 {
			continue
		}
		if h, ok := Detect(l); ok {
			out = append(out, h)
		}
	}
	return out
}

func toSections(nodes []*node, parentID string) []domain.DocumentSection {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domain.DocumentSection, len(nodes))
	for i, n := range nodes {
		id := sectionID(parentID, i+1)
		out[i] = domain.DocumentSection{
			ID:          id,
			Title:       n.title,
			Level:       n.level,
			StartOffset: n.start,
			EndOffset:   n.end,
			Children:    toSections(n.children, id),
		}
	}
	return out
}
