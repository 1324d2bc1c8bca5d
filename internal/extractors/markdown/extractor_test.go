package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.Equal(t, []domain.Format{domain.FormatMarkdown}, extractor.Formats())
}

func TestExtract_NilInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_Headings(t *testing.T) {
	src := "# Radio Policy\n" +
		"Intro text.\n" +
		"## Mayday\n" +
		"1. Say mayday three times\n" +
		"2. Give **location**\n" +
		"### Follow Up ###\n" +
		"LOUD NOTE\n" +
		"## Roll Call\n" +
		"Every 20 minutes.\n"

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "policy.md", Content: []byte(src)})

	require.NoError(t, err)
	assert.Equal(t, "Radio Policy", content.Title)
	assert.Equal(t, src, content.RawText)
	require.Len(t, content.Sections, 1)

	root := content.Sections[0]
	assert.Equal(t, "Radio Policy", root.Title)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Mayday", root.Children[0].Title)
	assert.Equal(t, "Roll Call", root.Children[1].Title)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "Follow Up", root.Children[0].Children[0].Title)
	assert.Equal(t, "s1.1.1", root.Children[0].Children[0].ID)
	assert.Equal(t, 3, root.Children[0].Children[0].Level)
	assert.Equal(t, "## Roll Call\nEvery 20 minutes.\n", root.Children[1].Text(src))
}

func TestExtract_MarkupSuppressesTextHeuristics(t *testing.T) {
	src := "# Mayday
1. Say mayday three times
LOUD NOTE
2.1 Give location
"

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "m.md", Content: []byte(src)})

	require.NoError(t, err)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, "Mayday", content.Sections[0].Title)
	assert.Empty(t, content.Sections[0].Children)
}

func TestExtract_FencedCodeIsNotAHeading(t *testing.T) {
	src := "# Config\n```\n# not a heading\nSHOUT\n```\n## Real\n"

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "c.md", Content: []byte(src)})

	require.NoError(t, err)
	require.Len(t, content.Sections, 1)
	require.Len(t, content.Sections[0].Children, 1)
	assert.Equal(t, "Real", content.Sections[0].Children[0].Title)
}

func TestExtract_Setext(t *testing.T) {
	src := "Policy\n======\nbody\nScope\n-----\nmore\n"

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "s.md", Content: []byte(src)})

	require.NoError(t, err)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, "Policy", content.Sections[0].Title)
	require.Len(t, content.Sections[0].Children, 1)
	assert.Equal(t, "Scope", content.Sections[0].Children[0].Title)
}

func TestExtract_NoMarkupUsesHeuristics(t *testing.T) {
	src := "PURPOSE\nKeep channels clear.\nSCOPE\nAll members.\n"

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "plain-notes.md", Content: []byte(src)})

	require.NoError(t, err)
	require.Len(t, content.Sections, 2)
	assert.Equal(t, "PURPOSE", content.Sections[0].Title)
	assert.Equal(t, "plain notes", content.Title)
}

func TestExtract_EmptyDocument(t *testing.T) {
	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "empty.md"})

	require.NoError(t, err)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, 0, content.Sections[0].EndOffset)
}
