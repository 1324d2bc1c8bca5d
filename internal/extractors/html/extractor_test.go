package html

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.Equal(t, []domain.Format{domain.FormatHTML}, extractor.Formats())
}

func TestExtract_NilInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_Headings(t *testing.T) {
	src := `<!DOCTYPE html>
<html>
<head><title>Radio &amp; Comms Policy</title><style>h1 { color: red; }</style></head>
<body>
<h1>Radio Policy</h1>
<p>All members carry a <b>portable</b> radio.</p>
<h2>Mayday</h2>
<ul><li>Say mayday three times</li><li>Give location</li></ul>
<script>var SHOUT = "NOT TEXT";</script>
<h2>Roll Call</h2>
<table><tr><td>PAR</td><td>20 min</td></tr></table>
</body>
</html>`

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "policy.html", Content: []byte(src)})

	require.NoError(t, err)
	assert.Equal(t, "Radio & Comms Policy", content.Title)
	assert.NotContains(t, content.RawText, "NOT TEXT")
	assert.NotContains(t, content.RawText, "color")
	assert.Contains(t, content.RawText, "All members carry a portable radio.")

	require.Len(t, content.Sections, 1)
	root := content.Sections[0]
	assert.Equal(t, "Radio Policy", root.Title)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "Mayday", root.Children[0].Title)
	assert.Equal(t, 2, root.Children[0].Level)
	assert.Equal(t, "s1.2", root.Children[1].ID)
	assert.True(t, strings.HasPrefix(root.Children[1].Text(content.RawText), "Roll Call\n"))
	assert.Contains(t, root.Children[1].Text(content.RawText), "PAR 20 min")
}

func TestExtract_NoHeadings(t *testing.T) {
	src := `<p>first paragraph</p><p>second paragraph</p>`

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "memo.htm", Content: []byte(src)})

	require.NoError(t, err)
	assert.Equal(t, "first paragraph\nsecond paragraph\n", content.RawText)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, "memo", content.Sections[0].Title)
	assert.Equal(t, "memo", content.Title)
}

func TestExtract_MarkupSuppressesTextHeuristics(t *testing.T) {
	src := `<h1>Mayday</h1><p>3.1 Say mayday three times</p><p>LOUD NOTE</p>`

	content, err := New().Extract(context.Background(), &domain.RawDocument{Name: "m.html", Content: []byte(src)})

	require.NoError(t, err)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, "Mayday", content.Sections[0].Title)
	assert.Empty(t, content.Sections[0].Children)
}
