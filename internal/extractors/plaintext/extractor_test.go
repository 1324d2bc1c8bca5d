package plaintext

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.ElementsMatch(t, []domain.Format{domain.FormatText, domain.FormatJSON}, extractor.Formats())
}

func TestExtract_NilInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtract_Text(t *testing.T) {
	raw := &domain.RawDocument{
		Name: "radio_policy.txt",
		Content: []byte("RADIO POLICY\n" +
			"1 Purpose\nClear channels.\n" +
			"2 Mayday\n2.1 Initiation\nAny member may call mayday.\n"),
	}

	content, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "RADIO POLICY", content.Title)
	require.Len(t, content.Sections, 3)
	assert.Equal(t, "1 Purpose", content.Sections[1].Title)
	require.Len(t, content.Sections[2].Children, 1)
	assert.Equal(t, "s3.1", content.Sections[2].Children[0].ID)
	assert.Equal(t, domain.FormatText, content.Metadata.Format)
	assert.Equal(t, 4, content.Metadata.SectionCount)
}

func TestExtract_TextWithoutHeadings(t *testing.T) {
	raw := &domain.RawDocument{
		Name:    "notes-2024.txt",
		Content: []byte("engine one arrived.\ncommand established.\n"),
	}

	content, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	require.Len(t, content.Sections, 1)
	assert.Equal(t, "notes 2024", content.Sections[0].Title)
	assert.Equal(t, 0, content.Sections[0].StartOffset)
	assert.Equal(t, len(content.RawText), content.Sections[0].EndOffset)
	assert.Equal(t, "notes 2024", content.Title)
}

func TestExtract_Latin1(t *testing.T) {
	raw := &domain.RawDocument{Name: "a.txt", Content: []byte("r\xe9sum\xe9")}

	content, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "résumé", content.RawText)
}

func TestExtract_JSON(t *testing.T) {
	raw := &domain.RawDocument{
		Name:    "policy.json",
		Format:  domain.FormatJSON,
		Content: []byte(`{"title":"Fireground Comms","purpose":"keep channels clear","procedures":{"mayday":"say it three times","par":"every 20 minutes"}}`),
	}

	content, err := New().Extract(context.Background(), raw)

	require.NoError(t, err)
	assert.Equal(t, "Fireground Comms", content.Title)
	assert.Equal(t, domain.FormatJSON, content.Metadata.Format)

	var titles []string
	for _, s := range content.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"title", "purpose", "procedures"}, titles)
	require.Len(t, content.Sections[2].Children, 2)
	assert.Equal(t, "mayday", content.Sections[2].Children[0].Title)
	assert.Contains(t, content.Sections[2].Children[1].Text(content.RawText), "every 20 minutes")
}

func TestExtract_InvalidJSON(t *testing.T) {
	raw := &domain.RawDocument{Name: "broken.json", Content: []byte(`{"title": `)}

	_, err := New().Extract(context.Background(), raw)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptedInput))
	var cie *domain.CorruptedInputError
	require.ErrorAs(t, err, &cie)
	assert.Equal(t, domain.FormatJSON, cie.Format)
}
