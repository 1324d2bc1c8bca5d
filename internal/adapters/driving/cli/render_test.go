package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func plainStyles() *Styles {
	return NewStyles(nil, true)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "75.0%", formatPercent(0.75))
	assert.Equal(t, "0.0%", formatPercent(0))
	assert.Equal(t, "100.0%", formatPercent(1))
	assert.Equal(t, "33.3%", formatPercent(1.0/3))
}

func TestStyles_PlainNeverStyles(t *testing.T) {
	st := plainStyles()

	assert.Equal(t, "title", st.Render(st.Title, "title"))
	assert.Equal(t, "85.0%", st.Score(0.85, false))
	assert.Equal(t, "n/a", st.Score(0, true))
}

func TestStylesFor_NonTerminalIsPlain(t *testing.T) {
	st := stylesFor(new(bytes.Buffer))

	assert.Equal(t, "x", st.Render(st.Error, "x"))
}

func TestRenderSections(t *testing.T) {
	buf := new(bytes.Buffer)
	content := &domain.ExtractedContent{
		Title: "Radio Policy",
		Sections: []domain.DocumentSection{{
			ID: "s1", Title: "Radio Policy", Level: 1,
			Children: []domain.DocumentSection{{ID: "s1.1", Title: "Mayday", Level: 2}},
		}},
		Metadata: domain.ExtractionMetadata{Format: domain.FormatMarkdown, UnitCount: 4, SectionCount: 2, CharacterCount: 120},
	}

	renderSections(buf, plainStyles(), content)

	assert.Contains(t, buf.String(), "markdown, 4 unit(s), 2 section(s), 120 characters")
	assert.Contains(t, buf.String(), "[s1] Radio Policy\n")
	assert.Contains(t, buf.String(), "  [s1.1] Mayday\n")
}

func TestRenderCombined(t *testing.T) {
	buf := new(bytes.Buffer)
	combined := domain.CombinedResult{
		IncidentID:   "inc-1",
		OverallScore: 0.4,
		PerTemplate: []domain.AuditResult{
			{
				TemplateID:   "t1",
				OverallScore: 0.8,
				Confidence:   0.9,
				CategoryResults: []domain.CategoryResult{
					{CategoryID: "mayday", Score: 0.8, ApplicableCount: 5, PassCount: 4, ErrorCount: 1},
					{CategoryID: "par", Inapplicable: true},
				},
			},
			{TemplateID: "t2", Inconclusive: true},
		},
	}

	renderCombined(buf, plainStyles(), combined, map[string]string{"t1": "Radio"}, []string{"category par failed"})
	out := buf.String()

	assert.Contains(t, out, "Incident inc-1  overall 40.0%")
	assert.Contains(t, out, "Radio  80.0%  confidence 0.90")
	assert.Contains(t, out, "4/5 passed, 1 unresolved")
	assert.Contains(t, out, "    n/a")
	assert.Contains(t, out, "t2  n/a")
	assert.Contains(t, out, "1 template(s) inconclusive")
	assert.Contains(t, out, "  - category par failed")
}

func TestRenderValidationAndAdjustments(t *testing.T) {
	buf := new(bytes.Buffer)
	st := plainStyles()

	renderValidation(buf, st, domain.ValidationResult{Issues: []domain.ValidationIssue{
		{Code: domain.IssueEmptyCategory, Path: "categories[0:a]", Message: "category has no criteria"},
	}})
	renderAdjustments(buf, st, []domain.WeightAdjustment{{Path: "categories[0:a].weight", Before: 0.2, After: 1}})

	assert.Contains(t, buf.String(), "1 issue(s) found:")
	assert.Contains(t, buf.String(), "  - categories[0:a]: category has no criteria (empty_category)")
	assert.Contains(t, buf.String(), "  categories[0:a].weight: 0.2000 -> 1.0000")
}

func TestRenderTemplates_Empty(t *testing.T) {
	buf := new(bytes.Buffer)

	renderTemplates(buf, plainStyles(), nil)

	assert.Equal(t, "No templates found.\n", buf.String())
}
