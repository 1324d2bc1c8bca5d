package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func formatPercent(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// renderSections prints the section tree, indented by level.
func renderSections(w io.Writer, st *Styles, content *domain.ExtractedContent) {
	fmt.Fprintln(w, st.Render(st.Title, content.Title))
	meta := content.Metadata
	fmt.Fprintln(w, st.Render(st.Muted, fmt.Sprintf("%s, %d unit(s), %d section(s), %d characters",
		meta.Format, meta.UnitCount, meta.SectionCount, meta.CharacterCount)))
	fmt.Fprintln(w)

	for _, root := range content.Sections {
		root.Walk(func(s domain.DocumentSection) {
			indent := strings.Repeat("  ", max(s.Level-1, 0))
			fmt.Fprintf(w, "%s%s %s\n", indent, st.Render(st.Muted, "["+s.ID+"]"), s.Title)
		})
	}
}

// renderValidation prints every issue, or a single OK line.
func renderValidation(w io.Writer, st *Styles, result domain.ValidationResult) {
	if result.Valid {
		fmt.Fprintln(w, st.Render(st.Success, "Template is valid."))
		return
	}
	fmt.Fprintln(w, st.Render(st.Error, fmt.Sprintf("%d issue(s) found:", len(result.Issues))))
	for _, issue := range result.Issues {
		fmt.Fprintf(w, "  - %s: %s %s\n", issue.Path, issue.Message, st.Render(st.Muted, "("+string(issue.Code)+")"))
	}
}

// renderAdjustments prints the weights normalization changed.
func renderAdjustments(w io.Writer, st *Styles, adjustments []domain.WeightAdjustment) {
	if len(adjustments) == 0 {
		fmt.Fprintln(w, "Weights already sum to 1; nothing adjusted.")
		return
	}
	fmt.Fprintln(w, st.Render(st.Warning, fmt.Sprintf("Weights were adjusted (%d):", len(adjustments))))
	for _, a := range adjustments {
		fmt.Fprintf(w, "  %s: %.4f -> %.4f\n", a.Path, a.Before, a.After)
	}
}

// renderTemplates prints a one-line summary per template.
func renderTemplates(w io.Writer, st *Styles, templates []domain.ComplianceTemplate) {
	if len(templates) == 0 {
		fmt.Fprintln(w, "No templates found.")
		return
	}
	for _, t := range templates {
		name := t.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "  %-36s  %-8s  %-5.2f  %s %s\n",
			t.ID, t.Status, t.Confidence, name,
			st.Render(st.Muted, fmt.Sprintf("(%d categories, %d criteria)", len(t.Categories), t.CriterionCount())))
	}
}

// renderAudit prints one template's category breakdown.
func renderAudit(w io.Writer, st *Styles, audit domain.AuditResult, label string) {
	if label == "" {
		label = audit.TemplateID
	}
	fmt.Fprintf(w, "%s  %s  %s\n",
		st.Render(st.Subtitle, label),
		st.Score(audit.OverallScore, audit.Inconclusive),
		st.Render(st.Muted, fmt.Sprintf("confidence %.2f", audit.Confidence)))

	for _, c := range audit.CategoryResults {
		counts := fmt.Sprintf("%d/%d passed", c.PassCount, c.ApplicableCount)
		if c.ErrorCount > 0 {
			counts += fmt.Sprintf(", %d unresolved", c.ErrorCount)
		}
		fmt.Fprintf(w, "  %-24s %s  %s\n", c.CategoryID, padScore(st, c.Score, c.Inapplicable), st.Render(st.Muted, counts))
	}
}

// padScore pads before styling so escape codes do not break alignment.
func padScore(st *Styles, score float64, inapplicable bool) string {
	text := formatPercent(score)
	if inapplicable {
		text = "n/a"
	}
	pad := strings.Repeat(" ", max(7-len(text), 0))
	return pad + st.Score(score, inapplicable)
}

// renderCombined prints the incident score followed by every template.
func renderCombined(w io.Writer, st *Styles, combined domain.CombinedResult, labels map[string]string, warnings []string) {
	title := "Incident"
	if combined.IncidentID != "" {
		title += " " + combined.IncidentID
	}
	fmt.Fprintf(w, "%s  overall %s\n\n", st.Render(st.Title, title), st.Score(combined.OverallScore, false))

	for _, audit := range combined.PerTemplate {
		renderAudit(w, st, audit, labels[audit.TemplateID])
		fmt.Fprintln(w)
	}

	if n := combined.InconclusiveCount(); n > 0 {
		fmt.Fprintln(w, st.Render(st.Warning, fmt.Sprintf("%d template(s) inconclusive; they count as 0 in the overall score.", n)))
	}
	if len(warnings) > 0 {
		fmt.Fprintln(w, st.Render(st.Warning, "Warnings:"))
		for _, warning := range warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
