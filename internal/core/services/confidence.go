package services

import (
	"math"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// ConfidenceEstimator derives a bounded confidence value for templates and audits.
type ConfidenceEstimator struct {
	penalty float64
}

// NewConfidenceEstimator creates an estimator that subtracts penalty when
// validation found structural issues. A zero penalty disables the deduction;
// negative or NaN values fall back to the default.
func NewConfidenceEstimator(penalty float64) *ConfidenceEstimator {
	if penalty < 0 || math.IsNaN(penalty) {
		penalty = domain.DefaultValidationPenalty
	}
	return &ConfidenceEstimator{penalty: penalty}
}

// Estimate combines a base confidence, the validation outcome and a
// completeness ratio. The result is always within [0, 1].
func (c *ConfidenceEstimator) Estimate(base float64, validation domain.ValidationResult, completeness float64) float64 {
	v := clamp01(base)
	if validation.HasStructuralErrors() {
		v = clamp01(v - c.penalty)
	}
	return clamp01(v * clamp01(completeness))
}

// Completeness is the fraction of leaf sections that some criterion cites
// through its source reference. A reference to a section covers all of its
// descendants. Content without sections is complete.
func (c *ConfidenceEstimator) Completeness(content *domain.ExtractedContent, t domain.ComplianceTemplate) float64 {
	if content == nil {
		return 1
	}
	leaves := content.LeafSections()
	if len(leaves) == 0 {
		return 1
	}

	var refs []string
	for _, cat := range t.Categories {
		for _, crit := range cat.Criteria {
			if ref := strings.TrimSpace(crit.SourceReference); ref != "" {
				refs = append(refs, ref)
			}
		}
	}

	covered := 0
	for _, leaf := range leaves {
		for _, ref := range refs {
			if sectionCovers(ref, leaf) {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(leaves))
}

// Resolved is the fraction of criteria whose verdict is not ERROR.
func (c *ConfidenceEstimator) Resolved(audit domain.AuditResult) float64 {
	total, ok := 0, 0
	for _, cat := range audit.CategoryResults {
		for _, r := range cat.Criteria {
			total++
			if r.Verdict != domain.VerdictError {
				ok++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total)
}

// sectionCovers matches a reference by section id or, failing that, by
// case-insensitive section title.
func sectionCovers(ref string, leaf domain.DocumentSection) bool {
	if ref == leaf.ID || strings.HasPrefix(leaf.ID, ref+".") {
		return true
	}
	return leaf.Title != "" && strings.EqualFold(ref, strings.TrimSpace(leaf.Title))
}
