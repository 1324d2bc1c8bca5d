package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// ScoringEngine derives category, template and combined scores from verdicts.
// It is stateless and safe for concurrent use.
type ScoringEngine struct{}

// NewScoringEngine creates a scoring engine.
func NewScoringEngine() *ScoringEngine {
	return &ScoringEngine{}
}

// ScoreCategory scores one category as the fraction of applicable criteria
// that passed. NOT_APPLICABLE and ERROR verdicts are excluded. A category
// with no applicable criteria scores 0 and is flagged Inapplicable.
func (e *ScoringEngine) ScoreCategory(categoryID string, results []domain.CriterionResult) domain.CategoryResult {
	out := domain.CategoryResult{
		CategoryID: categoryID,
		Criteria:   append([]domain.CriterionResult(nil), results...),
	}
	for _, r := range results {
		switch r.Verdict {
		case domain.VerdictPass:
			out.ApplicableCount++
			out.PassCount++
		case domain.VerdictFail:
			out.ApplicableCount++
		case domain.VerdictError:
			out.ErrorCount++
		}
	}
	if out.ApplicableCount == 0 {
		out.Inapplicable = true
		return out
	}
	out.Score = float64(out.PassCount) / float64(out.ApplicableCount)
	return out
}

// ScoreOverall weights category scores by their category weight, excluding
// inapplicable categories from both numerator and denominator. results[i]
// is paired with categories[i]; surplus entries on either side are ignored.
// When nothing is applicable the score is 0 and the result is inconclusive.
func (e *ScoringEngine) ScoreOverall(results []domain.CategoryResult, categories []domain.ComplianceCategory) (float64, bool) {
	var num, den float64
	for i, r := range results {
		if i >= len(categories) {
			break
		}
		if r.Inapplicable {
			continue
		}
		w := categories[i].Weight
		num += w * r.Score
		den += w
	}
	if den <= 0 {
		return 0, true
	}
	return clamp01(num / den), false
}

// ScoreTemplate scores a full set of criterion results against a template.
// Criteria without a result are recorded as ERROR so every category is
// accounted for. Results for unknown criteria are ignored.
func (e *ScoringEngine) ScoreTemplate(t domain.ComplianceTemplate, results []domain.CriterionResult) domain.AuditResult {
	byID := make(map[string]domain.CriterionResult, len(results))
	for _, r := range results {
		if _, dup := byID[r.CriterionID]; !dup {
			byID[r.CriterionID] = r
		}
	}

	audit := domain.AuditResult{
		TemplateID:      t.ID,
		CategoryResults: make([]domain.CategoryResult, 0, len(t.Categories)),
	}
	for _, cat := range t.Categories {
		catResults := make([]domain.CriterionResult, 0, len(cat.Criteria))
		for _, crit := range cat.Criteria {
			r, ok := byID[crit.ID]
			if !ok {
				r = domain.CriterionResult{
					CriterionID: crit.ID,
					Verdict:     domain.VerdictError,
					Rationale:   "no judgment recorded",
				}
			}
			catResults = append(catResults, r)
		}
		audit.CategoryResults = append(audit.CategoryResults, e.ScoreCategory(cat.ID, catResults))
	}
	audit.OverallScore, audit.Inconclusive = e.ScoreOverall(audit.CategoryResults, t.Categories)
	return audit
}

// Combine averages overall scores across templates. Inconclusive audits
// contribute their score of 0 and remain visible through PerTemplate.
func (e *ScoringEngine) Combine(audits []domain.AuditResult) domain.CombinedResult {
	out := domain.CombinedResult{PerTemplate: append([]domain.AuditResult(nil), audits...)}
	if len(audits) == 0 {
		return out
	}
	var sum float64
	for _, a := range audits {
		sum += a.OverallScore
	}
	out.OverallScore = clamp01(sum / float64(len(audits)))
	out.IncidentID = audits[0].IncidentID
	return out
}

// ParseJudgments is the judgment boundary: it converts raw classifier output
// for one category into criterion results. Every criterion of the category
// yields exactly one result. A missing judgment becomes ERROR for its
// criterion. A malformed verdict anywhere in the payload marks every
// criterion of the category ERROR, so the category scores as inapplicable.
// All problems are reported in the returned errors. The first judgment for
// a criterion wins.
func ParseJudgments(cat domain.ComplianceCategory, raw []domain.RawJudgment) ([]domain.CriterionResult, []error) {
	known := make(map[string]bool, len(cat.Criteria))
	for _, crit := range cat.Criteria {
		known[crit.ID] = true
	}

	var errs []error
	byID := make(map[string]domain.RawJudgment, len(raw))
	for _, j := range raw {
		if !known[j.CriterionID] {
			errs = append(errs, fmt.Errorf("%w: judgment for unknown criterion %q in category %q",
				domain.ErrInvalidInput, j.CriterionID, cat.ID))
			continue
		}
		if _, dup := byID[j.CriterionID]; !dup {
			byID[j.CriterionID] = j
		}
	}

	results := make([]domain.CriterionResult, 0, len(cat.Criteria))
	var invalid []string
	for _, crit := range cat.Criteria {
		j, ok := byID[crit.ID]
		if !ok {
			results = append(results, ErrorResult(crit.ID, "classifier returned no judgment"))
			errs = append(errs, fmt.Errorf("no judgment for criterion %q in category %q", crit.ID, cat.ID))
			continue
		}
		verdict, valid := domain.ParseVerdict(j.Verdict)
		if !valid {
			invalid = append(invalid, crit.ID)
			results = append(results, ErrorResult(crit.ID, fmt.Sprintf("invalid verdict %q", j.Verdict)))
			errs = append(errs, &domain.InvalidVerdictError{
				CategoryID:  cat.ID,
				CriterionID: crit.ID,
				Value:       j.Verdict,
			})
			continue
		}
		results = append(results, domain.CriterionResult{
			CriterionID: crit.ID,
			Verdict:     verdict,
			Evidence:    j.Evidence,
			Rationale:   j.Rationale,
		})
	}
	if len(invalid) > 0 {
		reason := fmt.Sprintf("category discarded: invalid verdict for %s", strings.Join(invalid, ", "))
		for i, r := range results {
			if r.Verdict != domain.VerdictError {
				results[i] = ErrorResult(r.CriterionID, reason)
			}
		}
	}
	return results, errs
}

// ErrorResult builds the ERROR sentinel result for a criterion.
func ErrorResult(criterionID, reason string) domain.CriterionResult {
	return domain.CriterionResult{
		CriterionID: criterionID,
		Verdict:     domain.VerdictError,
		Rationale:   reason,
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
