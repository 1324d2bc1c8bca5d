package services

import (
	"fmt"
	"math"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// exactTolerance is the drift below which a weight sum is treated as exactly 1.0.
// Normalising a sum inside this band is skipped so Normalize stays idempotent.
const exactTolerance = 1e-9

// TemplateNormalizer validates template structure and rescales weights.
type TemplateNormalizer struct {
	epsilon float64
}

// NewTemplateNormalizer creates a normalizer. epsilon is the tolerance used
// by WeightsBalanced; non-positive values fall back to the default.
func NewTemplateNormalizer(epsilon float64) *TemplateNormalizer {
	if epsilon <= 0 || math.IsNaN(epsilon) {
		epsilon = domain.DefaultWeightEpsilon
	}
	return &TemplateNormalizer{epsilon: epsilon}
}

// Validate collects every structural issue in one pass.
func (n *TemplateNormalizer) Validate(t domain.ComplianceTemplate) domain.ValidationResult {
	var issues []domain.ValidationIssue

	if len(t.Categories) == 0 {
		issues = append(issues, domain.ValidationIssue{
			Code:    domain.IssueNoCategories,
			Path:    "categories",
			Message: "template has no categories",
		})
	}

	seen := make(map[string]string)
	seenCategories := make(map[string]string, len(t.Categories))
	for i, cat := range t.Categories {
		catPath := categoryPath(i, cat.ID)

		if cat.ID != "" {
			if first, dup := seenCategories[cat.ID]; dup {
				issues = append(issues, domain.ValidationIssue{
					Code:    domain.IssueDuplicateCategoryID,
					Path:    catPath,
					Message: fmt.Sprintf("category id %q already used at %s", cat.ID, first),
				})
			} else {
				seenCategories[cat.ID] = catPath
			}
		}

		if !weightInRange(cat.Weight) {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueWeightOutOfRange,
				Path:    catPath + ".weight",
				Message: fmt.Sprintf("weight %v is not within [0, 1]", cat.Weight),
			})
		}

		if len(cat.Criteria) == 0 {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueEmptyCategory,
				Path:    catPath,
				Message: "category has no criteria",
			})
		}

		for j, crit := range cat.Criteria {
			critPath := criterionPath(catPath, j, crit.ID)

			if crit.ID == "" {
				issues = append(issues, domain.ValidationIssue{
					Code:    domain.IssueMissingCriterionID,
					Path:    critPath,
					Message: "criterion has no id",
				})
			} else if first, dup := seen[crit.ID]; dup {
				issues = append(issues, domain.ValidationIssue{
					Code:    domain.IssueDuplicateCriterionID,
					Path:    critPath,
					Message: fmt.Sprintf("criterion id %q already used at %s", crit.ID, first),
				})
			} else {
				seen[crit.ID] = critPath
			}

			if !weightInRange(crit.Weight) {
				issues = append(issues, domain.ValidationIssue{
					Code:    domain.IssueWeightOutOfRange,
					Path:    critPath + ".weight",
					Message: fmt.Sprintf("weight %v is not within [0, 1]", crit.Weight),
				})
			}
		}
	}

	return domain.ValidationResult{Valid: len(issues) == 0, Issues: issues}
}

// Normalize rescales category weights and the criteria weights of each
// category so that every non-empty level sums to 1.0. NaN, infinite and
// negative weights count as 0, finite positive weights are divided by the
// level sum whatever their size, and an all-zero level becomes uniform. The input is not
// modified. Normalize(Normalize(t)) leaves weights unchanged.
func (n *TemplateNormalizer) Normalize(t domain.ComplianceTemplate) domain.NormalizedTemplate {
	out := t.Clone()
	var adjustments []domain.WeightAdjustment

	catWeights := make([]float64, len(out.Categories))
	for i, cat := range out.Categories {
		catWeights[i] = cat.Weight
	}
	catWeights = rescale(catWeights)
	for i := range out.Categories {
		cat := &out.Categories[i]
		catPath := categoryPath(i, cat.ID)
		if changed(cat.Weight, catWeights[i]) {
			adjustments = append(adjustments, domain.WeightAdjustment{
				Path:   catPath + ".weight",
				Before: cat.Weight,
				After:  catWeights[i],
			})
		}
		cat.Weight = catWeights[i]

		critWeights := make([]float64, len(cat.Criteria))
		for j, crit := range cat.Criteria {
			critWeights[j] = crit.Weight
		}
		critWeights = rescale(critWeights)
		for j := range cat.Criteria {
			crit := &cat.Criteria[j]
			if changed(crit.Weight, critWeights[j]) {
				adjustments = append(adjustments, domain.WeightAdjustment{
					Path:   criterionPath(catPath, j, crit.ID) + ".weight",
					Before: crit.Weight,
					After:  critWeights[j],
				})
			}
			crit.Weight = critWeights[j]
		}
	}

	return domain.NormalizedTemplate{Template: out, Adjustments: adjustments}
}

// WeightsBalanced reports whether every non-empty level sums to 1.0 within epsilon.
func (n *TemplateNormalizer) WeightsBalanced(t domain.ComplianceTemplate) bool {
	if len(t.Categories) == 0 {
		return true
	}
	var catSum float64
	for _, cat := range t.Categories {
		catSum += cat.Weight
		if len(cat.Criteria) == 0 {
			continue
		}
		var critSum float64
		for _, crit := range cat.Criteria {
			critSum += crit.Weight
		}
		if math.Abs(critSum-1) > n.epsilon {
			return false
		}
	}
	return math.Abs(catSum-1) <= n.epsilon
}

// rescale returns weights that sum to 1.0.
func rescale(weights []float64) []float64 {
	if len(weights) == 0 {
		return weights
	}
	out := make([]float64, len(weights))
	var sum float64
	for i, w := range weights {
		out[i] = sanitizeWeight(w)
		sum += out[i]
	}
	if sum == 0 {
		uniform := 1 / float64(len(out))
		for i := range out {
			out[i] = uniform
		}
		return out
	}
	if math.Abs(sum-1) <= exactTolerance {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// sanitizeWeight zeroes weights that cannot take part in a sum. Finite
// positive weights above 1 are kept so rescaling preserves their proportions.
func sanitizeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

func weightInRange(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0 && w <= 1
}

func changed(before, after float64) bool {
	if math.IsNaN(before) {
		return true
	}
	return math.Abs(before-after) > exactTolerance
}

func categoryPath(i int, id string) string {
	if id == "" {
		return fmt.Sprintf("categories[%d]", i)
	}
	return fmt.Sprintf("categories[%d:%s]", i, id)
}

func criterionPath(catPath string, j int, id string) string {
	if id == "" {
		return fmt.Sprintf("%s.criteria[%d]", catPath, j)
	}
	return fmt.Sprintf("%s.criteria[%d:%s]", catPath, j, id)
}
