package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

func verdicts(vs ...domain.Verdict) []domain.CriterionResult {
	out := make([]domain.CriterionResult, len(vs))
	for i, v := range vs {
		out[i] = domain.CriterionResult{CriterionID: string(rune('a' + i)), Verdict: v}
	}
	return out
}

func TestScoringEngine_ScoreCategory(t *testing.T) {
	e := NewScoringEngine()

	tests := []struct {
		name         string
		results      []domain.CriterionResult
		score        float64
		applicable   int
		inapplicable bool
	}{
		{
			name:       "all pass",
			results:    verdicts(domain.VerdictPass, domain.VerdictPass),
			score:      1,
			applicable: 2,
		},
		{
			name:       "mixed with not applicable",
			results:    verdicts(domain.VerdictPass, domain.VerdictFail, domain.VerdictNotApplicable, domain.VerdictPass),
			score:      2.0 / 3.0,
			applicable: 3,
		},
		{
			name:       "all fail is a genuine zero",
			results:    verdicts(domain.VerdictFail, domain.VerdictFail),
			score:      0,
			applicable: 2,
		},
		{
			name:         "only not applicable",
			results:      verdicts(domain.VerdictNotApplicable, domain.VerdictNotApplicable),
			inapplicable: true,
		},
		{
			name:       "errors are excluded",
			results:    verdicts(domain.VerdictError, domain.VerdictPass),
			score:      1,
			applicable: 1,
		},
		{
			name:         "no results",
			inapplicable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ScoreCategory("cat", tt.results)

			assert.Equal(t, "cat", got.CategoryID)
			assert.InDelta(t, tt.score, got.Score, 1e-12)
			assert.Equal(t, tt.applicable, got.ApplicableCount)
			assert.Equal(t, tt.inapplicable, got.Inapplicable)
			assert.Len(t, got.Criteria, len(tt.results))
		})
	}
}

func TestScoringEngine_ScoreCategory_CountsErrors(t *testing.T) {
	e := NewScoringEngine()

	got := e.ScoreCategory("cat", verdicts(domain.VerdictError, domain.VerdictError))

	assert.Equal(t, 2, got.ErrorCount)
	assert.True(t, got.Inapplicable)
	assert.Zero(t, got.Score)
}

func TestScoringEngine_ScoreOverall_ExcludesInapplicable(t *testing.T) {
	e := NewScoringEngine()
	categories := []domain.ComplianceCategory{
		{ID: "a", Weight: 0.5},
		{ID: "b", Weight: 0.3},
		{ID: "c", Weight: 0.2},
	}
	results := []domain.CategoryResult{
		{CategoryID: "a", Score: 1, ApplicableCount: 2, PassCount: 2},
		{CategoryID: "b", Score: 0.5, ApplicableCount: 2, PassCount: 1},
		{CategoryID: "c", Inapplicable: true},
	}

	score, inconclusive := e.ScoreOverall(results, categories)

	assert.False(t, inconclusive)
	assert.InDelta(t, (0.5*1+0.3*0.5)/0.8, score, 1e-12)
}

func TestScoringEngine_ScoreOverall_AllInapplicable(t *testing.T) {
	e := NewScoringEngine()
	categories := []domain.ComplianceCategory{{ID: "a", Weight: 1}}

	score, inconclusive := e.ScoreOverall([]domain.CategoryResult{{CategoryID: "a", Inapplicable: true}}, categories)

	assert.True(t, inconclusive)
	assert.Zero(t, score)
}

func TestScoringEngine_ScoreOverall_ZeroWeightApplicable(t *testing.T) {
	e := NewScoringEngine()
	categories := []domain.ComplianceCategory{{ID: "a", Weight: 0}, {ID: "b", Weight: 1}}
	results := []domain.CategoryResult{
		{CategoryID: "a", Score: 1, ApplicableCount: 1, PassCount: 1},
		{CategoryID: "b", Inapplicable: true},
	}

	score, inconclusive := e.ScoreOverall(results, categories)

	assert.True(t, inconclusive)
	assert.Zero(t, score)
}

func TestScoringEngine_ScoreOverall_PairsByPosition(t *testing.T) {
	e := NewScoringEngine()
	categories := []domain.ComplianceCategory{
		{ID: "comms", Weight: 0.8},
		{ID: "comms", Weight: 0.2},
	}
	results := []domain.CategoryResult{
		{CategoryID: "comms", Score: 1, ApplicableCount: 1, PassCount: 1},
		{CategoryID: "comms", Score: 0, ApplicableCount: 1},
	}

	score, inconclusive := e.ScoreOverall(results, categories)

	assert.False(t, inconclusive)
	assert.InDelta(t, 0.8, score, 1e-12)
}

func TestScoringEngine_ScoreTemplate_DuplicateCategoryIDs(t *testing.T) {
	e := NewScoringEngine()
	tpl := domain.ComplianceTemplate{
		ID: "dup",
		Categories: []domain.ComplianceCategory{
			{ID: "comms", Weight: 0.8, Criteria: []domain.ComplianceCriterion{{ID: "c1", Weight: 1}}},
			{ID: "comms", Weight: 0.2, Criteria: []domain.ComplianceCriterion{{ID: "c2", Weight: 1}}},
		},
	}

	audit := e.ScoreTemplate(tpl, []domain.CriterionResult{
		{CriterionID: "c1", Verdict: domain.VerdictPass},
		{CriterionID: "c2", Verdict: domain.VerdictFail},
	})

	require.Len(t, audit.CategoryResults, 2)
	assert.InDelta(t, 0.8, audit.OverallScore, 1e-12)
}

func TestScoringEngine_ScoreTemplate(t *testing.T) {
	e := NewScoringEngine()
	tpl := NewTemplateNormalizer(0).Normalize(sampleTemplate()).Template
	results := []domain.CriterionResult{
		{CriterionID: "g1", Verdict: domain.VerdictPass},
		{CriterionID: "g2", Verdict: domain.VerdictFail},
		{CriterionID: "l1", Verdict: domain.VerdictNotApplicable},
		{CriterionID: "l2", Verdict: domain.VerdictNotApplicable},
		{CriterionID: "zz", Verdict: domain.VerdictPass},
	}

	audit := e.ScoreTemplate(tpl, results)

	require.Len(t, audit.CategoryResults, 2)
	assert.Equal(t, "tpl-1", audit.TemplateID)
	assert.InDelta(t, 0.5, audit.CategoryResults[0].Score, 1e-12)
	assert.True(t, audit.CategoryResults[1].Inapplicable)
	assert.InDelta(t, 0.5, audit.OverallScore, 1e-12)
	assert.False(t, audit.Inconclusive)
}

func TestScoringEngine_ScoreTemplate_MissingResultsBecomeErrors(t *testing.T) {
	e := NewScoringEngine()
	tpl := NewTemplateNormalizer(0).Normalize(sampleTemplate()).Template

	audit := e.ScoreTemplate(tpl, []domain.CriterionResult{{CriterionID: "g1", Verdict: domain.VerdictPass}})

	assert.Equal(t, 1, audit.CategoryResults[0].ErrorCount)
	assert.Equal(t, 2, audit.CategoryResults[1].ErrorCount)
	assert.Equal(t, domain.VerdictError, audit.CategoryResults[1].Criteria[0].Verdict)
	assert.InDelta(t, 1.0, audit.OverallScore, 1e-12)
}

func TestScoringEngine_Combine(t *testing.T) {
	e := NewScoringEngine()
	audits := []domain.AuditResult{
		{IncidentID: "inc-1", TemplateID: "t1", OverallScore: 0.8},
		{IncidentID: "inc-1", TemplateID: "t2", OverallScore: 0.4},
		{IncidentID: "inc-1", TemplateID: "t3", OverallScore: 0, Inconclusive: true},
	}

	combined := e.Combine(audits)

	assert.Equal(t, "inc-1", combined.IncidentID)
	assert.InDelta(t, 0.4, combined.OverallScore, 1e-12)
	assert.Len(t, combined.PerTemplate, 3)
	assert.Equal(t, 1, combined.InconclusiveCount())
}

func TestScoringEngine_Combine_Empty(t *testing.T) {
	combined := NewScoringEngine().Combine(nil)

	assert.Zero(t, combined.OverallScore)
	assert.Empty(t, combined.PerTemplate)
}

func TestParseJudgments(t *testing.T) {
	cat := domain.ComplianceCategory{
		ID: "greeting",
		Criteria: []domain.ComplianceCriterion{
			{ID: "g1"}, {ID: "g2"}, {ID: "g3"},
		},
	}
	raw := []domain.RawJudgment{
		{CriterionID: "g1", Verdict: "PASS", Rationale: "said name"},
		{CriterionID: "g1", Verdict: "FAIL"},
		{CriterionID: "g2", Verdict: " NOT_APPLICABLE "},
		{CriterionID: "other", Verdict: "PASS"},
	}

	results, errs := ParseJudgments(cat, raw)

	require.Len(t, results, 3)
	assert.Equal(t, domain.VerdictPass, results[0].Verdict)
	assert.Equal(t, "said name", results[0].Rationale)
	assert.Equal(t, domain.VerdictNotApplicable, results[1].Verdict)
	assert.Equal(t, domain.VerdictError, results[2].Verdict)

	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], domain.ErrInvalidInput))
	assert.Contains(t, errs[1].Error(), "g3")
}

func TestParseJudgments_InvalidVerdictDiscardsCategory(t *testing.T) {
	cat := domain.ComplianceCategory{
		ID:       "mayday",
		Criteria: []domain.ComplianceCriterion{{ID: "x"}, {ID: "y"}, {ID: "z"}},
	}
	raw := []domain.RawJudgment{
		{CriterionID: "x", Verdict: "PASS"},
		{CriterionID: "y", Verdict: "MAYBE"},
		{CriterionID: "z", Verdict: "FAIL"},
	}

	results, errs := ParseJudgments(cat, raw)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, domain.VerdictError, r.Verdict, r.CriterionID)
	}
	assert.Equal(t, "category discarded: invalid verdict for y", results[0].Rationale)

	require.Len(t, errs, 1)
	var ive *domain.InvalidVerdictError
	require.ErrorAs(t, errs[0], &ive)
	assert.Equal(t, "mayday", ive.CategoryID)
	assert.Equal(t, "y", ive.CriterionID)
	assert.Equal(t, "MAYBE", ive.Value)

	got := NewScoringEngine().ScoreCategory(cat.ID, results)
	assert.True(t, got.Inapplicable)
	assert.Zero(t, got.Score)
	assert.Equal(t, 3, got.ErrorCount)
}

func TestParseJudgments_RejectsLooseSpellings(t *testing.T) {
	cat := domain.ComplianceCategory{ID: "c", Criteria: []domain.ComplianceCriterion{{ID: "c1"}, {ID: "c2"}}}

	results, errs := ParseJudgments(cat, []domain.RawJudgment{
		{CriterionID: "c1", Verdict: "pass"},
		{CriterionID: "c2", Verdict: "n/a"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, domain.VerdictError, results[0].Verdict)
	assert.Equal(t, domain.VerdictError, results[1].Verdict)
	require.Len(t, errs, 2)
	assert.True(t, errors.Is(errs[0], domain.ErrInvalidVerdict))
	assert.True(t, errors.Is(errs[1], domain.ErrInvalidVerdict))
}

func TestParseJudgments_RejectsErrorFromClassifier(t *testing.T) {
	cat := domain.ComplianceCategory{ID: "c", Criteria: []domain.ComplianceCriterion{{ID: "c1"}}}

	results, errs := ParseJudgments(cat, []domain.RawJudgment{{CriterionID: "c1", Verdict: "ERROR"}})

	require.Len(t, results, 1)
	assert.Equal(t, domain.VerdictError, results[0].Verdict)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], domain.ErrInvalidVerdict))
}
