package domain

import "time"

// CategoryResult is the derived score of one category.
// Inapplicable is set when no criterion was PASS or FAIL; it is distinct
// from a genuine failing score of 0.
type CategoryResult struct {
	CategoryID      string            `json:"category_id" yaml:"category_id"`
	Score           float64           `json:"score" yaml:"score"`
	ApplicableCount int               `json:"applicable_count" yaml:"applicable_count"`
	PassCount       int               `json:"pass_count" yaml:"pass_count"`
	Inapplicable    bool              `json:"inapplicable" yaml:"inapplicable"`
	ErrorCount      int               `json:"error_count,omitempty" yaml:"error_count,omitempty"`
	Criteria        []CriterionResult `json:"criteria,omitempty" yaml:"criteria,omitempty"`
}

// AuditResult is the scored result of applying one template to one incident.
type AuditResult struct {
	ID              string           `json:"id" yaml:"id"`
	IncidentID      string           `json:"incident_id,omitempty" yaml:"incident_id,omitempty"`
	TemplateID      string           `json:"template_id" yaml:"template_id"`
	CategoryResults []CategoryResult `json:"category_results" yaml:"category_results"`
	OverallScore    float64          `json:"overall_score" yaml:"overall_score"`
	Inconclusive    bool             `json:"inconclusive" yaml:"inconclusive"`
	Confidence      float64          `json:"confidence" yaml:"confidence"`
	CreatedAt       time.Time        `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// CombinedResult aggregates the audits of several templates for one incident.
type CombinedResult struct {
	IncidentID   string        `json:"incident_id,omitempty" yaml:"incident_id,omitempty"`
	OverallScore float64       `json:"overall_score" yaml:"overall_score"`
	PerTemplate  []AuditResult `json:"per_template" yaml:"per_template"`
}

// InconclusiveCount returns how many contributing audits were inconclusive.
// Callers use it to warn users; the combined score already includes them.
func (c CombinedResult) InconclusiveCount() int {
	n := 0
	for _, a := range c.PerTemplate {
		if a.Inconclusive {
			n++
		}
	}
	return n
}
