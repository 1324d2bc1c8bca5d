package domain

import "time"

// TemplateStatus is the lifecycle state of a compliance template.
type TemplateStatus string

// Template lifecycle states.
const (
	// StatusDraft is a generated or authored template not yet approved.
	StatusDraft TemplateStatus = "DRAFT"

	// StatusActive is a template approved for audits.
	StatusActive TemplateStatus = "ACTIVE"

	// StatusArchived is a superseded template kept for completed audits.
	StatusArchived TemplateStatus = "ARCHIVED"
)

// IsValid returns true if the status is recognised.
func (s TemplateStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	default:
		return false
	}
}

// ComplianceCriterion is a single scoreable statement.
// Weight is relative to the owning category.
type ComplianceCriterion struct {
	ID              string  `json:"id" yaml:"id"`
	Description     string  `json:"description" yaml:"description"`
	ScoringGuidance string  `json:"scoring_guidance,omitempty" yaml:"scoring_guidance,omitempty"`
	Weight          float64 `json:"weight" yaml:"weight"`
	SourceReference string  `json:"source_reference,omitempty" yaml:"source_reference,omitempty"`
}

// ComplianceCategory is a weighted group of criteria.
type ComplianceCategory struct {
	ID       string                `json:"id" yaml:"id"`
	Name     string                `json:"name" yaml:"name"`
	Weight   float64               `json:"weight" yaml:"weight"`
	Criteria []ComplianceCriterion `json:"criteria" yaml:"criteria"`
}

// ComplianceTemplate is the full set of categories used to audit one incident.
type ComplianceTemplate struct {
	ID           string               `json:"id" yaml:"id"`
	Name         string               `json:"name,omitempty" yaml:"name,omitempty"`
	SourcePolicy string               `json:"source_policy,omitempty" yaml:"source_policy,omitempty"`
	Categories   []ComplianceCategory `json:"categories" yaml:"categories"`
	Confidence   float64              `json:"confidence" yaml:"confidence"`
	Status       TemplateStatus       `json:"status" yaml:"status"`
	CreatedAt    time.Time            `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Clone returns a deep copy so callers can mutate weights safely.
func (t ComplianceTemplate) Clone() ComplianceTemplate {
	out := t
	out.Categories = make([]ComplianceCategory, len(t.Categories))
	for i, cat := range t.Categories {
		cat.Criteria = append([]ComplianceCriterion(nil), cat.Criteria...)
		out.Categories[i] = cat
	}
	return out
}

// CriterionCount returns the number of criteria across all categories.
func (t ComplianceTemplate) CriterionCount() int {
	n := 0
	for _, cat := range t.Categories {
		n += len(cat.Criteria)
	}
	return n
}

// Category returns the category with the given id.
func (t ComplianceTemplate) Category(id string) (ComplianceCategory, bool) {
	for _, cat := range t.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return ComplianceCategory{}, false
}

// ValidationResult is the outcome of structural validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// HasStructuralErrors is true when any issue was found.
// Weight imbalance is not an issue; Normalize repairs it and reports
// the change as a WeightAdjustment instead.
func (r ValidationResult) HasStructuralErrors() bool {
	return len(r.Issues) > 0
}

// Err returns a StructuralValidationError carrying every issue, or nil.
func (r ValidationResult) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	return &StructuralValidationError{Issues: append([]ValidationIssue(nil), r.Issues...)}
}

// WeightAdjustment records one weight changed by normalization.
type WeightAdjustment struct {
	Path   string  `json:"path"`
	Before float64 `json:"before"`
	After  float64 `json:"after"`
}

// NormalizedTemplate is a template whose weights sum to 1.0 at every level.
type NormalizedTemplate struct {
	Template    ComplianceTemplate `json:"template"`
	Adjustments []WeightAdjustment `json:"adjustments,omitempty"`
}

// Adjusted reports whether normalization changed any weight.
func (n NormalizedTemplate) Adjusted() bool {
	return len(n.Adjustments) > 0
}
