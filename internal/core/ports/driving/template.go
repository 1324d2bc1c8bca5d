package driving

import (
	"context"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// TemplateService validates, normalises, generates and manages compliance templates.
type TemplateService interface {
	// Validate reports every structural issue in a template.
	Validate(template domain.ComplianceTemplate) domain.ValidationResult

	// Normalize rescales weights so every level sums to 1.0.
	// It always succeeds and is idempotent.
	Normalize(template domain.ComplianceTemplate) domain.NormalizedTemplate

	// Generate asks the template proposer for a template derived from
	// extracted content, then validates, normalises and stores it as DRAFT.
	// Returns domain.ErrClassifierUnavailable when no proposer is configured.
	Generate(ctx context.Context, content *domain.ExtractedContent, opts GenerateOptions) (*TemplateResult, error)

	// Save validates, normalises and stores a hand-authored template.
	// Structural issues do not block saving; they block promotion.
	Save(ctx context.Context, template domain.ComplianceTemplate) (*TemplateResult, error)

	// Get retrieves a template by ID.
	Get(ctx context.Context, id string) (*domain.ComplianceTemplate, error)

	// List returns templates, optionally filtered by status.
	List(ctx context.Context, status domain.TemplateStatus) ([]domain.ComplianceTemplate, error)

	// Promote moves a DRAFT template to ACTIVE.
	// Templates with structural issues cannot be promoted.
	Promote(ctx context.Context, id string) (*domain.ComplianceTemplate, error)

	// Archive moves an ACTIVE or DRAFT template to ARCHIVED.
	Archive(ctx context.Context, id string) (*domain.ComplianceTemplate, error)
}

// GenerateOptions tunes template generation.
type GenerateOptions struct {
	// Instructions are passed through to the proposer.
	Instructions string

	// Name overrides the proposed template name.
	Name string

	// BaseConfidence overrides the proposer's own confidence when set.
	BaseConfidence *float64
}

// TemplateResult is a stored template with the findings of validation and normalisation.
type TemplateResult struct {
	Template    domain.ComplianceTemplate `json:"template"`
	Validation  domain.ValidationResult   `json:"validation"`
	Adjustments []domain.WeightAdjustment `json:"adjustments,omitempty"`
}
