package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/auditkit/internal/codec"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
	"github.com/custodia-labs/auditkit/internal/logger"
)

// Ensure TemplateService implements the interface.
var _ driving.TemplateService = (*TemplateService)(nil)

// DefaultProposalMaxChars caps the document text sent to the template proposer.
const DefaultProposalMaxChars = 10000

// TemplateService manages the compliance template lifecycle.
type TemplateService struct {
	store      driven.TemplateStore
	proposer   driven.TemplateProposer
	normalizer *TemplateNormalizer
	confidence *ConfidenceEstimator
	now        func() time.Time
}

// NewTemplateService creates a new template service.
// The proposer is optional - if nil, Generate returns domain.ErrClassifierUnavailable.
func NewTemplateService(
	store driven.TemplateStore,
	proposer driven.TemplateProposer,
	settings domain.AuditSettings,
) *TemplateService {
	settings = settings.WithDefaults()
	return &TemplateService{
		store:      store,
		proposer:   proposer,
		normalizer: NewTemplateNormalizer(settings.WeightEpsilon),
		confidence: NewConfidenceEstimator(settings.ValidationPenalty),
		now:        time.Now,
	}
}

// Validate reports every structural issue in a template.
func (s *TemplateService) Validate(t domain.ComplianceTemplate) domain.ValidationResult {
	return s.normalizer.Validate(t)
}

// Normalize rescales weights so every level sums to 1.0.
func (s *TemplateService) Normalize(t domain.ComplianceTemplate) domain.NormalizedTemplate {
	return s.normalizer.Normalize(t)
}

// Generate asks the proposer for a template, then validates, normalises and
// stores it as DRAFT. Confidence starts from the proposer's own value (or
// opts.BaseConfidence), loses the validation penalty when the proposal had
// structural issues and is scaled by how much of the document the criteria cite.
func (s *TemplateService) Generate(
	ctx context.Context,
	content *domain.ExtractedContent,
	opts driving.GenerateOptions,
) (*driving.TemplateResult, error) {
	if s.proposer == nil {
		return nil, domain.ErrClassifierUnavailable
	}
	if content == nil {
		return nil, fmt.Errorf("%w: no document content", domain.ErrInvalidInput)
	}

	logger.Section("Template Generation")
	logger.Debug("Proposing template from %q (%d sections)", content.Title, content.Metadata.SectionCount)

	raw, err := s.proposer.ProposeTemplate(ctx, driven.ProposalRequest{
		Content:      content,
		Instructions: opts.Instructions,
		MaxChars:     DefaultProposalMaxChars,
	})
	if err != nil {
		return nil, fmt.Errorf("propose template: %w", err)
	}
	proposed, err := codec.DecodeTemplate(raw, "proposal.json")
	if err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}

	if opts.Name != "" {
		proposed.Name = opts.Name
	}
	if proposed.Name == "" {
		proposed.Name = content.Title
	}
	if proposed.SourcePolicy == "" {
		proposed.SourcePolicy = content.Title
	}
	proposed.ID = ""
	proposed.Status = domain.StatusDraft

	base := proposed.Confidence
	if opts.BaseConfidence != nil {
		base = *opts.BaseConfidence
	}

	validation := s.normalizer.Validate(proposed)
	normalized := s.normalizer.Normalize(proposed)
	t := normalized.Template
	t.Confidence = s.confidence.Estimate(base, validation, s.confidence.Completeness(content, t))

	if err := s.persist(ctx, &t, nil); err != nil {
		return nil, err
	}

	logger.Info("Generated template %s: %d categories, %d criteria, %d issues, confidence %.2f",
		t.ID, len(t.Categories), t.CriterionCount(), len(validation.Issues), t.Confidence)
	return &driving.TemplateResult{
		Template:    t,
		Validation:  validation,
		Adjustments: normalized.Adjustments,
	}, nil
}

// Save validates, normalises and stores a hand-authored template. An ACTIVE
// template edited into an invalid state is moved back to DRAFT.
func (s *TemplateService) Save(ctx context.Context, t domain.ComplianceTemplate) (*driving.TemplateResult, error) {
	var existing *domain.ComplianceTemplate
	if t.ID != "" {
		found, err := s.store.Get(ctx, t.ID)
		switch {
		case err == nil:
			existing = found
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("get template: %w", err)
		}
	}

	validation := s.normalizer.Validate(t)
	normalized := s.normalizer.Normalize(t)
	out := normalized.Template

	if out.Status == "" {
		out.Status = domain.StatusDraft
		if existing != nil {
			out.Status = existing.Status
		}
	}
	if !out.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, out.Status)
	}
	if out.Status == domain.StatusActive && validation.HasStructuralErrors() {
		logger.Warn("Template %s has %d structural issues; moving back to DRAFT", out.ID, len(validation.Issues))
		out.Status = domain.StatusDraft
	}

	out.Confidence = s.confidence.Estimate(out.Confidence, validation, 1)

	if err := s.persist(ctx, &out, existing); err != nil {
		return nil, err
	}
	if len(normalized.Adjustments) > 0 {
		logger.Info("Template %s: %d weights were adjusted", out.ID, len(normalized.Adjustments))
	}
	return &driving.TemplateResult{
		Template:    out,
		Validation:  validation,
		Adjustments: normalized.Adjustments,
	}, nil
}

// Get retrieves a template by ID.
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.ComplianceTemplate, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: template id is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, id)
}

// List returns templates, optionally filtered by status.
func (s *TemplateService) List(ctx context.Context, status domain.TemplateStatus) ([]domain.ComplianceTemplate, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.store.List(ctx, status)
}

// Promote moves a DRAFT template to ACTIVE. The stored template is
// revalidated; any structural issue blocks promotion.
func (s *TemplateService) Promote(ctx context.Context, id string) (*domain.ComplianceTemplate, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status != domain.StatusDraft {
		return nil, transitionError(t.Status, domain.StatusActive)
	}
	if err := s.normalizer.Validate(*t).Err(); err != nil {
		return nil, err
	}
	return s.transition(ctx, t, domain.StatusActive)
}

// Archive retires a DRAFT or ACTIVE template.
func (s *TemplateService) Archive(ctx context.Context, id string) (*domain.ComplianceTemplate, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusArchived {
		return nil, transitionError(t.Status, domain.StatusArchived)
	}
	return s.transition(ctx, t, domain.StatusArchived)
}

func (s *TemplateService) transition(
	ctx context.Context,
	t *domain.ComplianceTemplate,
	to domain.TemplateStatus,
) (*domain.ComplianceTemplate, error) {
	from := t.Status
	t.Status = to
	t.UpdatedAt = s.now()
	if err := s.store.Save(ctx, *t); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	logger.Info("Template %s: %s -> %s", t.ID, from, to)
	return t, nil
}

// persist assigns an id and timestamps, then stores the template.
func (s *TemplateService) persist(ctx context.Context, t, existing *domain.ComplianceTemplate) error {
	now := s.now()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	switch {
	case existing != nil && !existing.CreatedAt.IsZero():
		t.CreatedAt = existing.CreatedAt
	case t.CreatedAt.IsZero():
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if err := s.store.Save(ctx, *t); err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func transitionError(from, to domain.TemplateStatus) error {
	return fmt.Errorf("%w: %w: %s -> %s", domain.ErrTemplateNotPromotable, domain.ErrInvalidInput, from, to)
}
