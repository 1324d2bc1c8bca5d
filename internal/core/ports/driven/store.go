package driven

import (
	"context"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// TemplateStore persists compliance templates.
type TemplateStore interface {
	// Save stores or updates a template.
	Save(ctx context.Context, template domain.ComplianceTemplate) error

	// Get retrieves a template by ID.
	// Returns domain.ErrNotFound if the template does not exist.
	Get(ctx context.Context, id string) (*domain.ComplianceTemplate, error)

	// List returns all templates, optionally filtered by status.
	// An empty status returns every template.
	List(ctx context.Context, status domain.TemplateStatus) ([]domain.ComplianceTemplate, error)
}

// AuditStore persists audit results.
type AuditStore interface {
	// SaveAudit stores an audit result.
	SaveAudit(ctx context.Context, audit domain.AuditResult) error

	// GetAudit retrieves an audit result by ID.
	// Returns domain.ErrNotFound if the audit does not exist.
	GetAudit(ctx context.Context, id string) (*domain.AuditResult, error)

	// ListByIncident returns all audits recorded for an incident.
	ListByIncident(ctx context.Context, incidentID string) ([]domain.AuditResult, error)

	// SaveCombined stores the combined result of an incident.
	SaveCombined(ctx context.Context, combined domain.CombinedResult) error

	// GetCombined retrieves the combined result of an incident.
	// Returns domain.ErrNotFound if none was recorded.
	GetCombined(ctx context.Context, incidentID string) (*domain.CombinedResult, error)
}
