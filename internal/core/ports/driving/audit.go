package driving

import (
	"context"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// AuditService scores incidents against compliance templates.
type AuditService interface {
	// Run judges a transcript against every requested template and combines
	// the results. Classifier failures surface as ERROR verdicts and in
	// AuditReport.Errors; they never abort the whole run.
	// Returns domain.ErrClassifierUnavailable when no judge is configured.
	Run(ctx context.Context, req AuditRequest) (*AuditReport, error)

	// ScoreRecorded scores judgments captured earlier, without calling the classifier.
	ScoreRecorded(ctx context.Context, req RecordedAudit) (*AuditReport, error)

	// Combine averages independent audits of the same incident.
	Combine(audits []domain.AuditResult) domain.CombinedResult

	// GetCombined retrieves the stored combined result of an incident.
	GetCombined(ctx context.Context, incidentID string) (*domain.CombinedResult, error)
}

// AuditRequest describes one live audit.
type AuditRequest struct {
	// IncidentID identifies the incident. Generated when empty.
	IncidentID string

	// Transcript is the incident recording transcript.
	Transcript domain.Transcript

	// TemplateIDs lists the templates to apply. Empty means every ACTIVE template.
	TemplateIDs []string

	// Notes are optional reviewer notes passed to the classifier.
	Notes string
}

// RecordedAudit carries judgments produced outside this process.
type RecordedAudit struct {
	// IncidentID identifies the incident. Generated when empty.
	IncidentID string

	// Template is the template the judgments were made against.
	Template domain.ComplianceTemplate

	// Judgments are the raw classifier outputs, keyed by criterion id.
	Judgments []domain.RawJudgment
}

// AuditReport is the outcome of an audit run.
type AuditReport struct {
	Combined domain.CombinedResult `json:"combined"`

	// Errors holds every non-fatal failure seen during the run.
	Errors []error `json:"-"`
}

// Warnings returns the error messages of the run for display.
func (r *AuditReport) Warnings() []string {
	out := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		out = append(out, err.Error())
	}
	return out
}
