package driving

import "github.com/custodia-labs/auditkit/internal/core/domain"

// SettingsService reads and updates persisted audit settings.
type SettingsService interface {
	// Get returns the stored settings with defaults filled in.
	Get() (*domain.AuditSettings, error)

	// Save persists settings.
	Save(settings *domain.AuditSettings) error

	// SetLLMProvider configures the classifier provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the stored settings are usable for live audits.
	Validate() error
}
