package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyConcurrency       = "audit.concurrency"
	keyRequestsPerSecond = "audit.requests_per_second"
	keyBurst             = "audit.burst"
	keyJudgmentTimeout   = "audit.judgment_timeout"
	keyMaxRetries        = "audit.max_retries"
	keyRetryBackoff      = "audit.retry_backoff"
	keyValidationPenalty = "audit.validation_penalty"
	keyWeightEpsilon     = "audit.weight_epsilon"
	keyEvidence          = "audit.evidence_per_category"
	keyDigestMaxChars    = "audit.digest_max_chars"
	keyRedact            = "audit.redact_transcripts"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
)

// SettingsService maps flat configuration keys onto domain.AuditSettings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current audit settings. Missing or invalid values fall back
// to defaults.
func (s *SettingsService) Get() (*domain.AuditSettings, error) {
	d := domain.DefaultAuditSettings()

	settings := domain.AuditSettings{
		Concurrency:         s.getInt(keyConcurrency, d.Concurrency),
		RequestsPerSecond:   s.getFloat(keyRequestsPerSecond, d.RequestsPerSecond),
		Burst:               s.getInt(keyBurst, d.Burst),
		JudgmentTimeout:     s.getDuration(keyJudgmentTimeout, d.JudgmentTimeout),
		MaxRetries:          d.MaxRetries,
		RetryBackoff:        s.getDuration(keyRetryBackoff, d.RetryBackoff),
		ValidationPenalty:   d.ValidationPenalty,
		WeightEpsilon:       s.getFloat(keyWeightEpsilon, d.WeightEpsilon),
		EvidencePerCategory: s.getInt(keyEvidence, d.EvidencePerCategory),
		DigestMaxChars:      s.getInt(keyDigestMaxChars, d.DigestMaxChars),
		RedactTranscripts:   s.getBool(keyRedact, d.RedactTranscripts),
		LLM: domain.LLMSettings{
			Provider: s.getProvider(d.LLM.Provider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty means the provider's public endpoint
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
	}
	// Zero retries and a zero penalty are valid choices, so presence decides.
	if _, ok := s.configStore.Get(keyMaxRetries); ok {
		settings.MaxRetries = s.configStore.GetInt(keyMaxRetries)
	}
	if _, ok := s.configStore.Get(keyValidationPenalty); ok {
		settings.ValidationPenalty = s.configStore.GetFloat(keyValidationPenalty)
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	settings = settings.WithDefaults()
	return &settings, nil
}

// Save persists audit settings.
func (s *SettingsService) Save(settings *domain.AuditSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyConcurrency, settings.Concurrency},
		{keyRequestsPerSecond, settings.RequestsPerSecond},
		{keyBurst, settings.Burst},
		{keyJudgmentTimeout, settings.JudgmentTimeout.String()},
		{keyMaxRetries, settings.MaxRetries},
		{keyRetryBackoff, settings.RetryBackoff.String()},
		{keyValidationPenalty, settings.ValidationPenalty},
		{keyWeightEpsilon, settings.WeightEpsilon},
		{keyEvidence, settings.EvidencePerCategory},
		{keyDigestMaxChars, settings.DigestMaxChars},
		{keyRedact, settings.RedactTranscripts},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}
	return nil
}

// SetLLMProvider configures the classifier provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown LLM provider %q", domain.ErrInvalidInput, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = domain.DefaultOllamaBaseURL
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that a classifier is configured.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: set llm.provider (and llm.api_key for openai) in %s",
			domain.ErrClassifierUnavailable, s.configStore.Path())
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetFloat(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(keyLLMProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
