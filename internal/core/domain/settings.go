package domain

import (
	"math"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies the service behind the external classifier.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderOllama is a local Ollama instance exposing the OpenAI-compatible API.
	AIProviderOllama AIProvider = "ollama"
)

// AllLLMProviders returns every supported classifier provider.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOpenAI, AIProviderOllama}
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	default:
		return unknownDescription
	}
}

// IsLocal returns true for providers that run on the user's machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// DefaultLLMModels returns the model used when none is configured.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOpenAI: "gpt-4o-mini",
		AIProviderOllama: "llama3.1",
	}
}

// DefaultOllamaBaseURL is the OpenAI-compatible endpoint of a local Ollama.
const DefaultOllamaBaseURL = "http://localhost:11434/v1"

// LLMSettings holds classifier provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AuditSettings configures template generation and audit orchestration.
type AuditSettings struct {
	// Concurrency is the maximum number of in-flight category judgments per template.
	Concurrency int

	// RequestsPerSecond is the sustained classifier call rate.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// JudgmentTimeout bounds a single classifier call.
	JudgmentTimeout time.Duration

	// MaxRetries is the number of retries after a failed classifier call.
	MaxRetries int

	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration

	// ValidationPenalty is subtracted from confidence when validation found issues.
	ValidationPenalty float64

	// WeightEpsilon is the tolerance for weight sums.
	WeightEpsilon float64

	// EvidencePerCategory is the number of transcript excerpts sent per category.
	EvidencePerCategory int

	// DigestMaxChars caps the transcript digest sent to the classifier.
	DigestMaxChars int

	// RedactTranscripts masks phone numbers and emails before judgment.
	RedactTranscripts bool

	// LLM holds classifier provider settings.
	LLM LLMSettings
}

// Default audit settings.
const (
	DefaultConcurrency         = 3
	DefaultRequestsPerSecond   = 2.0
	DefaultBurst               = 4
	DefaultJudgmentTimeout     = 60 * time.Second
	DefaultMaxRetries          = 2
	DefaultRetryBackoff        = 2 * time.Second
	DefaultValidationPenalty   = 0.10
	DefaultWeightEpsilon       = 0.01
	DefaultEvidencePerCategory = 5
	DefaultDigestMaxChars      = 12000
)

// DefaultTemplateConfidence applies to template files that carry no
// confidence field. An explicit 0 is kept.
const DefaultTemplateConfidence = 1.0

// DefaultAuditSettings returns settings with sensible defaults.
// The classifier is left unconfigured.
func DefaultAuditSettings() AuditSettings {
	return AuditSettings{
		Concurrency:         DefaultConcurrency,
		RequestsPerSecond:   DefaultRequestsPerSecond,
		Burst:               DefaultBurst,
		JudgmentTimeout:     DefaultJudgmentTimeout,
		MaxRetries:          DefaultMaxRetries,
		RetryBackoff:        DefaultRetryBackoff,
		ValidationPenalty:   DefaultValidationPenalty,
		WeightEpsilon:       DefaultWeightEpsilon,
		EvidencePerCategory: DefaultEvidencePerCategory,
		DigestMaxChars:      DefaultDigestMaxChars,
	}
}

// WithDefaults fills zero values with defaults.
func (s AuditSettings) WithDefaults() AuditSettings {
	d := DefaultAuditSettings()
	if s.Concurrency <= 0 {
		s.Concurrency = d.Concurrency
	}
	if s.RequestsPerSecond <= 0 {
		s.RequestsPerSecond = d.RequestsPerSecond
	}
	if s.Burst <= 0 {
		s.Burst = d.Burst
	}
	if s.JudgmentTimeout <= 0 {
		s.JudgmentTimeout = d.JudgmentTimeout
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.RetryBackoff < 0 {
		s.RetryBackoff = 0
	}
	if s.ValidationPenalty < 0 || math.IsNaN(s.ValidationPenalty) {
		s.ValidationPenalty = d.ValidationPenalty
	}
	if s.WeightEpsilon <= 0 {
		s.WeightEpsilon = d.WeightEpsilon
	}
	if s.EvidencePerCategory <= 0 {
		s.EvidencePerCategory = d.EvidencePerCategory
	}
	if s.DigestMaxChars <= 0 {
		s.DigestMaxChars = d.DigestMaxChars
	}
	return s
}
