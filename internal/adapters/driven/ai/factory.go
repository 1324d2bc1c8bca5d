// Package ai builds the external classifier from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/auditkit/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateClassifier creates the classifier for the configured provider.
// Returns nil if the provider is not configured.
func CreateClassifier(settings *domain.LLMSettings, prompts driven.PromptStore) (*openai.Classifier, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	cfg := openai.Config{
		APIKey:        settings.APIKey,
		BaseURL:       settings.BaseURL,
		Model:         settings.Model,
		RequireAPIKey: settings.Provider.RequiresAPIKey(),
	}
	switch settings.Provider {
	case domain.AIProviderOpenAI:
	case domain.AIProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = domain.DefaultOllamaBaseURL
		}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultLLMModels()[settings.Provider]
	}

	classifier, err := openai.New(cfg)
	if err != nil {
		return nil, err
	}
	classifier.SetPromptStore(prompts)
	return classifier, nil
}

// CreateAndValidateClassifier creates the classifier and validates connectivity.
// Returns the classifier if successful, or an error with guidance.
func CreateAndValidateClassifier(
	ctx context.Context,
	settings *domain.LLMSettings,
	prompts driven.PromptStore,
) (*openai.Classifier, error) {
	classifier, err := CreateClassifier(settings, prompts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'auditkit settings llm' to fix",
			domain.ErrClassifierUnavailable, err)
	}
	if classifier == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := classifier.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'auditkit settings llm' to fix",
			domain.ErrClassifierUnavailable, err)
	}
	return classifier, nil
}
