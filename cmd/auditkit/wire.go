package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/auditkit/internal/adapters/driven/ai"
	"github.com/custodia-labs/auditkit/internal/adapters/driven/config/file"
	"github.com/custodia-labs/auditkit/internal/adapters/driven/metrics"
	"github.com/custodia-labs/auditkit/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/auditkit/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/auditkit/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/auditkit/internal/adapters/driving/cli"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/core/services"
	"github.com/custodia-labs/auditkit/internal/extractors"
	"github.com/custodia-labs/auditkit/internal/logger"
)

// bootstrap builds every service from the root flags and the config file.
func bootstrap(_ context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("read settings: %w", err)
	}

	prompts, err := file.NewPromptStore(subdir(opts.ConfigDir, "prompts"))
	if err != nil {
		return nil, nil, fmt.Errorf("open prompts: %w", err)
	}

	// A classifier that cannot be built only disables generation and live audits.
	var (
		proposer driven.TemplateProposer
		judge    driven.CriterionJudge
	)
	classifier, err := ai.CreateClassifier(&settings.LLM, prompts)
	switch {
	case err != nil:
		logger.Warn("Classifier disabled: %v", err)
	case classifier != nil:
		logger.Debug("Classifier: %s (%s)", settings.LLM.Provider, classifier.ModelName())
		proposer, judge = classifier, classifier
	}

	templates, audits, closeStore, err := openStores(opts)
	if err != nil {
		return nil, nil, err
	}

	telemetry := metrics.NewPrometheus()
	auditService := services.NewAuditService(templates, audits, judge, ratelimit.FromSettings(*settings), *settings)
	auditService.SetMetrics(telemetry)

	return &cli.Services{
		Extraction:      services.NewExtractionService(extractors.NewDefaultRegistry()),
		Templates:       services.NewTemplateService(templates, proposer, *settings),
		Audits:          auditService,
		Settings:        settingsService,
		Metrics:         telemetry.Handler(),
		CheckClassifier: checkClassifier(prompts),
	}, closeStore, nil
}

// openStores opens the template and audit stores selected with --store.
func openStores(opts cli.Options) (driven.TemplateStore, driven.AuditStore, func(), error) {
	if opts.Store == cli.StoreMemory {
		return memory.NewTemplateStore(), memory.NewAuditStore(), func() {}, nil
	}

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = subdir(opts.ConfigDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	logger.Debug("Store: %s", store.Path())

	closeStore := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store: %v", err)
		}
	}
	return store.TemplateStore(), store.AuditStore(), closeStore, nil
}

// checkClassifier pings the configured service once settings are saved.
func checkClassifier(prompts driven.PromptStore) cli.ClassifierCheck {
	return func(ctx context.Context, settings domain.LLMSettings) error {
		_, err := ai.CreateAndValidateClassifier(ctx, &settings, prompts)
		return err
	}
}

// subdir joins name onto dir. An empty dir keeps each store's own default.
func subdir(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}
