// Package cli provides the auditkit command line interface.
package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
	"github.com/custodia-labs/auditkit/internal/logger"
)

// Store backends selectable with --store.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// version is set at build time via -ldflags.
var version = "dev"

// Services wired by the entry point.
var (
	extractionService driving.ExtractionService
	templateService   driving.TemplateService
	auditService      driving.AuditService
	settingsService   driving.SettingsService
	metricsHandler    http.Handler
	classifierCheck   ClassifierCheck
)

// ClassifierCheck verifies that a classifier configuration can reach its service.
type ClassifierCheck func(ctx context.Context, settings domain.LLMSettings) error

// Services bundles the driving ports the commands use.
type Services struct {
	Extraction driving.ExtractionService
	Templates  driving.TemplateService
	Audits     driving.AuditService
	Settings   driving.SettingsService

	// Metrics serves Prometheus metrics for `audit run --metrics-addr`. Optional.
	Metrics http.Handler

	// CheckClassifier is called by `settings llm` after saving. Optional.
	CheckClassifier ClassifierCheck
}

// Options holds the persistent root flags.
type Options struct {
	Verbose   bool
	ConfigDir string
	Store     string
	DataDir   string
}

// Bootstrap builds services from the parsed root flags. The returned
// cleanup func is called after the command finishes.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	rootOptions = Options{Store: StoreSQLite}
	bootstrap   Bootstrap
	cleanup     func()
)

var rootCmd = &cobra.Command{
	Use:   "auditkit",
	Short: "Policy-driven compliance audits of incident radio traffic",
	Long: `auditkit turns radio communication policies into weighted compliance
templates and scores incident transcripts against them.

Typical flow:
  auditkit extract policy.docx
  auditkit template generate policy.docx
  auditkit template promote <template-id>
  auditkit audit run transcript.json --incident 2024-0193`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&rootOptions.Verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVar(&rootOptions.ConfigDir, "config-dir", "", "configuration directory (default ~/.auditkit)")
	flags.StringVar(&rootOptions.Store, "store", StoreSQLite, "storage backend: memory or sqlite")
	flags.StringVar(&rootOptions.DataDir, "data-dir", "", "data directory for the sqlite store (default ~/.auditkit/data)")
}

// SetServices sets the services used by all commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	extractionService = s.Extraction
	templateService = s.Templates
	auditService = s.Audits
	settingsService = s.Settings
	metricsHandler = s.Metrics
	classifierCheck = s.CheckClassifier
}

// SetBootstrap sets the function that builds services once flags are parsed.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer teardown(nil, nil) //nolint:errcheck
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(rootOptions.Verbose)

	if rootOptions.Store != StoreMemory && rootOptions.Store != StoreSQLite {
		return fmt.Errorf("unknown store %q: use %s or %s", rootOptions.Store, StoreMemory, StoreSQLite)
	}
	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	services, done, err := bootstrap(ctx, rootOptions)
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = done
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	return nil
}
