package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the classifier provider and audit orchestration.

Use subcommands to configure specific settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure the classifier provider",
	Long: `Configure the LLM used to generate templates and judge transcripts.

Available providers:
  openai - OpenAI cloud API (requires an API key)
  ollama - Local Ollama through its OpenAI-compatible endpoint`,
	RunE: runSettingsLLM,
}

var settingsAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Tune audit orchestration",
	Long: `Set how audits call the classifier. Only the flags given are changed.

Examples:
  auditkit settings audit --concurrency 4 --rps 1.5
  auditkit settings audit --timeout 90s --retries 3
  auditkit settings audit --redact`,
	RunE: runSettingsAudit,
}

func init() {
	flags := settingsAuditCmd.Flags()
	flags.Int("concurrency", domain.DefaultConcurrency, "in-flight category judgments per template")
	flags.Float64("rps", domain.DefaultRequestsPerSecond, "sustained classifier requests per second")
	flags.Int("burst", domain.DefaultBurst, "classifier request burst size")
	flags.Duration("timeout", domain.DefaultJudgmentTimeout, "timeout for one classifier call")
	flags.Int("retries", domain.DefaultMaxRetries, "retries after a failed classifier call")
	flags.Int("evidence", domain.DefaultEvidencePerCategory, "transcript excerpts sent per category")
	flags.Bool("redact", false, "mask phone numbers and emails before judgment")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsAuditCmd)
	rootCmd.AddCommand(settingsCmd)
}

func requireSettingsService() error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return nil
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Audit]")
	cmd.Printf("  Concurrency: %d\n", settings.Concurrency)
	cmd.Printf("  Rate: %.2f req/s (burst %d)\n", settings.RequestsPerSecond, settings.Burst)
	cmd.Printf("  Judgment timeout: %s\n", settings.JudgmentTimeout)
	cmd.Printf("  Retries: %d (backoff %s)\n", settings.MaxRetries, settings.RetryBackoff)
	cmd.Printf("  Evidence per category: %d\n", settings.EvidencePerCategory)
	cmd.Printf("  Redact transcripts: %t\n", settings.RedactTranscripts)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'auditkit settings llm' to configure a classifier.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	if classifierCheck != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
		cmd.Print("Validating configuration... ")
		if err := classifierCheck(cmd.Context(), settings.LLM); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

func runSettingsAudit(cmd *cobra.Command, _ []string) error {
	if err := requireSettingsService(); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if err := applyAuditFlags(cmd, settings); err != nil {
		return err
	}
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Audit settings saved: concurrency %d, %.2f req/s (burst %d), timeout %s, %d retries, redact %t\n",
		settings.Concurrency, settings.RequestsPerSecond, settings.Burst,
		settings.JudgmentTimeout, settings.MaxRetries, settings.RedactTranscripts)
	return nil
}

// applyAuditFlags copies explicitly set flags onto settings.
func applyAuditFlags(cmd *cobra.Command, settings *domain.AuditSettings) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("concurrency") {
		if settings.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
		if settings.Concurrency < 1 {
			return fmt.Errorf("%w: concurrency must be at least 1", domain.ErrInvalidInput)
		}
	}
	if flags.Changed("rps") {
		if settings.RequestsPerSecond, err = flags.GetFloat64("rps"); err != nil {
			return err
		}
		if settings.RequestsPerSecond <= 0 {
			return fmt.Errorf("%w: rps must be positive", domain.ErrInvalidInput)
		}
	}
	if flags.Changed("burst") {
		if settings.Burst, err = flags.GetInt("burst"); err != nil {
			return err
		}
		if settings.Burst < 1 {
			return fmt.Errorf("%w: burst must be at least 1", domain.ErrInvalidInput)
		}
	}
	if flags.Changed("timeout") {
		var timeout time.Duration
		if timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive", domain.ErrInvalidInput)
		}
		settings.JudgmentTimeout = timeout
	}
	if flags.Changed("retries") {
		if settings.MaxRetries, err = flags.GetInt("retries"); err != nil {
			return err
		}
		if settings.MaxRetries < 0 {
			return fmt.Errorf("%w: retries cannot be negative", domain.ErrInvalidInput)
		}
	}
	if flags.Changed("evidence") {
		if settings.EvidencePerCategory, err = flags.GetInt("evidence"); err != nil {
			return err
		}
	}
	if flags.Changed("redact") {
		if settings.RedactTranscripts, err = flags.GetBool("redact"); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal, otherwise a plain line.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
