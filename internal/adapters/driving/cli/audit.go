package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditkit/internal/codec"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
	"github.com/custodia-labs/auditkit/internal/logger"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Score incidents against compliance templates",
}

var auditRunCmd = &cobra.Command{
	Use:   "run [transcript-file]",
	Short: "Judge a transcript with the classifier and score it",
	Long: `Judges an incident transcript against every ACTIVE template, or the
templates named with --template, and prints the combined score.

Failed classifier calls are recorded as errors and excluded from scoring;
they do not abort the run. Run 'auditkit settings llm' first.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuditRun,
}

var auditScoreCmd = &cobra.Command{
	Use:   "score [template-file] [judgments-file]",
	Short: "Score recorded judgments against a template",
	Long: `Scores judgments captured earlier without calling the classifier.
The judgments file is a list of {criterion_id, verdict} objects, an object
with a "judgments" list, or a scorecard whose categories carry criteria.`,
	Args: cobra.ExactArgs(2),
	RunE: runAuditScore,
}

var auditCombineCmd = &cobra.Command{
	Use:   "combine [audit-file]...",
	Short: "Average independent audits of one incident",
	Long: `Combines audit result files into one incident score. Inconclusive
audits count as 0 so that missing evidence lowers the score.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAuditCombine,
}

var auditShowCmd = &cobra.Command{
	Use:   "show [incident-id]",
	Short: "Show the stored result of an incident",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

var (
	auditIncident    string
	auditTemplates   []string
	auditNotes       string
	auditMetricsAddr string
	auditJSON        bool
)

func init() {
	auditRunCmd.Flags().StringVar(&auditIncident, "incident", "", "incident id (default: generated)")
	auditRunCmd.Flags().StringSliceVarP(&auditTemplates, "template", "t", nil, "template id to apply (repeatable; default: all ACTIVE)")
	auditRunCmd.Flags().StringVar(&auditNotes, "notes", "", "reviewer notes passed to the classifier")
	auditRunCmd.Flags().StringVar(&auditMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	auditRunCmd.Flags().BoolVar(&auditJSON, "json", false, "output the result as JSON")

	auditScoreCmd.Flags().StringVar(&auditIncident, "incident", "", "incident id (default: from the judgments file, or generated)")
	auditScoreCmd.Flags().BoolVar(&auditJSON, "json", false, "output the result as JSON")

	auditCombineCmd.Flags().BoolVar(&auditJSON, "json", false, "output the result as JSON")
	auditShowCmd.Flags().BoolVar(&auditJSON, "json", false, "output the result as JSON")

	auditCmd.AddCommand(auditRunCmd)
	auditCmd.AddCommand(auditScoreCmd)
	auditCmd.AddCommand(auditCombineCmd)
	auditCmd.AddCommand(auditShowCmd)
	rootCmd.AddCommand(auditCmd)
}

func requireAuditService() error {
	if auditService == nil {
		return errors.New("audit service not configured")
	}
	return nil
}

func runAuditRun(cmd *cobra.Command, args []string) error {
	if err := requireAuditService(); err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	tr, err := codec.DecodeTranscript(data, args[0])
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	if auditMetricsAddr != "" {
		stop, err := serveMetrics(auditMetricsAddr)
		if err != nil {
			return err
		}
		defer stop()
	}

	report, err := auditService.Run(cmd.Context(), driving.AuditRequest{
		IncidentID:  auditIncident,
		Transcript:  tr,
		TemplateIDs: auditTemplates,
		Notes:       auditNotes,
	})
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}
	return printReport(cmd, report, templateLabels(cmd.Context(), report.Combined))
}

func runAuditScore(cmd *cobra.Command, args []string) error {
	if err := requireAuditService(); err != nil {
		return err
	}
	t, _, err := readTemplateFile(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	rec, err := codec.DecodeJudgments(data, args[1])
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[1], err)
	}
	if rec.TemplateID != "" && t.ID != "" && rec.TemplateID != t.ID {
		logger.Warn("judgments were recorded against template %s, scoring with %s", rec.TemplateID, t.ID)
	}

	incident := auditIncident
	if incident == "" {
		incident = rec.IncidentID
	}
	report, err := auditService.ScoreRecorded(cmd.Context(), driving.RecordedAudit{
		IncidentID: incident,
		Template:   t,
		Judgments:  rec.Judgments,
	})
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}
	return printReport(cmd, report, map[string]string{t.ID: labelFor(t)})
}

func runAuditCombine(cmd *cobra.Command, args []string) error {
	if err := requireAuditService(); err != nil {
		return err
	}
	audits := make([]domain.AuditResult, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		audit, err := codec.DecodeAudit(data, path)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		audits = append(audits, audit)
	}

	combined := auditService.Combine(audits)
	if auditJSON {
		return writeJSON(cmd.OutOrStdout(), combined)
	}
	renderCombined(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), combined, nil, nil)
	return nil
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	if err := requireAuditService(); err != nil {
		return err
	}
	combined, err := auditService.GetCombined(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no audit stored for incident %s", args[0])
		}
		return fmt.Errorf("failed to get audit: %w", err)
	}
	if auditJSON {
		return writeJSON(cmd.OutOrStdout(), combined)
	}
	renderCombined(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), *combined,
		templateLabels(cmd.Context(), *combined), nil)
	return nil
}

func printReport(cmd *cobra.Command, report *driving.AuditReport, labels map[string]string) error {
	if auditJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			Combined domain.CombinedResult `json:"combined"`
			Warnings []string             `json:"warnings,omitempty"`
		}{report.Combined, report.Warnings()})
	}
	renderCombined(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), report.Combined, labels, report.Warnings())
	return nil
}

// templateLabels looks up template names for display. Missing templates
// fall back to their id.
func templateLabels(ctx context.Context, combined domain.CombinedResult) map[string]string {
	labels := make(map[string]string, len(combined.PerTemplate))
	if templateService == nil {
		return labels
	}
	for _, audit := range combined.PerTemplate {
		t, err := templateService.Get(ctx, audit.TemplateID)
		if err != nil {
			logger.Debug("no template for %s: %v", audit.TemplateID, err)
			continue
		}
		labels[audit.TemplateID] = labelFor(*t)
	}
	return labels
}

func labelFor(t domain.ComplianceTemplate) string {
	if t.Name == "" {
		return t.ID
	}
	return t.Name
}

// serveMetrics exposes the metrics handler until the returned func is called.
func serveMetrics(addr string) (func(), error) {
	if metricsHandler == nil {
		return nil, errors.New("metrics not configured")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server: %v", err)
		}
	}()
	logger.Info("metrics on http://%s/metrics", ln.Addr())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
