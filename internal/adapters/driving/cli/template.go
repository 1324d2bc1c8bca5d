package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditkit/internal/codec"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage compliance templates",
	Long: `Validate, normalize, generate and manage compliance templates.

Template files are JSON or YAML. validate, normalize and watch work on files
and need no store; the other subcommands use the configured store.`,
}

var templateValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Report every structural issue in a template file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateValidate,
}

var templateNormalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Rescale template weights so they sum to 1",
	Long: `Zeroes negative or non-finite weights and rescales the rest by their sum
so category weights and the
criterion weights of every category each sum to 1. Prints every adjusted
weight and writes the normalized template to --out, or stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateNormalize,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show [template-id]",
	Short: "Print a stored template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Store a hand-edited template",
	Long: `Validates, normalizes and stores a template file. An existing template
with the same id is replaced; its status is kept unless the file sets one.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateImport,
}

var templatePromoteCmd = &cobra.Command{
	Use:   "promote [template-id]",
	Short: "Approve a draft template for audits",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatePromote,
}

var templateArchiveCmd = &cobra.Command{
	Use:   "archive [template-id]",
	Short: "Retire a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateArchive,
}

var templateGenerateCmd = &cobra.Command{
	Use:   "generate [policy-file]",
	Short: "Draft a template from a policy document",
	Long: `Extracts the policy document and asks the configured classifier to
propose categories and criteria. The draft is validated, normalized and
stored with status DRAFT. Run 'auditkit settings llm' first.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateGenerate,
}

var (
	templateOut            string
	templateJSON           bool
	templateStatus         string
	templateFormat         string
	templateShowFormat     string
	templateInstructions   string
	templateName           string
	templateBaseConfidence float64
)

func init() {
	templateValidateCmd.Flags().BoolVar(&templateJSON, "json", false, "output the validation result as JSON")
	templateNormalizeCmd.Flags().StringVarP(&templateOut, "out", "o", "", "write the normalized template to this file")
	templateListCmd.Flags().StringVarP(&templateStatus, "status", "s", "", "filter by status (DRAFT, ACTIVE, ARCHIVED)")
	templateShowCmd.Flags().StringVar(&templateShowFormat, "format", "yaml", "output encoding: yaml or json")
	templateGenerateCmd.Flags().StringVarP(&templateInstructions, "instructions", "i", "", "extra instructions for the classifier")
	templateGenerateCmd.Flags().StringVarP(&templateName, "name", "n", "", "template name (default: document title)")
	templateGenerateCmd.Flags().Float64Var(&templateBaseConfidence, "base-confidence", 0, "override the classifier's confidence")
	templateGenerateCmd.Flags().StringVarP(&templateFormat, "format", "f", "", "declared document format")

	templateCmd.AddCommand(templateValidateCmd)
	templateCmd.AddCommand(templateNormalizeCmd)
	templateCmd.AddCommand(templateWatchCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateImportCmd)
	templateCmd.AddCommand(templatePromoteCmd)
	templateCmd.AddCommand(templateArchiveCmd)
	templateCmd.AddCommand(templateGenerateCmd)
	rootCmd.AddCommand(templateCmd)
}

func requireTemplateService() error {
	if templateService == nil {
		return errors.New("template service not configured")
	}
	return nil
}

// readTemplateFile decodes a JSON or YAML template from disk.
func readTemplateFile(path string) (domain.ComplianceTemplate, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ComplianceTemplate{}, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := codec.DecodeTemplate(data, path)
	if err != nil {
		return domain.ComplianceTemplate{}, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return t, data, nil
}

func runTemplateValidate(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	t, _, err := readTemplateFile(args[0])
	if err != nil {
		return err
	}

	result := templateService.Validate(t)
	if templateJSON {
		if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	} else {
		renderValidation(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), result)
	}
	if !result.Valid {
		return fmt.Errorf("%w: %d issue(s) in %s", domain.ErrStructuralValidation, len(result.Issues), args[0])
	}
	return nil
}

func runTemplateNormalize(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	t, data, err := readTemplateFile(args[0])
	if err != nil {
		return err
	}

	normalized := templateService.Normalize(t)

	// The template goes to stdout when there is no --out, so the report goes to stderr.
	report := cmd.OutOrStdout()
	if templateOut == "" {
		report = cmd.ErrOrStderr()
	}
	renderAdjustments(report, stylesFor(report), normalized.Adjustments)

	enc := codec.EncodingFor(args[0], data)
	if templateOut != "" {
		enc = codec.EncodingFor(templateOut, data)
	}
	encoded, err := codec.EncodeTemplate(normalized.Template, enc)
	if err != nil {
		return err
	}

	if templateOut == "" {
		_, err = cmd.OutOrStdout().Write(encoded)
		return err
	}
	if err := os.WriteFile(templateOut, encoded, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", templateOut, err)
	}
	cmd.Printf("Wrote %s\n", templateOut)
	return nil
}

func runTemplateList(cmd *cobra.Command, _ []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	status := domain.TemplateStatus(strings.ToUpper(templateStatus))
	templates, err := templateService.List(cmd.Context(), status)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	renderTemplates(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), templates)
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	t, err := templateService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}

	enc := codec.YAML
	if strings.EqualFold(templateShowFormat, string(codec.JSON)) {
		enc = codec.JSON
	}
	data, err := codec.EncodeTemplate(*t, enc)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runTemplateImport(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	t, _, err := readTemplateFile(args[0])
	if err != nil {
		return err
	}

	result, err := templateService.Save(cmd.Context(), t)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	printTemplateResult(cmd.OutOrStdout(), result)
	return nil
}

func runTemplatePromote(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	t, err := templateService.Promote(cmd.Context(), args[0])
	if err != nil {
		var structural *domain.StructuralValidationError
		if errors.As(err, &structural) {
			renderValidation(cmd.ErrOrStderr(), stylesFor(cmd.ErrOrStderr()),
				domain.ValidationResult{Issues: structural.Issues})
		}
		return fmt.Errorf("failed to promote template: %w", err)
	}
	cmd.Printf("Template %s is now %s\n", t.ID, t.Status)
	return nil
}

func runTemplateArchive(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	t, err := templateService.Archive(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to archive template: %w", err)
	}
	cmd.Printf("Template %s is now %s\n", t.ID, t.Status)
	return nil
}

func runTemplateGenerate(cmd *cobra.Command, args []string) error {
	if err := requireTemplateService(); err != nil {
		return err
	}
	content, err := extractFile(cmd, args[0], templateFormat)
	if err != nil {
		return err
	}

	opts := driving.GenerateOptions{
		Instructions: templateInstructions,
		Name:         templateName,
	}
	if cmd.Flags().Changed("base-confidence") {
		opts.BaseConfidence = &templateBaseConfidence
	}
	result, err := templateService.Generate(cmd.Context(), content, opts)
	if err != nil {
		return fmt.Errorf("failed to generate template: %w", err)
	}
	printTemplateResult(cmd.OutOrStdout(), result)
	return nil
}

// printTemplateResult reports a stored template with its validation and adjustments.
func printTemplateResult(w io.Writer, result *driving.TemplateResult) {
	st := stylesFor(w)
	t := result.Template
	fmt.Fprintf(w, "%s %s\n", st.Render(st.Title, "Saved template"), t.ID)
	fmt.Fprintf(w, "  Name: %s\n  Status: %s\n  Confidence: %.2f\n  Categories: %d, criteria: %d\n\n",
		t.Name, t.Status, t.Confidence, len(t.Categories), t.CriterionCount())
	renderValidation(w, st, result.Validation)
	renderAdjustments(w, st, result.Adjustments)
}
