package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

var (
	extractFormat string
	extractJSON   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract the section tree of a policy document",
	Long: `Parses a policy document and prints its recovered section tree.

Supported formats: txt, md, json, html, docx, pdf, csv, xlsx, pptx.
The format is taken from the file extension unless --format is given.
PDF extraction needs pdftotext on the PATH.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "", "declared format, overriding the file extension")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "output the extracted content as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	content, err := extractFile(cmd, args[0], extractFormat)
	if err != nil {
		return err
	}

	if extractJSON {
		return writeJSON(cmd.OutOrStdout(), content)
	}
	renderSections(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), content)
	return nil
}

// extractFile reads and extracts a document from disk.
func extractFile(cmd *cobra.Command, path, format string) (*domain.ExtractedContent, error) {
	if extractionService == nil {
		return nil, errors.New("extraction service not configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Flags accept extensions as well as format names.
	var declared domain.Format
	if format != "" {
		declared = domain.FormatFromFilename("document." + format)
	}

	content, err := extractionService.Extract(cmd.Context(), &domain.RawDocument{
		Name:    filepath.Base(path),
		Format:  declared,
		Content: data,
	})
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}
	return content, nil
}
