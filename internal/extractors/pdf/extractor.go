// Package pdf extracts sections from PDF documents using pdftotext.
//
// Text is produced by the poppler pdftotext tool in layout mode and then run
// through the flowed text heuristics. The command runner is injectable so
// extraction can be tested without poppler installed.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/outline"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

const toolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler to extract PDF documents")

// CommandRunner runs an external command with stdin and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}

// Extractor handles PDF documents.
type Extractor struct {
	runner CommandRunner
}

// New creates a PDF extractor that shells out to pdftotext.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Formats returns the formats this extractor handles.
func (e *Extractor) Formats() []domain.Format {
	return []domain.Format{domain.FormatPDF}
}

// CheckAvailable returns ErrPDFToolNotFound when pdftotext is not on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return `pdftotext is part of poppler:
  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils`
}

// Extract converts the PDF to layout text and builds the section tree.
// Pages are separated by form feeds in pdftotext output; each form feed is
// replaced by a newline so offsets stay aligned with the returned text.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !bytes.HasPrefix(bytes.TrimLeft(raw.Content, " \t\r\n"), []byte("%PDF")) {
		return nil, &domain.CorruptedInputError{Format: domain.FormatPDF, Err: errors.New("missing %PDF header")}
	}

	out, err := e.runner.Run(ctx, raw.Content, toolName, "-layout", "-enc", "UTF-8", "-", "-")
	if err != nil {
		if errors.Is(err, ErrPDFToolNotFound) {
			return nil, err
		}
		return nil, &domain.CorruptedInputError{Format: domain.FormatPDF, Err: fmt.Errorf("pdftotext failed: %w", err)}
	}

	text := outline.Decode(out)
	pages := countPages(text)
	text = strings.ReplaceAll(text, "\f", "\n")

	name := outline.TitleFromName(raw.Name)
	sections := outline.Build(outline.SplitLines(text), text, outline.WithRootTitle(name))
	title := outline.ChooseTitle(extractTitle(text), name)

	return outline.NewContent(domain.FormatPDF, title, text, sections, pages), nil
}

// countPages counts form-feed separated pages, ignoring a trailing empty page.
func countPages(text string) int {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	if len(pages) == 0 {
		return 1
	}
	return len(pages)
}

// extractTitle returns the first short non-empty line.
func extractTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= 200 {
			return line
		}
	}
	return ""
}
