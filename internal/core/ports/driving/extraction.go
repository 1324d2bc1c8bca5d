package driving

import (
	"context"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// ExtractionService turns uploaded document bytes into a section tree.
type ExtractionService interface {
	// Extract parses a raw document. The declared format selects the reader;
	// when empty it is detected from the file name.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error)

	// SupportedFormats returns every format that can be extracted.
	SupportedFormats() []domain.Format
}
