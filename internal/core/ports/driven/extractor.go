package driven

import (
	"context"

	"github.com/custodia-labs/auditkit/internal/core/domain"
)

// Extractor recovers a section tree from one family of document formats.
// Extractors are pure: calls for independent documents may run concurrently.
type Extractor interface {
	// Formats returns the declared formats this extractor handles.
	Formats() []domain.Format

	// Extract parses raw bytes into structured content.
	// Unparsable bytes yield a *domain.CorruptedInputError, never empty content.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error)
}

// ExtractorRegistry dispatches a raw document to the extractor for its format.
type ExtractorRegistry interface {
	// Extract transforms a raw document using the extractor registered for
	// its declared format. Unknown formats yield *domain.UnsupportedFormatError.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error)

	// Register adds an extractor for every format it declares.
	Register(extractor Extractor)

	// SupportedFormats returns all formats that can be extracted.
	SupportedFormats() []domain.Format
}
