package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
	"github.com/custodia-labs/auditkit/internal/logger"
)

// Ensure ExtractionService implements the interface.
var _ driving.ExtractionService = (*ExtractionService)(nil)

// ExtractionService dispatches uploaded documents to format extractors.
type ExtractionService struct {
	registry driven.ExtractorRegistry
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(registry driven.ExtractorRegistry) *ExtractionService {
	return &ExtractionService{registry: registry}
}

// Extract parses a raw document into a section tree.
func (s *ExtractionService) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: no document", domain.ErrInvalidInput)
	}
	if s.registry == nil {
		return nil, &domain.UnsupportedFormatError{Format: raw.DeclaredFormat()}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defer logger.Timed("Extract %s as %s (%d bytes)", raw.Name, raw.DeclaredFormat(), len(raw.Content))()

	content, err := s.registry.Extract(ctx, raw)
	if err != nil {
		logger.Debug("Extraction of %s failed: %v", raw.Name, err)
		return nil, err
	}

	logger.Debug("Extracted %s: %d sections, %d characters",
		raw.Name, content.Metadata.SectionCount, content.Metadata.CharacterCount)
	return content, nil
}

// SupportedFormats returns every format the registry can extract.
func (s *ExtractionService) SupportedFormats() []domain.Format {
	if s.registry == nil {
		return nil
	}
	return s.registry.SupportedFormats()
}
