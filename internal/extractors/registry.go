package extractors

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
	"github.com/custodia-labs/auditkit/internal/extractors/docx"
	"github.com/custodia-labs/auditkit/internal/extractors/html"
	"github.com/custodia-labs/auditkit/internal/extractors/markdown"
	"github.com/custodia-labs/auditkit/internal/extractors/pdf"
	"github.com/custodia-labs/auditkit/internal/extractors/plaintext"
	"github.com/custodia-labs/auditkit/internal/extractors/pptx"
	"github.com/custodia-labs/auditkit/internal/extractors/spreadsheet"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps declared formats to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[domain.Format]driven.Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[domain.Format]driven.Extractor),
	}
}

// Option configures the default registry.
type Option func(*options)

type options struct {
	pdfRunner pdf.CommandRunner
}

// WithPDFRunner replaces the pdftotext command runner.
func WithPDFRunner(runner pdf.CommandRunner) Option {
	return func(o *options) {
		o.pdfRunner = runner
	}
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry(opts ...Option) *Registry {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	pdfExtractor := pdf.New()
	if o.pdfRunner != nil {
		pdfExtractor = pdf.NewWithRunner(o.pdfRunner)
	}

	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdfExtractor)
	r.Register(spreadsheet.NewCSV())
	r.Register(spreadsheet.NewXLSX())
	r.Register(pptx.New())
	return r
}

// Register adds an extractor for every format it declares. A later
// registration for the same format replaces the earlier one.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range extractor.Formats() {
		r.extractors[f] = extractor
	}
}

// Get returns the extractor for a format.
func (r *Registry) Get(format domain.Format) (driven.Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[format]
	return e, ok
}

// Extract dispatches raw to the extractor for its declared format.
func (r *Registry) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedContent, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	format := raw.DeclaredFormat()
	extractor, ok := r.Get(format)
	if !ok {
		return nil, &domain.UnsupportedFormatError{Format: format}
	}
	return extractor.Extract(ctx, raw)
}

// SupportedFormats returns the registered formats in sorted order.
func (r *Registry) SupportedFormats() []domain.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	formats := make([]domain.Format, 0, len(r.extractors))
	for f := range r.extractors {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}
