package mcp

import (
	"github.com/custodia-labs/auditkit/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Extraction turns uploaded documents into section trees.
	Extraction driving.ExtractionService

	// Templates validates, normalizes and stores compliance templates.
	Templates driving.TemplateService

	// Audits scores judgments and combines audits.
	Audits driving.AuditService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	switch {
	case p.Extraction == nil:
		return ErrMissingExtractionService
	case p.Templates == nil:
		return ErrMissingTemplateService
	case p.Audits == nil:
		return ErrMissingAuditService
	}
	return nil
}
