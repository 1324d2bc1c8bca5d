// Package domain defines the core business entities for auditkit.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ExtractedContent, DocumentSection: structure recovered from a document
//   - ComplianceTemplate, ComplianceCategory, ComplianceCriterion: weighted audit templates
//   - CriterionResult, Verdict: judgments supplied by the external classifier
//   - CategoryResult, AuditResult, CombinedResult: derived scores
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
