// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Recovers a section tree from one format family
//   - ExtractorRegistry: Selects the extractor for a declared format
//   - TemplateStore: Template persistence
//   - AuditStore: Audit result persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TemplateProposer: Proposes templates from documents. Without it, only hand-authored templates exist.
//   - CriterionJudge: Judges criteria against transcripts. Without it, audits are scored from recorded judgments only.
//   - RateLimiter: Gates classifier calls. Without it, calls are only bounded by concurrency.
//   - PromptStore: Customisable prompts. Without it, built-in prompts are used.
//   - AuditMetrics: Counters and histograms for audit runs. Without it, nothing is recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
