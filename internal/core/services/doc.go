// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Validation, normalization and scoring are pure functions over domain
// types. AuditService fans classifier calls out per category with
// errgroup and never lets one failure abort an audit.
package services
