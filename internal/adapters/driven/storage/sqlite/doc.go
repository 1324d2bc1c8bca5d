// Package sqlite provides a SQLite-based implementation of the template and
// audit stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Both stores share one database connection:
//
//   - TemplateStore: compliance templates and their lifecycle status
//   - AuditStore: per-template audit results and combined incident results
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Nested structures (categories, category results)
// are stored as JSON columns.
//
// # Data Location
//
// By default, the database is stored at ~/.auditkit/data/auditkit.db
package sqlite
