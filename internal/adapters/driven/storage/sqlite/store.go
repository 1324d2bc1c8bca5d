package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/auditkit/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// Store is a SQLite database that provides the template and audit stores
// through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.auditkit/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".auditkit", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "auditkit.db")

	// WAL lets concurrent template audits write while others read.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TemplateStore returns a TemplateStore interface backed by this store.
func (s *Store) TemplateStore() driven.TemplateStore {
	return &templateStore{store: s}
}

// AuditStore returns an AuditStore interface backed by this store.
func (s *Store) AuditStore() driven.AuditStore {
	return &auditStore{store: s}
}

// migrate runs all pending up migrations in version order and records each
// applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Template Store ====================

// templateStore implements driven.TemplateStore.
type templateStore struct {
	store *Store
}

var _ driven.TemplateStore = (*templateStore)(nil)

// Save stores or updates a template.
func (s *templateStore) Save(ctx context.Context, t domain.ComplianceTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("%w: template id is required", domain.ErrInvalidInput)
	}
	categories, err := json.Marshal(t.Categories)
	if err != nil {
		return fmt.Errorf("marshalling categories: %w", err)
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, source_policy, status, confidence, categories, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source_policy = excluded.source_policy,
			status = excluded.status,
			confidence = excluded.confidence,
			categories = excluded.categories,
			updated_at = excluded.updated_at
	`, t.ID, t.Name, t.SourcePolicy, string(t.Status), t.Confidence, string(categories),
		t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving template: %w", err)
	}
	return nil
}

// Get retrieves a template by ID.
func (s *templateStore) Get(ctx context.Context, id string) (*domain.ComplianceTemplate, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, name, source_policy, status, confidence, categories, created_at, updated_at
		FROM templates WHERE id = ?
	`, id)
	return scanTemplate(row)
}

// List returns templates ordered by creation time, optionally filtered by status.
func (s *templateStore) List(ctx context.Context, status domain.TemplateStatus) ([]domain.ComplianceTemplate, error) {
	query := `
		SELECT id, name, source_policy, status, confidence, categories, created_at, updated_at
		FROM templates`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.ComplianceTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

// ==================== Audit Store ====================

// auditStore implements driven.AuditStore.
type auditStore struct {
	store *Store
}

var _ driven.AuditStore = (*auditStore)(nil)

// SaveAudit stores an audit result.
func (s *auditStore) SaveAudit(ctx context.Context, audit domain.AuditResult) error {
	if audit.ID == "" {
		return fmt.Errorf("%w: audit id is required", domain.ErrInvalidInput)
	}
	results, err := json.Marshal(audit.CategoryResults)
	if err != nil {
		return fmt.Errorf("marshalling category results: %w", err)
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO audits (id, incident_id, template_id, overall_score, inconclusive, confidence, category_results, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			incident_id = excluded.incident_id,
			template_id = excluded.template_id,
			overall_score = excluded.overall_score,
			inconclusive = excluded.inconclusive,
			confidence = excluded.confidence,
			category_results = excluded.category_results
	`, audit.ID, audit.IncidentID, audit.TemplateID, audit.OverallScore, boolToInt(audit.Inconclusive),
		audit.Confidence, string(results), audit.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving audit: %w", err)
	}
	return nil
}

// GetAudit retrieves an audit result by ID.
func (s *auditStore) GetAudit(ctx context.Context, id string) (*domain.AuditResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, incident_id, template_id, overall_score, inconclusive, confidence, category_results, created_at
		FROM audits WHERE id = ?
	`, id)
	return scanAudit(row)
}

// ListByIncident returns all audits recorded for an incident, oldest first.
func (s *auditStore) ListByIncident(ctx context.Context, incidentID string) ([]domain.AuditResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, incident_id, template_id, overall_score, inconclusive, confidence, category_results, created_at
		FROM audits WHERE incident_id = ?
		ORDER BY created_at, template_id
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("querying audits: %w", err)
	}
	defer rows.Close()

	var audits []domain.AuditResult
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *a)
	}
	return audits, rows.Err()
}

// SaveCombined stores the combined result of an incident, replacing any
// earlier one.
func (s *auditStore) SaveCombined(ctx context.Context, combined domain.CombinedResult) error {
	if combined.IncidentID == "" {
		return fmt.Errorf("%w: incident id is required", domain.ErrInvalidInput)
	}
	perTemplate, err := json.Marshal(combined.PerTemplate)
	if err != nil {
		return fmt.Errorf("marshalling per-template results: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO combined_results (incident_id, overall_score, per_template, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(incident_id) DO UPDATE SET
			overall_score = excluded.overall_score,
			per_template = excluded.per_template,
			updated_at = excluded.updated_at
	`, combined.IncidentID, combined.OverallScore, string(perTemplate), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving combined result: %w", err)
	}
	return nil
}

// GetCombined retrieves the combined result of an incident.
func (s *auditStore) GetCombined(ctx context.Context, incidentID string) (*domain.CombinedResult, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT incident_id, overall_score, per_template
		FROM combined_results WHERE incident_id = ?
	`, incidentID)

	var (
		combined    domain.CombinedResult
		perTemplate string
	)
	if err := row.Scan(&combined.IncidentID, &combined.OverallScore, &perTemplate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning combined result: %w", err)
	}
	if err := json.Unmarshal([]byte(perTemplate), &combined.PerTemplate); err != nil {
		return nil, fmt.Errorf("unmarshalling per-template results: %w", err)
	}
	return &combined, nil
}

// ==================== Helpers ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (*domain.ComplianceTemplate, error) {
	var (
		t                    domain.ComplianceTemplate
		status, categories   string
		createdAt, updatedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Name, &t.SourcePolicy, &status, &t.Confidence, &categories,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning template: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &t.Categories); err != nil {
		return nil, fmt.Errorf("unmarshalling categories: %w", err)
	}
	t.Status = domain.TemplateStatus(status)
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}
	return &t, nil
}

func scanAudit(row scanner) (*domain.AuditResult, error) {
	var (
		a            domain.AuditResult
		inconclusive int
		results      string
		createdAt    sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.IncidentID, &a.TemplateID, &a.OverallScore, &inconclusive,
		&a.Confidence, &results, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning audit: %w", err)
	}
	if err := json.Unmarshal([]byte(results), &a.CategoryResults); err != nil {
		return nil, fmt.Errorf("unmarshalling category results: %w", err)
	}
	a.Inconclusive = inconclusive != 0
	if createdAt.Valid {
		a.CreatedAt = createdAt.Time
	}
	return &a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
