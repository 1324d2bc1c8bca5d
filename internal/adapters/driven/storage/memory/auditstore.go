package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// Ensure AuditStore implements the interface.
var _ driven.AuditStore = (*AuditStore)(nil)

// AuditStore is an in-memory implementation of driven.AuditStore.
type AuditStore struct {
	mu       sync.RWMutex
	audits   map[string]domain.AuditResult
	combined map[string]domain.CombinedResult
}

// NewAuditStore creates a new in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{
		audits:   make(map[string]domain.AuditResult),
		combined: make(map[string]domain.CombinedResult),
	}
}

// SaveAudit stores an audit result.
func (s *AuditStore) SaveAudit(_ context.Context, audit domain.AuditResult) error {
	if audit.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits[audit.ID] = audit
	return nil
}

// GetAudit retrieves an audit result by ID.
func (s *AuditStore) GetAudit(_ context.Context, id string) (*domain.AuditResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audit, ok := s.audits[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &audit, nil
}

// ListByIncident returns the audits of an incident, oldest first.
func (s *AuditStore) ListByIncident(_ context.Context, incidentID string) ([]domain.AuditResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.AuditResult
	for _, a := range s.audits {
		if a.IncidentID == incidentID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// SaveCombined stores the combined result of an incident, replacing any earlier one.
func (s *AuditStore) SaveCombined(_ context.Context, combined domain.CombinedResult) error {
	if combined.IncidentID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.combined[combined.IncidentID] = combined
	return nil
}

// GetCombined retrieves the combined result of an incident.
func (s *AuditStore) GetCombined(_ context.Context, incidentID string) (*domain.CombinedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.combined[incidentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}
