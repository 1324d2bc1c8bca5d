package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/auditkit/internal/core/domain"
	"github.com/custodia-labs/auditkit/internal/core/ports/driven"
)

// Ensure TemplateStore implements the interface.
var _ driven.TemplateStore = (*TemplateStore)(nil)

// TemplateStore is an in-memory implementation of driven.TemplateStore.
// Templates are deep-copied on the way in and out.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]domain.ComplianceTemplate
}

// NewTemplateStore creates a new in-memory template store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]domain.ComplianceTemplate),
	}
}

// Save stores or updates a template.
func (s *TemplateStore) Save(_ context.Context, template domain.ComplianceTemplate) error {
	if template.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[template.ID] = template.Clone()
	return nil
}

// Get retrieves a template by ID.
func (s *TemplateStore) Get(_ context.Context, id string) (*domain.ComplianceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := t.Clone()
	return &out, nil
}

// List returns templates ordered by creation time, then ID.
func (s *TemplateStore) List(_ context.Context, status domain.TemplateStatus) ([]domain.ComplianceTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ComplianceTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		if status != "" && t.Status != status {
			continue
		}
		result = append(result, t.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
