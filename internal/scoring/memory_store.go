package scoring

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of Store for demo/test use.
type MemoryStore struct {
	mu          sync.RWMutex
	assessments []*Assessment
}

// NewMemoryStore creates an in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Record(_ context.Context, assessment *Assessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deep-copy parts so callers can't alias stored state.
	parts := make(map[string]float64, len(assessment.Parts))
	for k, v := range assessment.Parts {
		parts[k] = v
	}
	a := *assessment
	a.Parts = parts

	s.assessments = append(s.assessments, &a)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]*Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	// Most recent first, up to limit.
	result := make([]*Assessment, 0, min(limit, len(s.assessments)))
	for i := len(s.assessments) - 1; i >= 0 && len(result) < limit; i-- {
		a := *s.assessments[i]
		result = append(result, &a)
	}
	return result, nil
}
