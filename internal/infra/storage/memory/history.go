package memory

import (
	"context"
	"strings"
	"sync"

	"bmrengine/internal/domain/estimates"
)

// HistoryRepository keeps the latest records per subject in save order.
// Older records beyond the retention are dropped; Count still includes them.
type HistoryRepository struct {
	mu        sync.RWMutex
	bySubject map[string][]estimates.Record
	retain    int
	total     int64
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		bySubject: make(map[string][]estimates.Record),
		retain:    estimates.MaxHistoryLimit,
	}
}

func (r *HistoryRepository) Save(ctx context.Context, rec estimates.Record) error {
	subject := strings.TrimSpace(rec.SubjectID)
	if subject == "" {
		return estimates.ErrSubjectRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.bySubject[subject], rec)
	if len(list) > 2*r.retain {
		list = append(list[:0:0], list[len(list)-r.retain:]...)
	}
	r.bySubject[subject] = list
	r.total++
	return nil
}

func (r *HistoryRepository) ListBySubject(ctx context.Context, subjectID string, limit int) ([]estimates.Record, error) {
	subject := strings.TrimSpace(subjectID)
	if subject == "" {
		return nil, estimates.ErrSubjectRequired
	}
	limit = estimates.NormalizeLimit(limit)
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.bySubject[subject]
	if limit > r.retain {
		limit = r.retain
	}
	if len(list) < limit {
		limit = len(list)
	}
	out := make([]estimates.Record, 0, limit)
	for i := len(list) - 1; i >= len(list)-limit; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total, nil
}

var _ estimates.Repository = (*HistoryRepository)(nil)
