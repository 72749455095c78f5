package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"treatment-cases/internal/domain/cases"
)

type caseRepo struct {
	mu   sync.RWMutex
	byID map[string]cases.Case
}

func NewCaseRepo() cases.Repository {
	return &caseRepo{
		byID: make(map[string]cases.Case),
	}
}

func (r *caseRepo) Create(ctx context.Context, c cases.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("case id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("case already exists")
	}
	c.Version = 0
	r.byID[c.ID] = c.Clone()
	return nil
}

// Update compara la versión leída contra la guardada (compare-and-swap bajo el lock).
func (r *caseRepo) Update(ctx context.Context, c cases.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byID[c.ID]
	if !exists {
		return cases.ErrNotFound
	}
	if current.Version != c.Version {
		return cases.ErrConflict
	}

	next := c.Clone()
	next.Version = c.Version + 1
	r.byID[c.ID] = next
	return nil
}

func (r *caseRepo) GetByID(ctx context.Context, id string) (cases.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return cases.Case{}, cases.ErrNotFound
	}
	return c.Clone(), nil
}

func (r *caseRepo) ListByPatient(ctx context.Context, patientID string) ([]cases.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]cases.Case, 0)
	for _, c := range r.byID {
		if c.PatientID == patientID {
			out = append(out, c.Clone())
		}
	}

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
