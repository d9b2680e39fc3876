package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"medease/internal/domain/medicines"
)

type medicineRepo struct {
	mu   sync.RWMutex
	byID map[string]medicines.Medicine
}

func NewMedicineRepo() medicines.Repository {
	return &medicineRepo{
		byID: make(map[string]medicines.Medicine),
	}
}

func (r *medicineRepo) Create(ctx context.Context, m medicines.Medicine) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medicine id required")
	}
	// El store valida el rango por su cuenta, no depende del service.
	if err := medicines.ValidateDateRange(m.StartDate, m.EndDate); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; exists {
		return errors.New("medicine already exists")
	}
	r.byID[m.ID] = m
	return nil
}

func (r *medicineRepo) Update(ctx context.Context, m medicines.Medicine) error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("medicine id required")
	}
	if err := medicines.ValidateDateRange(m.StartDate, m.EndDate); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[m.ID]; !exists {
		return medicines.ErrNotFound
	}
	r.byID[m.ID] = m
	return nil
}

func (r *medicineRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return medicines.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *medicineRepo) GetByID(ctx context.Context, id string) (medicines.Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return medicines.Medicine{}, medicines.ErrNotFound
	}
	return m, nil
}

func (r *medicineRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]medicines.Medicine, error) {
	return r.filter(func(m medicines.Medicine) bool { return m.OwnerUserID == ownerUserID }), nil
}

func (r *medicineRepo) FindByTime(ctx context.Context, hhmm string) ([]medicines.Medicine, error) {
	return r.filter(func(m medicines.Medicine) bool { return m.Time == hhmm }), nil
}

// filter devuelve una copia ordenada por created_at (y id para empates).
func (r *medicineRepo) filter(keep func(medicines.Medicine) bool) []medicines.Medicine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]medicines.Medicine, 0)
	for _, m := range r.byID {
		if keep(m) {
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
