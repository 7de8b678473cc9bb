package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"pet-records/internal/domain/care"
)

type careRepo struct {
	mu   sync.RWMutex
	byID map[string]care.Reminder
}

func NewCareRepo() care.Repository {
	return &careRepo{
		byID: make(map[string]care.Reminder),
	}
}

func (r *careRepo) Create(ctx context.Context, rem care.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rem.ID == "" {
		return errors.New("reminder id required")
	}
	if _, exists := r.byID[rem.ID]; exists {
		return errors.New("reminder already exists")
	}
	r.byID[rem.ID] = rem
	return nil
}

func (r *careRepo) Update(ctx context.Context, rem care.Reminder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[rem.ID]
	if !ok || current.Deleted {
		return care.ErrNotFound
	}
	r.byID[rem.ID] = rem
	return nil
}

func (r *careRepo) GetByID(ctx context.Context, id string) (care.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rem, ok := r.byID[id]
	if !ok {
		return care.Reminder{}, care.ErrNotFound
	}
	return rem, nil
}

func (r *careRepo) ListByPet(ctx context.Context, petID string) ([]care.Reminder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]care.Reminder, 0)
	for _, rem := range r.byID {
		if rem.PetID == petID && !rem.Deleted {
			out = append(out, rem)
		}
	}

	// Próximo vencimiento primero
	sort.Slice(out, func(i, j int) bool {
		if out[i].NextDue.Equal(out[j].NextDue) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].NextDue.Before(out[j].NextDue)
	})
	return out, nil
}

func (r *careRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rem, ok := r.byID[id]
	if !ok {
		return care.ErrNotFound
	}
	if rem.Deleted {
		return care.ErrAlreadyDeleted
	}
	rem.Deleted = true
	r.byID[id] = rem
	return nil
}

func (r *careRepo) CountActive(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rem := range r.byID {
		if !rem.Deleted {
			n++
		}
	}
	return n, nil
}
