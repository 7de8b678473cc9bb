package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-records/internal/domain/pets"
)

type petRepo struct {
	mu       sync.RWMutex
	byID     map[string]pets.Pet
	byFicket map[string]string
}

func NewPetRepo() pets.Repository {
	return &petRepo{
		byID:     make(map[string]pets.Pet),
		byFicket: make(map[string]string),
	}
}

func (r *petRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("pet id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("pet already exists")
	}
	if _, taken := r.byFicket[p.Ficket]; taken {
		return pets.ErrFicketTaken
	}
	r.byID[p.ID] = p
	r.byFicket[p.Ficket] = p.ID
	return nil
}

func (r *petRepo) Update(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.byID[p.ID]
	if !exists {
		return pets.ErrNotFound
	}
	if !current.Active() {
		return pets.ErrPetDeleted
	}
	// El ficket no cambia después del alta.
	p.Ficket = current.Ficket
	r.byID[p.ID] = p
	return nil
}

func (r *petRepo) SoftDelete(ctx context.Context, id, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.ErrNotFound
	}
	if !p.Active() {
		return pets.ErrAlreadyDeleted
	}
	p.State = pets.StateDeleted
	p.DeleteReason = reason
	p.DeletedAt = &at
	p.UpdatedAt = at
	r.byID[id] = p
	return nil
}

func (r *petRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, nil
}

func (r *petRepo) FicketTaken(ctx context.Context, ficket string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, taken := r.byFicket[ficket]
	return taken, nil
}

func (r *petRepo) List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]pets.Pet, 0)
	for _, p := range r.byID {
		if !p.Active() {
			continue
		}
		if filter.OwnerID != "" && p.OwnerID != filter.OwnerID {
			continue
		}
		if filter.VeterinarianID != "" && p.VeterinarianID != filter.VeterinarianID {
			continue
		}
		out = append(out, p)
	}

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *petRepo) CountActive(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byID {
		if p.Active() {
			n++
		}
	}
	return n, nil
}
