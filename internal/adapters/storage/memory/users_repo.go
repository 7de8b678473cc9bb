package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/identity"
	"pet-records/internal/domain/users"
)

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]users.Person
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID: make(map[string]users.Person),
	}
}

// conflictLocked revisa unicidad de email y documento; requiere el lock tomado.
func (r *userRepo) conflictLocked(p users.Person) error {
	for id, other := range r.byID {
		if id == p.ID {
			continue
		}
		if other.Email == p.Email {
			return users.ErrEmailTaken
		}
		if p.NationalID != "" && other.NationalIDType == p.NationalIDType && other.NationalID == p.NationalID {
			return users.ErrNationalIDTaken
		}
	}
	return nil
}

func (r *userRepo) Create(ctx context.Context, p users.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return errors.New("user already exists")
	}
	if err := r.conflictLocked(p); err != nil {
		return err
	}
	r.byID[p.ID] = p
	return nil
}

func (r *userRepo) Update(ctx context.Context, p users.Person) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[p.ID]; !exists {
		return users.ErrNotFound
	}
	if err := r.conflictLocked(p); err != nil {
		return err
	}
	r.byID[p.ID] = p
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return users.Person{}, users.ErrNotFound
	}
	return p, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.byID {
		if p.Email == email {
			return p, nil
		}
	}
	return users.Person{}, users.ErrNotFound
}

func (r *userRepo) List(ctx context.Context) ([]users.Person, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.Person, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *userRepo) CountByRole(ctx context.Context, role access.Role) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.byID {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *userRepo) EmailTaken(ctx context.Context, email, excludedID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, p := range r.byID {
		if id != excludedID && p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *userRepo) NationalIDTaken(ctx context.Context, idType, number, excludedID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, p := range r.byID {
		if id != excludedID && p.NationalIDType == idType && p.NationalID == number {
			return true, nil
		}
	}
	return false, nil
}

// attemptStore guarda registros de intentos con vencimiento.
type attemptStore struct {
	mu    sync.Mutex
	byKey map[string]attemptEntry
	now   func() time.Time
}

type attemptEntry struct {
	attempts  identity.LoginAttempts
	expiresAt time.Time
}

func NewAttemptStore() users.AttemptStore {
	return &attemptStore{byKey: make(map[string]attemptEntry), now: time.Now}
}

func (s *attemptStore) Load(ctx context.Context, key string) (identity.LoginAttempts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byKey[key]
	if !ok {
		return identity.LoginAttempts{}, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.byKey, key)
		return identity.LoginAttempts{}, nil
	}
	return e.attempts, nil
}

func (s *attemptStore) Save(ctx context.Context, key string, a identity.LoginAttempts, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a == (identity.LoginAttempts{}) {
		delete(s.byKey, key)
		return nil
	}
	e := attemptEntry{attempts: a}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.byKey[key] = e
	return nil
}
