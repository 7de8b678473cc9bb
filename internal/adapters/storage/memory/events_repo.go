package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-records/internal/domain/events"
)

type eventRepo struct {
	mu   sync.RWMutex
	byID map[string]events.ClinicalEvent
}

func NewEventRepo() events.Repository {
	return &eventRepo{
		byID: make(map[string]events.ClinicalEvent),
	}
}

func (r *eventRepo) Create(ctx context.Context, e events.ClinicalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == "" {
		return errors.New("event id required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errors.New("event already exists")
	}
	r.byID[e.ID] = cloneEvent(e)
	return nil
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (events.ClinicalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.ClinicalEvent{}, events.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (r *eventRepo) ListByPet(ctx context.Context, petID string, filter events.ListFilter) ([]events.ClinicalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]events.ClinicalEvent, 0)
	for _, e := range r.byID {
		if e.PetID != petID || e.Deleted {
			continue
		}

		if len(filter.Types) > 0 {
			ok := false
			for _, t := range filter.Types {
				if strings.EqualFold(e.Type, t) {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}

		// Fechas civiles, ambos extremos inclusive
		if filter.From != nil && e.EventDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.EventDate.After(*filter.To) {
			continue
		}

		if q := strings.TrimSpace(filter.Query); q != "" {
			hay := strings.ToLower(e.Type + " " + e.Symptoms + " " + e.Description + " " + e.Observations)
			if !strings.Contains(hay, strings.ToLower(q)) {
				continue
			}
		}

		out = append(out, cloneEvent(e))
	}

	// Más reciente primero; a igual fecha, el último registrado
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].EventDate.After(out[j].EventDate)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *eventRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return events.ErrNotFound
	}
	if e.Deleted {
		return events.ErrAlreadyDeleted
	}
	e.Deleted = true
	r.byID[id] = e
	return nil
}

func (r *eventRepo) CountActive(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.byID {
		if !e.Deleted {
			n++
		}
	}
	return n, nil
}

// cloneEvent evita compartir el slice de adjuntos con el llamador.
func cloneEvent(e events.ClinicalEvent) events.ClinicalEvent {
	if e.Attachments != nil {
		e.Attachments = append([]events.Attachment(nil), e.Attachments...)
	}
	return e
}
