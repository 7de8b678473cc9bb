package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pet-records/internal/domain/notifications"
)

type notificationRepo struct {
	mu   sync.RWMutex
	byID map[string]notifications.Notification
}

func NewNotificationRepo() notifications.Repository {
	return &notificationRepo{
		byID: make(map[string]notifications.Notification),
	}
}

func (r *notificationRepo) Create(ctx context.Context, n notifications.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		return errors.New("notification id required")
	}
	if _, exists := r.byID[n.ID]; exists {
		return errors.New("notification already exists")
	}
	r.byID[n.ID] = n
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byID[id]
	if !ok {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	return n, nil
}

func (r *notificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]notifications.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]notifications.Notification, 0)
	for _, n := range r.byID {
		if n.RecipientID != recipientID || n.Deleted {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.Deleted {
		return notifications.ErrNotFound
	}
	n.Read = true
	n.ReadAt = &at
	r.byID[id] = n
	return nil
}

func (r *notificationRepo) SoftDelete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.Deleted {
		return notifications.ErrNotFound
	}
	n.Deleted = true
	r.byID[id] = n
	return nil
}
