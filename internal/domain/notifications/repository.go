package notifications

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, n Notification) error
	GetByID(ctx context.Context, id string) (Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]Notification, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	SoftDelete(ctx context.Context, id string) error
}
