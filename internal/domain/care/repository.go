package care

import "context"

type Repository interface {
	Create(ctx context.Context, r Reminder) error
	Update(ctx context.Context, r Reminder) error
	GetByID(ctx context.Context, id string) (Reminder, error)
	ListByPet(ctx context.Context, petID string) ([]Reminder, error)
	// SoftDelete devuelve ErrAlreadyDeleted si ya estaba borrado.
	SoftDelete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}
