package users

import (
	"context"
	"time"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/identity"
)

// Repository persiste personas. Create y Update garantizan unicidad de email
// y de (tipo, documento) de forma atómica, devolviendo ErrEmailTaken o
// ErrNationalIDTaken.
type Repository interface {
	identity.Directory

	Create(ctx context.Context, p Person) error
	Update(ctx context.Context, p Person) error
	GetByID(ctx context.Context, id string) (Person, error)
	GetByEmail(ctx context.Context, email string) (Person, error)
	List(ctx context.Context) ([]Person, error)
	CountByRole(ctx context.Context, role access.Role) (int, error)
}

// AttemptStore guarda el registro de intentos de login por identidad.
type AttemptStore interface {
	Load(ctx context.Context, key string) (identity.LoginAttempts, error)
	Save(ctx context.Context, key string, a identity.LoginAttempts, ttl time.Duration) error
}
