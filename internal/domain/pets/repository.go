package pets

import (
	"context"
	"time"
)

// Repository persiste fichas.
//   - Create es atómico sobre el ficket: si ya existe devuelve ErrFicketTaken.
//   - Update solo aplica sobre fichas activas (ErrPetDeleted si no).
//   - SoftDelete es condicional: ErrAlreadyDeleted si ya estaba borrada.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	SoftDelete(ctx context.Context, id, reason string, at time.Time) error
	GetByID(ctx context.Context, id string) (Pet, error)
	FicketTaken(ctx context.Context, ficket string) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Pet, error)
	CountActive(ctx context.Context) (int, error)
}

// ListFilter: campos vacíos no filtran. Las fichas borradas nunca se listan.
type ListFilter struct {
	OwnerID        string
	VeterinarianID string
}

// PhotoStore guarda la foto de una ficha y devuelve su referencia.
type PhotoStore interface {
	Save(ctx context.Context, petID string, up PhotoUpload) (string, error)
	Remove(ctx context.Context, ref string) error
}
