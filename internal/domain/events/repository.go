package events

import (
	"context"
	"time"

	"pet-records/internal/domain/pets"
)

// Repository persiste eventos junto con sus adjuntos.
// SoftDelete es condicional: ErrAlreadyDeleted si ya estaba borrado.
type Repository interface {
	Create(ctx context.Context, e ClinicalEvent) error
	GetByID(ctx context.Context, id string) (ClinicalEvent, error)
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]ClinicalEvent, error)
	SoftDelete(ctx context.Context, id string) error
	CountActive(ctx context.Context) (int, error)
}

// ListFilter: los eventos borrados nunca se listan. Orden: más reciente primero.
type ListFilter struct {
	Types []string
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}

// AttachmentStore guarda el archivo de un adjunto y devuelve su URL.
type AttachmentStore interface {
	SaveAttachment(ctx context.Context, eventID string, index int, up FileUpload) (string, error)
	Remove(ctx context.Context, ref string) error
}

// FileUpload es un archivo recibido para adjuntar. Se valida como una foto.
type FileUpload = pets.PhotoUpload
