package notifications

import "time"

type Type string

const (
	TypeReminder Type = "reminder"
	TypeSystem   Type = "system"
)

// Notification es un mensaje en la bandeja de una persona.
type Notification struct {
	ID          string
	RecipientID string
	PetID       string // opcional

	Type    Type
	Title   string
	Message string

	Read      bool
	ReadAt    *time.Time
	Deleted   bool
	CreatedAt time.Time
	SendAt    time.Time // cuándo debe mostrarse
}

// Draft es lo que otro módulo entrega para emitir una notificación.
type Draft struct {
	RecipientID string
	PetID       string
	Type        Type
	Title       string
	Message     string
	SendAt      time.Time // zero = ahora
}
