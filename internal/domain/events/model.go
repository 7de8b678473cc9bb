package events

import "time"

const (
	PreconsultPending = "pending"

	MaxAttachments = 4
)

// ClinicalEvent es una entrada del historial clínico de una mascota.
type ClinicalEvent struct {
	ID            string
	PetID         string
	ResponsibleID string

	EventDate time.Time // fecha civil
	Type      string
	Symptoms  string

	Description      string
	PreconsultStatus string
	Observations     string

	Attachments []Attachment

	Deleted   bool
	CreatedAt time.Time
}

// Attachment es un archivo asociado a un evento.
type Attachment struct {
	ID          string
	EventID     string
	URL         string
	Description string
	UploadedBy  string
	UploadedAt  time.Time
	Deleted     bool
}

// ActiveAttachments devuelve los adjuntos no borrados.
func (e ClinicalEvent) ActiveAttachments() []Attachment {
	out := make([]Attachment, 0, len(e.Attachments))
	for _, a := range e.Attachments {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	return out
}
