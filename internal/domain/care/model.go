package care

import "time"

const (
	TypeVaccination       = "vaccination"
	TypeVeterinaryControl = "veterinary_control"
	TypeDeworming         = "deworming"
	TypeMedication        = "medication"
	TypeGrooming          = "grooming"
)

// Reminder es un cuidado programado para una mascota.
type Reminder struct {
	ID       string
	PetID    string
	CareType string
	NextDue  time.Time // fecha civil, UTC medianoche
	Dosage   string    // opcional

	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Target es la mascota destino tal como la ve este módulo.
type Target struct {
	PetID          string
	PetName        string
	OwnerID        string
	VeterinarianID string
}
