package pets

import (
	"time"

	"github.com/shopspring/decimal"
)

// Species define las especies soportadas. No cambia después del alta.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Size define el tamaño de la mascota.
// @Enum small, medium, large, giant
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
	SizeGiant  Size = "giant"
)

// Sex define el sexo de la mascota. Es opcional.
// @Enum male, female
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// State es el estado de ciclo de vida. deleted es terminal.
type State string

const (
	StateActive  State = "active"
	StateDeleted State = "deleted"
)

// MixedBreed es la raza asignada a una mascota mestiza sin raza declarada.
const MixedBreed = "Mixed"

// Pet es la ficha de una mascota.
type Pet struct {
	ID     string
	Ficket string // código único PET-XXXXXXXX

	OwnerID        string
	VeterinarianID string // opcional

	Name        string
	Description string
	Species     Species
	Size        Size
	Breed       string
	CrossBred   bool
	Sex         Sex // "" = no informado

	Age       *int // años
	BirthDate *time.Time
	WeightKg  *decimal.Decimal
	Allergies string

	PhotoRef string

	State        State
	DeleteReason string
	DeletedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Pet) Active() bool {
	return p.State != StateDeleted
}

var (
	speciesSet = map[Species]struct{}{SpeciesDog: {}, SpeciesCat: {}}
	sizeSet    = map[Size]struct{}{SizeSmall: {}, SizeMedium: {}, SizeLarge: {}, SizeGiant: {}}
	sexSet     = map[Sex]struct{}{SexMale: {}, SexFemale: {}}
)
