package users

import (
	"time"

	"pet-records/internal/domain/access"
)

// Person es una persona registrada. Nunca se borra físicamente.
type Person struct {
	ID string

	Name           string
	NationalIDType string
	NationalID     string // único por tipo
	Email          string // único, en minúsculas
	Phone          string

	Role access.Role

	MembershipActive    bool
	MembershipExpiresAt *time.Time

	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPremium indica si la persona recibe recordatorios (socio premium).
func (p Person) IsPremium() bool {
	return p.Role == access.RolePremiumMember
}
