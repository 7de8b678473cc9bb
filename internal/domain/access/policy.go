package access

import "strings"

// Role es el tipo de usuario. Conjunto cerrado: cualquier otro valor es inválido.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleVeterinarian  Role = "veterinarian"
	RoleClinic        Role = "clinic"
	RoleCollaborator  Role = "collaborator"
	RoleMember        Role = "member"
	RolePremiumMember Role = "premium_member"
	RoleGuest         Role = "guest"
)

var allRoles = []Role{
	RoleAdmin, RoleVeterinarian, RoleClinic, RoleCollaborator,
	RoleMember, RolePremiumMember, RoleGuest,
}

// Roles devuelve todos los roles conocidos.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole normaliza y valida un rol.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// IsMember indica si el rol es de socio (con o sin premium).
func (r Role) IsMember() bool {
	return r == RoleMember || r == RolePremiumMember
}

// Operation es una acción sobre un recurso.
type Operation string

const (
	OpPetCreate Operation = "pet:create"
	OpPetRead   Operation = "pet:read"
	OpPetUpdate Operation = "pet:update"
	OpPetDelete Operation = "pet:delete"

	OpEventCreate Operation = "event:create"
	OpEventRead   Operation = "event:read"
	OpEventDelete Operation = "event:delete"

	OpCareCreate Operation = "care:create"
	OpCareRead   Operation = "care:read"
	OpCareUpdate Operation = "care:update"
	OpCareDelete Operation = "care:delete"

	OpNotificationsRead Operation = "notifications:read"

	OpUsersManage Operation = "users:manage"
)

// Resource describe el recurso sobre el que se evalúa la operación.
// Para notificaciones OwnerID es el destinatario.
type Resource struct {
	OwnerID        string
	VeterinarianID string

	// Consent es la señal explícita de consentimiento para que un veterinario edite.
	Consent bool
}

// Can es una función pura: no hace I/O ni decide cómo presentar la denegación.
func Can(role Role, actorID string, op Operation, res Resource) bool {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return false
	}

	switch role {
	case RoleAdmin:
		return true

	case RoleMember, RolePremiumMember:
		switch op {
		case OpPetCreate:
			return true
		case OpNotificationsRead:
			return role == RolePremiumMember && res.OwnerID == actorID
		case OpUsersManage:
			return false
		default:
			return res.OwnerID == actorID
		}

	case RoleVeterinarian:
		if res.VeterinarianID == "" || res.VeterinarianID != actorID {
			return false
		}
		switch op {
		case OpPetRead, OpEventRead, OpCareRead:
			return true
		case OpPetUpdate, OpEventCreate:
			return res.Consent
		case OpCareCreate, OpCareUpdate:
			return true
		default:
			return false
		}

	case RoleClinic:
		switch op {
		case OpEventRead, OpCareRead:
			return true
		default:
			return false
		}

	case RoleCollaborator, RoleGuest:
		return false

	default:
		return false
	}
}

// NeedsConsent indica si la operación, para este actor, solo está bloqueada por falta
// de consentimiento. Permite distinguir "consentimiento requerido" de "prohibido".
func NeedsConsent(role Role, actorID string, op Operation, res Resource) bool {
	if role != RoleVeterinarian || res.Consent {
		return false
	}
	with := res
	with.Consent = true
	return !Can(role, actorID, op, res) && Can(role, actorID, op, with)
}

// MasksPetName indica si el nombre de la mascota debe ocultarse a este rol.
func MasksPetName(role Role) bool {
	return role == RoleClinic
}

// Actor es quien ejecuta la operación.
type Actor struct {
	ID   string
	Role Role
}

// Can evalúa la política para este actor.
func (a Actor) Can(op Operation, res Resource) bool {
	return Can(a.Role, a.ID, op, res)
}

// NeedsConsent evalúa NeedsConsent para este actor.
func (a Actor) NeedsConsent(op Operation, res Resource) bool {
	return NeedsConsent(a.Role, a.ID, op, res)
}
