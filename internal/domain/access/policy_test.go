package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan(t *testing.T) {
	own := Resource{OwnerID: "owner-1", VeterinarianID: "vet-1"}
	withConsent := Resource{OwnerID: "owner-1", VeterinarianID: "vet-1", Consent: true}

	cases := []struct {
		name  string
		role  Role
		actor string
		op    Operation
		res   Resource
		want  bool
	}{
		{"admin can anything", RoleAdmin, "admin-1", OpPetDelete, own, true},
		{"admin manages users", RoleAdmin, "admin-1", OpUsersManage, Resource{}, true},
		{"empty actor denied", RoleAdmin, "", OpPetRead, own, false},

		{"owner reads own pet", RoleMember, "owner-1", OpPetRead, own, true},
		{"owner updates own pet", RoleMember, "owner-1", OpPetUpdate, own, true},
		{"owner deletes own pet", RolePremiumMember, "owner-1", OpPetDelete, own, true},
		{"member reads someone else's pet", RoleMember, "owner-2", OpPetRead, own, false},
		{"member creates pet", RoleMember, "owner-2", OpPetCreate, Resource{}, true},
		{"member cannot manage users", RoleMember, "owner-1", OpUsersManage, own, false},
		{"member has no inbox", RoleMember, "owner-1", OpNotificationsRead, Resource{OwnerID: "owner-1"}, false},
		{"premium reads own inbox", RolePremiumMember, "owner-1", OpNotificationsRead, Resource{OwnerID: "owner-1"}, true},

		{"vet reads assigned pet", RoleVeterinarian, "vet-1", OpPetRead, own, true},
		{"vet update without consent", RoleVeterinarian, "vet-1", OpPetUpdate, own, false},
		{"vet update with consent", RoleVeterinarian, "vet-1", OpPetUpdate, withConsent, true},
		{"vet event with consent", RoleVeterinarian, "vet-1", OpEventCreate, withConsent, true},
		{"vet creates reminder", RoleVeterinarian, "vet-1", OpCareCreate, own, true},
		{"vet cannot delete reminder", RoleVeterinarian, "vet-1", OpCareDelete, own, false},
		{"vet cannot delete pet", RoleVeterinarian, "vet-1", OpPetDelete, withConsent, false},
		{"unassigned vet denied", RoleVeterinarian, "vet-2", OpPetRead, withConsent, false},

		{"clinic reads events", RoleClinic, "clinic-1", OpEventRead, own, true},
		{"clinic reads reminders", RoleClinic, "clinic-1", OpCareRead, own, true},
		{"clinic cannot create events", RoleClinic, "clinic-1", OpEventCreate, withConsent, false},
		{"clinic cannot edit reminders", RoleClinic, "clinic-1", OpCareUpdate, own, false},
		{"clinic cannot read pet profile", RoleClinic, "clinic-1", OpPetRead, own, false},

		{"collaborator denied", RoleCollaborator, "c-1", OpEventRead, own, false},
		{"guest denied", RoleGuest, "g-1", OpPetCreate, Resource{}, false},
		{"unknown role denied", Role("root"), "x", OpPetRead, own, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Can(tc.role, tc.actor, tc.op, tc.res))
		})
	}
}

func TestNeedsConsent(t *testing.T) {
	res := Resource{OwnerID: "owner-1", VeterinarianID: "vet-1"}

	assert.True(t, NeedsConsent(RoleVeterinarian, "vet-1", OpPetUpdate, res))
	assert.False(t, NeedsConsent(RoleVeterinarian, "vet-2", OpPetUpdate, res), "unassigned vet is plainly forbidden")
	assert.False(t, NeedsConsent(RoleVeterinarian, "vet-1", OpPetRead, res))
	assert.False(t, NeedsConsent(RoleMember, "owner-1", OpPetUpdate, res))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" Premium_Member ")
	assert.True(t, ok)
	assert.Equal(t, RolePremiumMember, r)

	_, ok = ParseRole("socio")
	assert.False(t, ok)

	assert.Len(t, Roles(), 7)
	assert.True(t, MasksPetName(RoleClinic))
	assert.False(t, MasksPetName(RoleVeterinarian))
}
