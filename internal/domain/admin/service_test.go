package admin_test

import (
	"context"
	"errors"
	"testing"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/admin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	n   int
	err error
}

func (c counter) CountActive(context.Context) (int, error) { return c.n, c.err }

type roleCounts map[access.Role]int

func (r roleCounts) CountByRole(_ context.Context, role access.Role) (int, error) { return r[role], nil }

func TestOverview_Counts(t *testing.T) {
	svc := admin.NewService(counter{n: 3}, counter{n: 7}, counter{n: 2}, roleCounts{
		access.RoleVeterinarian:  2,
		access.RoleMember:        5,
		access.RolePremiumMember: 1,
		access.RoleClinic:        4,
	})

	out, err := svc.Overview(context.Background(), access.Actor{ID: "a", Role: access.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, admin.Overview{
		ActivePets:      3,
		ActiveEvents:    7,
		ActiveReminders: 2,
		Veterinarians:   2,
		Members:         6,
		PremiumMembers:  1,
	}, out)
}

func TestOverview_AdminOnly(t *testing.T) {
	svc := admin.NewService(counter{}, counter{}, counter{}, roleCounts{})

	for _, role := range []access.Role{access.RoleVeterinarian, access.RoleClinic, access.RoleMember, access.RoleGuest} {
		_, err := svc.Overview(context.Background(), access.Actor{ID: "x", Role: role})
		assert.ErrorIs(t, err, admin.ErrForbidden, role)
	}
}

func TestOverview_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := admin.NewService(counter{n: 1}, counter{err: boom}, counter{}, roleCounts{})

	_, err := svc.Overview(context.Background(), access.Actor{ID: "a", Role: access.RoleAdmin})
	assert.ErrorIs(t, err, boom)
}
