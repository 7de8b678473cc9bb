package admin

import (
	"context"
	"fmt"

	"pet-records/internal/domain/access"
	"pet-records/internal/platform/sentinel"

	"golang.org/x/sync/errgroup"
)

var ErrForbidden = fmt.Errorf("admin %w", sentinel.ErrForbidden)

// ActiveCounter cuenta registros no borrados (fichas, eventos, recordatorios).
type ActiveCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type RoleCounter interface {
	CountByRole(ctx context.Context, role access.Role) (int, error)
}

// Overview son los totales del panel de administración.
type Overview struct {
	ActivePets      int `json:"active_pets"`
	ActiveEvents    int `json:"active_events"`
	ActiveReminders int `json:"active_reminders"`
	Veterinarians   int `json:"veterinarians"`
	Members         int `json:"members"`
	PremiumMembers  int `json:"premium_members"`
}

type Service struct {
	pets      ActiveCounter
	events    ActiveCounter
	reminders ActiveCounter
	people    RoleCounter
}

func NewService(pets, events, reminders ActiveCounter, people RoleCounter) *Service {
	return &Service{pets: pets, events: events, reminders: reminders, people: people}
}

// Overview junta los conteos en paralelo; el primer error cancela el resto.
func (s *Service) Overview(ctx context.Context, actor access.Actor) (Overview, error) {
	if actor.Role != access.RoleAdmin {
		return Overview{}, ErrForbidden
	}

	var (
		out     Overview
		members int
	)
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}
	byRole := func(role access.Role) func(context.Context) (int, error) {
		return func(ctx context.Context) (int, error) { return s.people.CountByRole(ctx, role) }
	}

	count(&out.ActivePets, s.pets.CountActive)
	count(&out.ActiveEvents, s.events.CountActive)
	count(&out.ActiveReminders, s.reminders.CountActive)
	count(&out.Veterinarians, byRole(access.RoleVeterinarian))
	count(&members, byRole(access.RoleMember))
	count(&out.PremiumMembers, byRole(access.RolePremiumMember))

	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("admin overview: %w", err)
	}
	out.Members = members + out.PremiumMembers
	return out, nil
}
