package care_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-records/internal/adapters/storage/memory"
	"pet-records/internal/domain/access"
	"pet-records/internal/domain/care"
	"pet-records/internal/domain/notifications"
	"pet-records/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRoles map[string]access.Role

func (f fixedRoles) RoleOf(_ context.Context, id string) (access.Role, error) {
	r, ok := f[id]
	if !ok {
		return "", errors.New("unknown user")
	}
	return r, nil
}

type recordingNotifier struct {
	drafts []notifications.Draft
	err    error
}

func (n *recordingNotifier) Emit(_ context.Context, d notifications.Draft) (notifications.Notification, error) {
	if n.err != nil {
		return notifications.Notification{}, n.err
	}
	n.drafts = append(n.drafts, d)
	return notifications.Notification{ID: "n-1"}, nil
}

var (
	now    = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	target = care.Target{PetID: "pet-1", PetName: "Luna", OwnerID: "owner-1", VeterinarianID: "vet-1"}
	owner  = access.Actor{ID: "owner-1", Role: access.RolePremiumMember}
	vet    = access.Actor{ID: "vet-1", Role: access.RoleVeterinarian}
	clinic = access.Actor{ID: "clinic-1", Role: access.RoleClinic}
)

func newService(n care.Notifier, roles care.RoleLookup) *care.Service {
	return care.NewService(memory.NewCareRepo(),
		care.WithNotifier(n),
		care.WithRoleLookup(roles),
		care.WithClock(func() time.Time { return now }),
	)
}

func TestAdd_PremiumOwnerGetsNotification(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(n, fixedRoles{"owner-1": access.RolePremiumMember})

	r, err := svc.Add(context.Background(), target, care.AddInput{CareType: "Vaccination", NextDue: "2025-04-01", Dosage: "1 ml"})
	require.NoError(t, err)
	assert.Equal(t, care.TypeVaccination, r.CareType)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), r.NextDue)

	require.Len(t, n.drafts, 1)
	d := n.drafts[0]
	assert.Equal(t, "owner-1", d.RecipientID)
	assert.Equal(t, notifications.TypeReminder, d.Type)
	assert.Equal(t, "Reminder: vaccination for Luna", d.Title)
	assert.Equal(t, r.NextDue, d.SendAt)
}

func TestAdd_NoNotificationForRegularMemberOrOtherTypes(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(n, fixedRoles{"owner-1": access.RoleMember})

	_, err := svc.Add(context.Background(), target, care.AddInput{CareType: "vaccination", NextDue: "2025-04-01"})
	require.NoError(t, err)

	svc = newService(n, fixedRoles{"owner-1": access.RolePremiumMember})
	_, err = svc.Add(context.Background(), target, care.AddInput{CareType: "grooming", NextDue: "2025-04-01"})
	require.NoError(t, err)

	assert.Empty(t, n.drafts)
}

func TestAdd_NotificationFailureDoesNotFailWrite(t *testing.T) {
	n := &recordingNotifier{err: errors.New("inbox down")}
	svc := newService(n, fixedRoles{"owner-1": access.RolePremiumMember})

	r, err := svc.Add(context.Background(), target, care.AddInput{CareType: "veterinary control", NextDue: "2025-04-01"})
	require.NoError(t, err)
	assert.Equal(t, care.TypeVeterinaryControl, r.CareType)
}

func TestAdd_AccumulatesErrors(t *testing.T) {
	svc := newService(nil, nil)

	_, err := svc.Add(context.Background(), target, care.AddInput{NextDue: "01/04/2025", Dosage: "!!!"})
	require.ErrorIs(t, err, validation.ErrInvalid)

	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has(care.FieldCareType, validation.KindRequired))
	assert.True(t, errs.Has(care.FieldNextDue, validation.KindInvalidDate))
	assert.True(t, errs.Has(care.FieldDosage, validation.KindDosageNoAlphanumeric))
}

func TestUpdate_AccessAndOwnership(t *testing.T) {
	n := &recordingNotifier{}
	svc := newService(n, fixedRoles{"owner-1": access.RolePremiumMember})
	ctx := context.Background()

	r, err := svc.Add(ctx, target, care.AddInput{CareType: "vaccination", NextDue: "2025-04-01"})
	require.NoError(t, err)

	due := "2025-05-01"
	_, err = svc.Update(ctx, clinic, target, r.ID, care.UpdateInput{NextDue: &due})
	assert.ErrorIs(t, err, care.ErrForbidden)

	other := care.Target{PetID: "pet-2", OwnerID: "owner-1", VeterinarianID: "vet-1"}
	_, err = svc.Update(ctx, vet, other, r.ID, care.UpdateInput{NextDue: &due})
	assert.ErrorIs(t, err, care.ErrNotFound)

	updated, err := svc.Update(ctx, vet, target, r.ID, care.UpdateInput{NextDue: &due})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), updated.NextDue)

	require.Len(t, n.drafts, 2)
	assert.Equal(t, "Reminder updated: vaccination for Luna", n.drafts[1].Title)
}

func TestDelete_SoftAndOnlyOnce(t *testing.T) {
	svc := newService(nil, nil)
	ctx := context.Background()

	r, err := svc.Add(ctx, target, care.AddInput{CareType: "deworming", NextDue: "2025-04-01"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, vet, target, r.ID), care.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, owner, target, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, target, r.ID), care.ErrNotFound)

	items, err := svc.ListByPet(ctx, owner, target)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListByPet_ClinicReadsGuestDoesNot(t *testing.T) {
	svc := newService(nil, nil)
	ctx := context.Background()

	_, err := svc.Add(ctx, target, care.AddInput{CareType: "grooming", NextDue: "2025-06-01"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, target, care.AddInput{CareType: "deworming", NextDue: "2025-04-01"})
	require.NoError(t, err)

	items, err := svc.ListByPet(ctx, clinic, target)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "deworming", items[0].CareType)

	_, err = svc.ListByPet(ctx, access.Actor{ID: "g", Role: access.RoleGuest}, target)
	assert.ErrorIs(t, err, care.ErrForbidden)
}
