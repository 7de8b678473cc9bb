package events_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"pet-records/internal/adapters/storage/memory"
	"pet-records/internal/domain/access"
	"pet-records/internal/domain/events"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now    = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	owner  = access.Actor{ID: "owner-1", Role: access.RoleMember}
	vet    = access.Actor{ID: "vet-1", Role: access.RoleVeterinarian}
	clinic = access.Actor{ID: "clinic-1", Role: access.RoleClinic}
)

type memFiles struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (m *memFiles) Remove(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, ref)
	return nil
}

type failingEventRepo struct {
	events.Repository
}

func (failingEventRepo) Create(context.Context, events.ClinicalEvent) error {
	return errors.New("db down")
}

func (m *memFiles) SaveAttachment(_ context.Context, eventID string, index int, up events.FileUpload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := fmt.Sprintf("/files/events/%s_%d_%s", eventID, index, up.Filename)
	m.saved = append(m.saved, url)
	return url, nil
}

type fixture struct {
	pets   *pets.Service
	events *events.Service
	files  *memFiles
	pet    pets.Pet
}

func setup(t *testing.T) fixture {
	t.Helper()
	clock := pets.WithClock(func() time.Time { return now })
	petSvc := pets.NewService(memory.NewPetRepo(), clock)
	// Sin RoleLookup el veterinario asignado no se verifica.
	p, err := petSvc.Create(context.Background(), owner, pets.CreateInput{
		Fields:         pets.Fields{Name: "Luna", Species: "cat", Size: "small", Breed: "Siamese"},
		VeterinarianID: "vet-1",
	})
	require.NoError(t, err)

	files := &memFiles{}
	evSvc := events.NewService(memory.NewEventRepo(), petSvc,
		events.WithAttachmentStore(files),
		events.WithClock(func() time.Time { return now }),
	)
	return fixture{pets: petSvc, events: evSvc, files: files, pet: p}
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCreate_DefaultsPreconsultAndResponsible(t *testing.T) {
	f := setup(t)

	e, err := f.events.Create(context.Background(), owner, f.pet.ID, events.CreateInput{
		EventDate: day("2025-06-10"),
		Type:      "checkup",
		Symptoms:  "cough",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, events.PreconsultPending, e.PreconsultStatus)
	assert.Equal(t, "owner-1", e.ResponsibleID)
	assert.Equal(t, f.pet.ID, e.PetID)
}

func TestCreate_RequiredFieldsAccumulate(t *testing.T) {
	f := setup(t)

	_, err := f.events.Create(context.Background(), owner, f.pet.ID, events.CreateInput{Type: "a-very-long-event-type-name"}, false)
	require.ErrorIs(t, err, validation.ErrInvalid)

	errs := validation.Errors(validation.List(err))
	assert.True(t, errs.Has(events.FieldEventDate, validation.KindRequired))
	assert.True(t, errs.Has(events.FieldSymptoms, validation.KindRequired))
	assert.True(t, errs.Has(events.FieldType, validation.KindTooLong))
}

func TestCreate_AttachmentLimit(t *testing.T) {
	f := setup(t)

	in := events.CreateInput{EventDate: day("2025-06-10"), Type: "x", Symptoms: "y"}
	for i := range 5 {
		in.Attachments = append(in.Attachments, events.AttachmentInput{URL: fmt.Sprintf("https://cdn/x%d.png", i)})
	}
	_, err := f.events.Create(context.Background(), owner, f.pet.ID, in, false)
	assert.True(t, validation.HasKind(err, validation.KindTooManyAttachments))

	in.Attachments = in.Attachments[:4]
	e, err := f.events.Create(context.Background(), owner, f.pet.ID, in, false)
	require.NoError(t, err)
	assert.Len(t, e.Attachments, 4)
	assert.Equal(t, "Photo 1 of the event", e.Attachments[0].Description)
}

func TestCreate_StoresUploadedPhotos(t *testing.T) {
	f := setup(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	e, err := f.events.Create(context.Background(), owner, f.pet.ID, events.CreateInput{
		EventDate: day("2025-06-10"), Type: "x", Symptoms: "y",
		Attachments: []events.AttachmentInput{{File: &events.FileUpload{Filename: "a.png", ContentType: "image/png", Data: buf.Bytes()}}},
	}, false)
	require.NoError(t, err)
	require.Len(t, f.files.saved, 1)
	assert.Equal(t, f.files.saved[0], e.Attachments[0].URL)

	_, err = f.events.Create(context.Background(), owner, f.pet.ID, events.CreateInput{
		EventDate: day("2025-06-10"), Type: "x", Symptoms: "y",
		Attachments: []events.AttachmentInput{{File: &events.FileUpload{Filename: "a.png", ContentType: "image/png", Data: []byte("nope")}}},
	}, false)
	assert.True(t, validation.HasKind(err, validation.KindCorruptImage))
}

func TestCreate_RemovesSavedFilesWhenInsertFails(t *testing.T) {
	f := setup(t)
	svc := events.NewService(failingEventRepo{memory.NewEventRepo()}, f.pets,
		events.WithAttachmentStore(f.files),
		events.WithClock(func() time.Time { return now }),
	)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	up := &events.FileUpload{Filename: "a.png", ContentType: "image/png", Data: buf.Bytes()}

	_, err := svc.Create(context.Background(), owner, f.pet.ID, events.CreateInput{
		EventDate: day("2025-06-10"), Type: "x", Symptoms: "y",
		Attachments: []events.AttachmentInput{{File: up}, {File: up}},
	}, false)
	require.Error(t, err)
	assert.Len(t, f.files.saved, 2)
	assert.ElementsMatch(t, f.files.saved, f.files.removed)
}

func TestCreate_AttachmentURLMustBeWebOrMedia(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, raw := range []string{"javascript:alert(1)", "data:image/png;base64,AAAA", "ftp://host/x.png", "/etc/passwd", "/media/../etc/passwd", "//evil.example/x.png"} {
		_, err := f.events.Create(ctx, owner, f.pet.ID, events.CreateInput{
			EventDate: day("2025-06-10"), Type: "x", Symptoms: "y",
			Attachments: []events.AttachmentInput{{URL: raw}},
		}, false)
		assert.True(t, validation.HasKind(err, validation.KindInvalidURL), raw)
	}

	e, err := f.events.Create(ctx, owner, f.pet.ID, events.CreateInput{
		EventDate: day("2025-06-10"), Type: "x", Symptoms: "y",
		Attachments: []events.AttachmentInput{{URL: "https://cdn.example/x.png"}, {URL: "/media/events/a.png"}},
	}, false)
	require.NoError(t, err)
	assert.Len(t, e.Attachments, 2)
}

func TestCreate_AccessRules(t *testing.T) {
	f := setup(t)
	in := events.CreateInput{EventDate: day("2025-06-10"), Type: "x", Symptoms: "y"}

	_, err := f.events.Create(context.Background(), vet, f.pet.ID, in, false)
	assert.ErrorIs(t, err, pets.ErrConsentRequired)

	_, err = f.events.Create(context.Background(), vet, f.pet.ID, in, true)
	assert.NoError(t, err)

	_, err = f.events.Create(context.Background(), clinic, f.pet.ID, in, true)
	assert.ErrorIs(t, err, events.ErrForbidden)

	_, err = f.events.Create(context.Background(), owner, "missing", in, false)
	assert.ErrorIs(t, err, pets.ErrNotFound)
}

func TestListByPet_FiltersAndOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, c := range []struct{ date, typ, symptoms string }{
		{"2025-01-10", "vaccine", "none"},
		{"2025-03-05", "checkup", "limping"},
		{"2025-05-20", "checkup", "cough"},
	} {
		_, err := f.events.Create(ctx, owner, f.pet.ID, events.CreateInput{EventDate: day(c.date), Type: c.typ, Symptoms: c.symptoms}, false)
		require.NoError(t, err)
	}

	_, all, err := f.events.ListByPet(ctx, owner, f.pet.ID, events.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, day("2025-05-20"), all[0].EventDate)

	from := day("2025-02-01")
	_, some, err := f.events.ListByPet(ctx, clinic, f.pet.ID, events.ListFilter{Types: []string{"checkup"}, From: &from, Query: "COUGH"})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.Equal(t, "cough", some[0].Symptoms)

	_, _, err = f.events.ListByPet(ctx, access.Actor{ID: "x", Role: access.RoleCollaborator}, f.pet.ID, events.ListFilter{})
	assert.ErrorIs(t, err, events.ErrForbidden)
}

func TestSoftDelete_OnlyOnce(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	e, err := f.events.Create(ctx, owner, f.pet.ID, events.CreateInput{EventDate: day("2025-06-10"), Type: "x", Symptoms: "y"}, false)
	require.NoError(t, err)

	assert.ErrorIs(t, f.events.SoftDelete(ctx, vet, f.pet.ID, e.ID), events.ErrForbidden)
	require.NoError(t, f.events.SoftDelete(ctx, owner, f.pet.ID, e.ID))
	assert.ErrorIs(t, f.events.SoftDelete(ctx, owner, f.pet.ID, e.ID), events.ErrAlreadyDeleted)

	_, err = f.events.Get(ctx, owner, f.pet.ID, e.ID)
	assert.ErrorIs(t, err, events.ErrNotFound)

	n, err := f.events.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
