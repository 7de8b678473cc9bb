package pets_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"pet-records/internal/adapters/storage/memory"
	"pet-records/internal/domain/access"
	"pet-records/internal/domain/care"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/users"
	"pet-records/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now    = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	owner  = access.Actor{ID: "owner-1", Role: access.RoleMember}
	other  = access.Actor{ID: "owner-2", Role: access.RoleMember}
	vet    = access.Actor{ID: "vet-1", Role: access.RoleVeterinarian}
	clinic = access.Actor{ID: "clinic-1", Role: access.RoleClinic}
	admin  = access.Actor{ID: "admin-1", Role: access.RoleAdmin}
)

type fixedRoles map[string]access.Role

func (f fixedRoles) RoleOf(_ context.Context, id string) (access.Role, error) {
	r, ok := f[id]
	if !ok {
		return "", users.ErrNotFound
	}
	return r, nil
}

// collidingRepo rechaza por ficket los primeros `collisions` inserts.
type collidingRepo struct {
	pets.Repository

	mu         sync.Mutex
	collisions int
	attempts   []string
}

func (r *collidingRepo) Create(ctx context.Context, p pets.Pet) error {
	r.mu.Lock()
	r.attempts = append(r.attempts, p.Ficket)
	if r.collisions > 0 {
		r.collisions--
		r.mu.Unlock()
		return pets.ErrFicketTaken
	}
	r.mu.Unlock()
	return r.Repository.Create(ctx, p)
}

type memPhotos struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (m *memPhotos) Save(_ context.Context, petID string, _ pets.PhotoUpload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "/media/pets/" + petID + "/photo.png"
	m.saved = append(m.saved, ref)
	return ref, nil
}

func (m *memPhotos) Remove(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, ref)
	return nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func newService(repo pets.Repository, opts ...pets.Option) *pets.Service {
	base := []pets.Option{
		pets.WithClock(func() time.Time { return now }),
		pets.WithRoleLookup(fixedRoles{"vet-1": access.RoleVeterinarian, "owner-2": access.RoleMember}),
	}
	return pets.NewService(repo, append(base, opts...)...)
}

func validInput() pets.CreateInput {
	return pets.CreateInput{
		Fields:         pets.Fields{Name: "Luna", Species: "dog", Size: "medium", Breed: "Beagle"},
		VeterinarianID: "vet-1",
	}
}

func TestCreate_AssignsFicketAndOwner(t *testing.T) {
	svc := newService(memory.NewPetRepo())

	p, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)
	assert.Regexp(t, `^PET-[0-9A-F]{8}$`, p.Ficket)
	assert.Equal(t, "owner-1", p.OwnerID)
	assert.Equal(t, pets.StateActive, p.State)
}

func TestCreate_OnlyAdminSetsOwner(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	in := validInput()
	in.OwnerID = "owner-2"

	p, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", p.OwnerID)

	p, err = svc.Create(context.Background(), admin, in)
	require.NoError(t, err)
	assert.Equal(t, "owner-2", p.OwnerID)
}

func TestCreate_RejectsUnknownOrNonVeterinarian(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	in := validInput()
	in.VeterinarianID = "ghost"
	_, err := svc.Create(ctx, owner, in)
	assert.True(t, validation.HasKind(err, validation.KindInvalidChoice))

	in.VeterinarianID = "owner-2"
	_, err = svc.Create(ctx, owner, in)
	assert.True(t, validation.HasKind(err, validation.KindInvalidChoice))
}

func TestCreate_SuppliedFicketCollisionIsRegenerated(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	in := validInput()
	in.Ficket = "PET-00000001"
	first, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	assert.Equal(t, "PET-00000001", first.Ficket)

	second, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.Ficket, second.Ficket)
}

func TestCreate_InsertConflictRetriesOnce(t *testing.T) {
	repo := &collidingRepo{Repository: memory.NewPetRepo(), collisions: 1}
	svc := newService(repo)

	p, err := svc.Create(context.Background(), owner, validInput())
	require.NoError(t, err)
	require.Len(t, repo.attempts, 2)
	assert.NotEqual(t, repo.attempts[0], repo.attempts[1])
	assert.Equal(t, repo.attempts[1], p.Ficket)
}

func TestCreate_SecondInsertConflictSurfaces(t *testing.T) {
	repo := &collidingRepo{Repository: memory.NewPetRepo(), collisions: 2}
	svc := newService(repo)

	_, err := svc.Create(context.Background(), owner, validInput())
	assert.ErrorIs(t, err, pets.ErrFicketConflict)
	assert.Len(t, repo.attempts, 2)
}

func TestCreate_FailedInsertRemovesSavedPhoto(t *testing.T) {
	photos := &memPhotos{}
	repo := &collidingRepo{Repository: memory.NewPetRepo(), collisions: 2}
	svc := newService(repo, pets.WithPhotoStore(photos))

	in := validInput()
	in.Photo = &pets.PhotoUpload{Filename: "luna.png", ContentType: "image/png", Data: tinyPNG(t)}
	_, err := svc.Create(context.Background(), owner, in)
	require.ErrorIs(t, err, pets.ErrFicketConflict)

	require.Len(t, photos.saved, 1)
	assert.Equal(t, photos.saved, photos.removed)
}

func TestCreate_StoresPhoto(t *testing.T) {
	photos := &memPhotos{}
	svc := newService(memory.NewPetRepo(), pets.WithPhotoStore(photos))

	in := validInput()
	in.Photo = &pets.PhotoUpload{Filename: "luna.png", ContentType: "image/png", Data: tinyPNG(t)}
	p, err := svc.Create(context.Background(), owner, in)
	require.NoError(t, err)
	assert.Equal(t, "/media/pets/"+p.ID+"/photo.png", p.PhotoRef)
	assert.Empty(t, photos.removed)
}

func TestUpdate_SpeciesIsImmutable(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	cat := "cat"
	name := "Luna II"
	updated, err := svc.Update(ctx, p.ID, owner, pets.UpdateInput{Species: &cat, Name: &name}, false)
	require.NoError(t, err)
	assert.Equal(t, pets.SpeciesDog, updated.Species)
	assert.Equal(t, "Luna II", updated.Name)
	assert.Equal(t, p.Ficket, updated.Ficket)
}

func TestUpdate_ClearsOptionalFieldsWithPatch(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	in := validInput()
	age := 4
	in.Age = &age
	p, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)
	require.NotNil(t, p.Age)

	updated, err := svc.Update(ctx, p.ID, owner, pets.UpdateInput{Age: pets.Patch[int]{Set: true}}, false)
	require.NoError(t, err)
	assert.Nil(t, updated.Age)
}

func TestUpdate_VeterinarianNeedsConsent(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	name := "Lunita"
	_, err = svc.Update(ctx, p.ID, vet, pets.UpdateInput{Name: &name}, false)
	assert.ErrorIs(t, err, pets.ErrConsentRequired)

	updated, err := svc.Update(ctx, p.ID, vet, pets.UpdateInput{Name: &name}, true)
	require.NoError(t, err)
	assert.Equal(t, "Lunita", updated.Name)

	_, err = svc.Update(ctx, p.ID, other, pets.UpdateInput{Name: &name}, true)
	assert.ErrorIs(t, err, pets.ErrForbidden)

	_, err = svc.Update(ctx, p.ID, clinic, pets.UpdateInput{Name: &name}, true)
	assert.ErrorIs(t, err, pets.ErrForbidden)
}

func TestSoftDelete_OnlyOnceAndHidesPet(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SoftDelete(ctx, p.ID, other, ""), pets.ErrForbidden)
	require.NoError(t, svc.SoftDelete(ctx, p.ID, owner, "duplicated"))
	assert.ErrorIs(t, svc.SoftDelete(ctx, p.ID, owner, ""), pets.ErrAlreadyDeleted)

	_, err = svc.Get(ctx, p.ID, owner)
	assert.ErrorIs(t, err, pets.ErrNotFound)

	name := "x"
	_, err = svc.Update(ctx, p.ID, owner, pets.UpdateInput{Name: &name}, false)
	assert.ErrorIs(t, err, pets.ErrPetDeleted)

	list, err := svc.ListForActor(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSoftDelete_ConcurrentOnlyOneWins(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.SoftDelete(ctx, p.ID, owner, "")
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, pets.ErrAlreadyDeleted))
	}
	assert.Equal(t, 1, ok)
}

func TestListForActor_ByRole(t *testing.T) {
	svc := newService(memory.NewPetRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)
	in := validInput()
	in.VeterinarianID = ""
	_, err = svc.Create(ctx, other, in)
	require.NoError(t, err)

	all, err := svc.ListForActor(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListForActor(ctx, other)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assigned, err := svc.ListForActor(ctx, vet)
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	_, err = svc.ListForActor(ctx, clinic)
	assert.ErrorIs(t, err, pets.ErrForbidden)
}

func TestAddCareReminder_ChecksPetAndAccess(t *testing.T) {
	careSvc := care.NewService(memory.NewCareRepo())
	svc := newService(memory.NewPetRepo(), pets.WithCare(careSvc))
	ctx := context.Background()

	p, err := svc.Create(ctx, owner, validInput())
	require.NoError(t, err)

	in := care.AddInput{CareType: "vaccination", NextDue: "2025-07-01"}
	r, err := svc.AddCareReminder(ctx, p.ID, vet, in)
	require.NoError(t, err)
	assert.Equal(t, p.ID, r.PetID)

	_, err = svc.AddCareReminder(ctx, p.ID, clinic, in)
	assert.ErrorIs(t, err, pets.ErrForbidden)

	require.NoError(t, svc.SoftDelete(ctx, p.ID, owner, ""))
	_, err = svc.AddCareReminder(ctx, p.ID, owner, in)
	assert.ErrorIs(t, err, pets.ErrPetDeleted)
}
