package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-records/internal/adapters/storage/memory"
	"pet-records/internal/domain/access"
	"pet-records/internal/domain/identity"
	"pet-records/internal/domain/users"
	"pet-records/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainAuthenticator struct{}

func (plainAuthenticator) Hash(_ context.Context, pw string) (string, error) {
	return "h(" + pw + ")", nil
}

func (plainAuthenticator) Verify(_ context.Context, hash, pw string) (bool, error) {
	return hash == "h("+pw+")", nil
}

var admin = access.Actor{ID: "admin-1", Role: access.RoleAdmin}

func newService(t *testing.T, now time.Time) *users.Service {
	t.Helper()
	return users.NewService(memory.NewUserRepo(), plainAuthenticator{},
		users.WithClock(func() time.Time { return now }),
		users.WithAttemptPolicy(identity.DefaultAttemptPolicy()),
	)
}

func validRegistration() users.RegisterInput {
	return users.RegisterInput{
		Name:            "  ana maría  ",
		Email:           "Ana@Gmail.com",
		Phone:           "+56 9 1234",
		NationalIDType:  "RUT",
		NationalID:      "11111111-1",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	}
}

func TestRegister_CreatesMember(t *testing.T) {
	svc := newService(t, time.Now())

	p, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ana María", p.Name)
	assert.Equal(t, "ana@gmail.com", p.Email)
	assert.Equal(t, access.RoleMember, p.Role)
	assert.Equal(t, "h(secret123)", p.PasswordHash)

	role, err := svc.RoleOf(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, access.RoleMember, role)
}

func TestRegister_AccumulatesFieldErrors(t *testing.T) {
	svc := newService(t, time.Now())

	in := validRegistration()
	in.Name = "A1"
	in.Email = "x@mailinator.com"
	in.Phone = "call me"
	in.Password = "short"
	in.PasswordConfirm = "other"

	_, err := svc.Register(context.Background(), in)
	require.Error(t, err)

	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has(identity.FieldName, validation.KindInvalidCharacters))
	assert.True(t, errs.Has(identity.FieldEmail, validation.KindDisposableDomain))
	assert.True(t, errs.Has(users.FieldPhone, validation.KindInvalidCharacters))
	assert.True(t, errs.Has(identity.FieldPassword, validation.KindTooShort))
	assert.True(t, errs.Has(identity.FieldPasswordConfirm, validation.KindMismatch))
}

func TestRegister_DuplicateEmailAndIdentification(t *testing.T) {
	svc := newService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Register(ctx, validRegistration())
	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has(identity.FieldEmail, validation.KindDuplicateEmail))
	assert.True(t, errs.Has(identity.FieldNationalID, validation.KindDuplicateIdentification))
}

func TestLogin_LocksAfterFiveFailures(t *testing.T) {
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc := newService(t, now)
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	var a identity.LoginAttempts
	for i := 0; i < identity.DefaultMaxLoginAttempts; i++ {
		_, a, err = svc.Login(ctx, "ana@gmail.com", "wrong1234", a)
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)
	}
	assert.Equal(t, identity.DefaultMaxLoginAttempts, a.Count)

	_, locked, err := svc.Login(ctx, "ana@gmail.com", "secret123", a)
	assert.ErrorIs(t, err, users.ErrLocked, "even the right password is rejected while locked")
	assert.Equal(t, a, locked)
	assert.Equal(t, now.Add(identity.DefaultLoginWindow), svc.RetryAt(locked))
}

func TestLogin_SuccessResetsAttempts(t *testing.T) {
	svc := newService(t, time.Now())
	ctx := context.Background()

	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, a, err := svc.Login(ctx, "nobody@gmail.com", "x", identity.LoginAttempts{})
	assert.ErrorIs(t, err, users.ErrInvalidCredentials, "unknown emails count as failures")
	assert.Equal(t, 1, a.Count)

	p, a, err := svc.Login(ctx, " ANA@gmail.com ", "secret123", a)
	require.NoError(t, err)
	assert.Equal(t, "ana@gmail.com", p.Email)
	assert.Equal(t, identity.LoginAttempts{}, a)
}

func TestAssignRole(t *testing.T) {
	svc := newService(t, time.Now())
	ctx := context.Background()

	p, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.AssignRole(ctx, access.Actor{ID: p.ID, Role: access.RoleMember}, p.ID, "admin")
	assert.ErrorIs(t, err, users.ErrForbidden)

	_, err = svc.AssignRole(ctx, admin, p.ID, "root")
	assert.Equal(t, validation.KindInvalidChoice, validation.KindOf(err))

	updated, err := svc.AssignRole(ctx, admin, p.ID, "premium_member")
	require.NoError(t, err)
	assert.Equal(t, access.RolePremiumMember, updated.Role)
	assert.True(t, updated.IsPremium())

	_, err = svc.AssignRole(ctx, admin, "missing", "member")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestCreateStaff(t *testing.T) {
	svc := newService(t, time.Now())
	ctx := context.Background()

	in := users.StaffInput{
		Name:           "Clinica Central",
		Email:          "contacto@vetcentral.cl",
		NationalIDType: "RUT",
		NationalID:     "76000000-1",
		Role:           "clinic",
		Password:       "clinic123",
	}

	_, err := svc.CreateStaff(ctx, access.Actor{ID: "v", Role: access.RoleVeterinarian}, in)
	assert.ErrorIs(t, err, users.ErrForbidden)

	bad := in
	bad.Role = "member"
	_, err = svc.CreateStaff(ctx, admin, bad)
	assert.True(t, validation.HasKind(err, validation.KindInvalidChoice))

	p, err := svc.CreateStaff(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, access.RoleClinic, p.Role)

	n, err := svc.CountByRole(ctx, access.RoleClinic)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEnsureAdmin_OnlyOnce(t *testing.T) {
	svc := newService(t, time.Now())
	ctx := context.Background()

	in := users.StaffInput{
		Name: "Root Admin", Email: "admin@gmail.com",
		NationalIDType: "DNI", NationalID: "1", Password: "admin1234",
	}
	_, created, err := svc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.True(t, created)

	in.Email = "other@gmail.com"
	in.NationalID = "2"
	_, created, err = svc.EnsureAdmin(ctx, in)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUpdateProfile(t *testing.T) {
	svc := newService(t, time.Now())
	ctx := context.Background()

	p, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	other := validRegistration()
	other.Email = "luis@gmail.com"
	other.NationalID = "22222222-2"
	q, err := svc.Register(ctx, other)
	require.NoError(t, err)

	self := access.Actor{ID: p.ID, Role: access.RoleMember}

	name := "ana pérez"
	sameEmail := "ana@gmail.com"
	updated, err := svc.UpdateProfile(ctx, self, p.ID, users.ProfileInput{Name: &name, Email: &sameEmail})
	require.NoError(t, err, "own email is excluded from the duplicate check")
	assert.Equal(t, "Ana Pérez", updated.Name)

	taken := "luis@gmail.com"
	_, err = svc.UpdateProfile(ctx, self, p.ID, users.ProfileInput{Email: &taken})
	assert.Equal(t, validation.KindDuplicateEmail, validation.KindOf(err))

	_, err = svc.UpdateProfile(ctx, self, q.ID, users.ProfileInput{Name: &name})
	assert.ErrorIs(t, err, users.ErrForbidden)
}
