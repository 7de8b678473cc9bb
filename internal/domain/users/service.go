package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/identity"
	"pet-records/internal/domain/validation"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/platform/sentinel"
	"pet-records/internal/ports/auth"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = fmt.Errorf("user %w", sentinel.ErrNotFound)
	ErrEmailTaken         = errors.New("email already registered")
	ErrNationalIDTaken    = errors.New("identification already registered")
	ErrForbidden          = fmt.Errorf("user management %w", sentinel.ErrForbidden)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLocked             = errors.New("too many failed login attempts")
)

const (
	FieldPhone = "phone"
	FieldRole  = "role"

	phoneMaxLen = 15
)

// staffRoles son los roles que un admin puede dar de alta directamente.
var staffRoles = map[access.Role]struct{}{
	access.RoleVeterinarian: {},
	access.RoleClinic:       {},
	access.RoleCollaborator: {},
}

type Service struct {
	repo     Repository
	ids      *identity.Validator
	creds    *identity.CredentialPolicy
	attempts identity.AttemptPolicy
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithAttemptPolicy(p identity.AttemptPolicy) Option {
	return func(s *Service) { s.attempts = p }
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, authn auth.Authenticator, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		ids:      identity.NewValidator(repo),
		creds:    identity.NewCredentialPolicy(authn),
		attempts: identity.DefaultAttemptPolicy(),
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	Name            string
	Email           string
	Phone           string
	NationalIDType  string
	NationalID      string
	Password        string
	PasswordConfirm string
}

// Register da de alta una persona con rol member.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Person, error) {
	var errs validation.Errors
	p, err := s.validateIdentity(ctx, &errs, in.Name, in.Email, in.Phone, in.NationalIDType, in.NationalID, "")
	if err != nil {
		return Person{}, err
	}
	errs.Add(s.creds.ValidatePassword(in.Password))
	errs.Add(s.creds.ValidateConfirmation(in.Password, in.PasswordConfirm))
	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("person")
		return Person{}, err
	}

	hash, err := s.creds.Hash(ctx, in.Password)
	if err != nil {
		return Person{}, err
	}

	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.Role = access.RoleMember
	p.PasswordHash = hash
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.repo.Create(ctx, p); err != nil {
		return Person{}, conflictAsField(err)
	}
	s.log.Info("person registered", map[string]any{"user_id": p.ID})
	return p, nil
}

// validateIdentity valida los campos de identidad acumulando en errs. Solo devuelve
// error directo cuando falla la infraestructura.
func (s *Service) validateIdentity(ctx context.Context, errs *validation.Errors, name, email, phone, idType, idNumber, excludedID string) (Person, error) {
	var p Person
	var err error

	p.Name, err = s.ids.ValidateName(name)
	errs.Add(err)

	p.Email, err = s.ids.ValidateEmail(ctx, email, excludedID)
	if err := errs.Collect(err); err != nil {
		return Person{}, err
	}

	p.NationalID, err = s.ids.ValidateNationalID(ctx, idType, idNumber, excludedID)
	if err := errs.Collect(err); err != nil {
		return Person{}, err
	}
	p.NationalIDType = strings.TrimSpace(idType)

	p.Phone, err = validatePhone(phone)
	errs.Add(err)

	return p, nil
}

func validatePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	if utf8.RuneCountInString(phone) > phoneMaxLen {
		return "", validation.New(FieldPhone, validation.KindTooLong, fmt.Sprintf("phone must have at most %d characters", phoneMaxLen))
	}
	for _, r := range phone {
		if (r < '0' || r > '9') && r != '+' && r != ' ' && r != '-' {
			return "", validation.New(FieldPhone, validation.KindInvalidCharacters, "phone may only contain digits, spaces, '+' and '-'")
		}
	}
	return phone, nil
}

// conflictAsField traduce una violación de unicidad detectada por el repositorio
// (carrera entre la validación y el insert) al error de campo correspondiente.
func conflictAsField(err error) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return validation.New(identity.FieldEmail, validation.KindDuplicateEmail, "email is already registered")
	case errors.Is(err, ErrNationalIDTaken):
		return validation.New(identity.FieldNationalID, validation.KindDuplicateIdentification, "identification is already registered")
	default:
		return err
	}
}

type ProfileInput struct {
	// Punteros para PATCH real: nil = no tocar.
	Name           *string
	Email          *string
	Phone          *string
	NationalIDType *string
	NationalID     *string
}

// UpdateProfile edita los datos de una persona. Solo la propia persona o un admin.
func (s *Service) UpdateProfile(ctx context.Context, actor access.Actor, userID string, in ProfileInput) (Person, error) {
	if actor.ID != userID && !actor.Can(access.OpUsersManage, access.Resource{}) {
		return Person{}, ErrForbidden
	}

	current, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Person{}, err
	}

	name, email, phone := current.Name, current.Email, current.Phone
	idType, idNumber := current.NationalIDType, current.NationalID
	if in.Name != nil {
		name = *in.Name
	}
	if in.Email != nil {
		email = *in.Email
	}
	if in.Phone != nil {
		phone = *in.Phone
	}
	if in.NationalIDType != nil {
		idType = *in.NationalIDType
	}
	if in.NationalID != nil {
		idNumber = *in.NationalID
	}

	var errs validation.Errors
	next, err := s.validateIdentity(ctx, &errs, name, email, phone, idType, idNumber, current.ID)
	if err != nil {
		return Person{}, err
	}
	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("person")
		return Person{}, err
	}

	current.Name = next.Name
	current.Email = next.Email
	current.Phone = next.Phone
	current.NationalIDType = next.NationalIDType
	current.NationalID = next.NationalID
	current.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, current); err != nil {
		return Person{}, conflictAsField(err)
	}
	return current, nil
}

// Login verifica credenciales con el registro de intentos recibido y devuelve el
// registro actualizado, que el llamador debe persistir.
func (s *Service) Login(ctx context.Context, email, password string, attempts identity.LoginAttempts) (Person, identity.LoginAttempts, error) {
	now := s.now().UTC()
	if s.attempts.Locked(attempts, now) {
		s.metrics.IncLoginLockouts()
		return Person{}, attempts, ErrLocked
	}

	fail := func() (Person, identity.LoginAttempts, error) {
		s.metrics.IncLoginFailures()
		next := s.attempts.Fail(attempts, now)
		if s.attempts.Locked(next, now) {
			s.log.Warn("login locked", map[string]any{"attempts": next.Count})
		}
		return Person{}, next, ErrInvalidCredentials
	}

	p, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail()
		}
		return Person{}, attempts, err
	}

	ok, err := s.creds.Matches(ctx, p.PasswordHash, password)
	if err != nil {
		return Person{}, attempts, err
	}
	if !ok {
		return fail()
	}
	return p, s.attempts.Succeed(), nil
}

// RetryAt indica cuándo vence el bloqueo de este registro.
func (s *Service) RetryAt(a identity.LoginAttempts) time.Time {
	return s.attempts.RetryAt(a)
}

// LockWindow es el TTL con que se persiste un registro de intentos.
func (s *Service) LockWindow() time.Duration {
	if s.attempts.Window <= 0 {
		return identity.DefaultLoginWindow
	}
	return s.attempts.Window
}

// AssignRole cambia el rol de una persona. Solo admin.
func (s *Service) AssignRole(ctx context.Context, actor access.Actor, userID, role string) (Person, error) {
	if !actor.Can(access.OpUsersManage, access.Resource{}) {
		return Person{}, ErrForbidden
	}
	r, ok := access.ParseRole(role)
	if !ok {
		return Person{}, validation.New(FieldRole, validation.KindInvalidChoice, "unknown role")
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Person{}, err
	}
	prev := p.Role
	p.Role = r
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Person{}, err
	}

	s.log.Info("role assigned", map[string]any{
		"user_id":  p.ID,
		"from":     string(prev),
		"to":       string(r),
		"actor_id": actor.ID,
	})
	return p, nil
}

// SetMembership actualiza la cuota de socio. Solo admin.
func (s *Service) SetMembership(ctx context.Context, actor access.Actor, userID string, active bool, expiresAt *time.Time) (Person, error) {
	if !actor.Can(access.OpUsersManage, access.Resource{}) {
		return Person{}, ErrForbidden
	}
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Person{}, err
	}
	p.MembershipActive = active
	p.MembershipExpiresAt = expiresAt
	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Person{}, err
	}
	return p, nil
}

type StaffInput struct {
	Name           string
	Email          string
	Phone          string
	NationalIDType string
	NationalID     string
	Role           string
	Password       string
}

// CreateStaff da de alta veterinarios, clínicas o colaboradores. Solo admin.
func (s *Service) CreateStaff(ctx context.Context, actor access.Actor, in StaffInput) (Person, error) {
	if !actor.Can(access.OpUsersManage, access.Resource{}) {
		return Person{}, ErrForbidden
	}

	var errs validation.Errors
	role, ok := access.ParseRole(in.Role)
	if _, staff := staffRoles[role]; !ok || !staff {
		errs.Add(validation.New(FieldRole, validation.KindInvalidChoice, "role must be veterinarian, clinic or collaborator"))
	}
	p, err := s.createPerson(ctx, &errs, in, role)
	if err != nil {
		return Person{}, err
	}
	s.log.Info("staff created", map[string]any{"user_id": p.ID, "role": string(role), "actor_id": actor.ID})
	return p, nil
}

// EnsureAdmin crea el admin inicial si todavía no existe ninguno.
func (s *Service) EnsureAdmin(ctx context.Context, in StaffInput) (Person, bool, error) {
	n, err := s.repo.CountByRole(ctx, access.RoleAdmin)
	if err != nil {
		return Person{}, false, err
	}
	if n > 0 {
		return Person{}, false, nil
	}
	var errs validation.Errors
	p, err := s.createPerson(ctx, &errs, in, access.RoleAdmin)
	if err != nil {
		return Person{}, false, err
	}
	s.log.Info("admin bootstrapped", map[string]any{"user_id": p.ID})
	return p, true, nil
}

func (s *Service) createPerson(ctx context.Context, errs *validation.Errors, in StaffInput, role access.Role) (Person, error) {
	p, err := s.validateIdentity(ctx, errs, in.Name, in.Email, in.Phone, in.NationalIDType, in.NationalID, "")
	if err != nil {
		return Person{}, err
	}
	errs.Add(s.creds.ValidatePassword(in.Password))
	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("person")
		return Person{}, err
	}

	hash, err := s.creds.Hash(ctx, in.Password)
	if err != nil {
		return Person{}, err
	}

	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.Role = role
	p.PasswordHash = hash
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.Create(ctx, p); err != nil {
		return Person{}, conflictAsField(err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Person{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List devuelve todas las personas. Solo admin.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]Person, error) {
	if !actor.Can(access.OpUsersManage, access.Resource{}) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// RoleOf devuelve el rol vigente de la persona.
func (s *Service) RoleOf(ctx context.Context, id string) (access.Role, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

func (s *Service) CountByRole(ctx context.Context, role access.Role) (int, error) {
	return s.repo.CountByRole(ctx, role)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
