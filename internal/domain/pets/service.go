package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/care"
	"pet-records/internal/domain/users"
	"pet-records/internal/domain/validation"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/platform/sentinel"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = fmt.Errorf("pet %w", sentinel.ErrNotFound)
	ErrForbidden       = fmt.Errorf("pet access %w", sentinel.ErrForbidden)
	ErrConsentRequired = errors.New("veterinarian consent required")
	ErrPetDeleted      = fmt.Errorf("pet is deleted: %w", sentinel.ErrInvalidState)
	ErrAlreadyDeleted  = fmt.Errorf("pet already deleted: %w", sentinel.ErrConflict)
	ErrFicketTaken     = errors.New("ficket already in use")
	ErrFicketConflict  = fmt.Errorf("could not allocate a unique ficket: %w", sentinel.ErrConflict)
)

const (
	FieldFicket         = "ficket"
	FieldVeterinarianID = "veterinarian_id"

	ficketMaxLen = 50
)

// RoleLookup resuelve el rol vigente de una persona.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (access.Role, error)
}

type Service struct {
	repo      Repository
	validator *Validator
	photos    PhotoStore
	care      *care.Service
	roles     RoleLookup
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

func WithPhotoStore(ps PhotoStore) Option { return func(s *Service) { s.photos = ps } }

func WithCare(c *care.Service) Option { return func(s *Service) { s.care = c } }

func WithRoleLookup(r RoleLookup) Option { return func(s *Service) { s.roles = r } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		log:  logger.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = NewValidator(s.now)
	return s
}

// Validator expone el validador con el mismo reloj del servicio.
func (s *Service) Validator() *Validator {
	return s.validator
}

type CreateInput struct {
	Fields

	// OwnerID solo lo puede fijar un admin; vacío = el actor.
	OwnerID        string
	VeterinarianID string

	// Ficket opcional; si choca con uno existente se genera otro.
	Ficket string

	Photo *PhotoUpload
}

func (s *Service) Create(ctx context.Context, actor access.Actor, in CreateInput) (Pet, error) {
	owner := strings.TrimSpace(in.OwnerID)
	if owner == "" || actor.Role != access.RoleAdmin {
		owner = actor.ID
	}
	if !actor.Can(access.OpPetCreate, access.Resource{OwnerID: owner}) {
		return Pet{}, ErrForbidden
	}

	var errs validation.Errors
	p, err := s.validator.Validate(in.Fields)
	errs.Add(err)

	vetID, err := s.checkVeterinarian(ctx, in.VeterinarianID)
	if err := errs.Collect(err); err != nil {
		return Pet{}, err
	}

	ficket := strings.TrimSpace(in.Ficket)
	if utf8.RuneCountInString(ficket) > ficketMaxLen {
		errs.Add(validation.New(FieldFicket, validation.KindTooLong, fmt.Sprintf("ficket must have at most %d characters", ficketMaxLen)))
	}

	if in.Photo != nil {
		errs.Add(s.validator.ValidatePhoto(*in.Photo))
	}

	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("pet")
		return Pet{}, err
	}

	if ficket == "" {
		ficket = NewFicket()
	} else {
		taken, err := s.repo.FicketTaken(ctx, ficket)
		if err != nil {
			return Pet{}, fmt.Errorf("check ficket: %w", err)
		}
		if taken {
			s.metrics.IncFicketCollisions()
			ficket = NewFicket()
		}
	}

	now := s.now().UTC()
	p.ID = uuid.NewString()
	p.Ficket = ficket
	p.OwnerID = owner
	p.VeterinarianID = vetID
	p.State = StateActive
	p.CreatedAt = now
	p.UpdatedAt = now

	if in.Photo != nil {
		ref, err := s.savePhoto(ctx, p.ID, *in.Photo)
		if err != nil {
			return Pet{}, err
		}
		p.PhotoRef = ref
	}

	if err := s.insert(ctx, &p); err != nil {
		s.discardPhoto(ctx, p.ID, p.PhotoRef)
		return Pet{}, err
	}

	s.metrics.IncPetsCreated()
	s.log.Info("pet created", map[string]any{"pet_id": p.ID, "ficket": p.Ficket, "owner_id": p.OwnerID})
	return p, nil
}

// insert confía en la unicidad atómica del repositorio: ante choque regenera
// el ficket una sola vez.
func (s *Service) insert(ctx context.Context, p *Pet) error {
	err := s.repo.Create(ctx, *p)
	if !errors.Is(err, ErrFicketTaken) {
		return err
	}

	s.metrics.IncFicketCollisions()
	p.Ficket = NewFicket()
	err = s.repo.Create(ctx, *p)
	if errors.Is(err, ErrFicketTaken) {
		s.metrics.IncFicketCollisions()
		return ErrFicketConflict
	}
	return err
}

func (s *Service) checkVeterinarian(ctx context.Context, vetID string) (string, error) {
	vetID = strings.TrimSpace(vetID)
	if vetID == "" || s.roles == nil {
		return vetID, nil
	}
	role, err := s.roles.RoleOf(ctx, vetID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return "", validation.New(FieldVeterinarianID, validation.KindInvalidChoice, "veterinarian does not exist")
		}
		return "", fmt.Errorf("resolve veterinarian: %w", err)
	}
	if role != access.RoleVeterinarian {
		return "", validation.New(FieldVeterinarianID, validation.KindInvalidChoice, "assigned user is not a veterinarian")
	}
	return vetID, nil
}

func (s *Service) savePhoto(ctx context.Context, petID string, up PhotoUpload) (string, error) {
	if s.photos == nil {
		return "", errors.New("photo store not configured")
	}
	ref, err := s.photos.Save(ctx, petID, up)
	if err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return ref, nil
}

// discardPhoto borra una foto ya guardada cuya ficha no llegó a persistirse.
func (s *Service) discardPhoto(ctx context.Context, petID, ref string) {
	if ref == "" || s.photos == nil {
		return
	}
	if err := s.photos.Remove(ctx, ref); err != nil {
		s.log.Warn("discard photo failed", map[string]any{"pet_id": petID, "ref": ref, "error": err})
	}
}

// Patch distingue "no enviado" (Set=false) de "limpiar" (Set=true, Value=nil).
type Patch[T any] struct {
	Set   bool
	Value *T
}

type UpdateInput struct {
	Name        *string
	Description *string
	Species     *string // se ignora: la especie no cambia
	Size        *string
	Breed       *string
	CrossBred   *bool
	Sex         *string
	Allergies   *string

	Age       Patch[int]
	BirthDate Patch[time.Time]
	WeightKg  Patch[decimal.Decimal]

	VeterinarianID *string
}

// Update aplica un PATCH sobre una ficha activa y la re-valida completa.
func (s *Service) Update(ctx context.Context, petID string, actor access.Actor, in UpdateInput, consent bool) (Pet, error) {
	current, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if !current.Active() {
		return Pet{}, ErrPetDeleted
	}

	res := resourceOf(current)
	res.Consent = consent
	if actor.NeedsConsent(access.OpPetUpdate, res) {
		return Pet{}, ErrConsentRequired
	}
	if !actor.Can(access.OpPetUpdate, res) {
		return Pet{}, ErrForbidden
	}

	f := fieldsOf(current)
	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if in.Size != nil {
		f.Size = *in.Size
	}
	if in.Breed != nil {
		f.Breed = *in.Breed
	}
	if in.CrossBred != nil {
		f.CrossBred = *in.CrossBred
	}
	if in.Sex != nil {
		f.Sex = *in.Sex
	}
	if in.Allergies != nil {
		f.Allergies = *in.Allergies
	}
	if in.Age.Set {
		f.Age = in.Age.Value
	}
	if in.BirthDate.Set {
		f.BirthDate = in.BirthDate.Value
	}
	if in.WeightKg.Set {
		f.WeightKg = in.WeightKg.Value
	}
	f.Species = string(current.Species)

	var errs validation.Errors
	next, err := s.validator.Validate(f)
	errs.Add(err)

	vetID := current.VeterinarianID
	if in.VeterinarianID != nil {
		if actor.Role != access.RoleAdmin && actor.ID != current.OwnerID {
			return Pet{}, ErrForbidden
		}
		vetID, err = s.checkVeterinarian(ctx, *in.VeterinarianID)
		if err := errs.Collect(err); err != nil {
			return Pet{}, err
		}
	}
	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("pet")
		return Pet{}, err
	}

	next.ID = current.ID
	next.Ficket = current.Ficket
	next.OwnerID = current.OwnerID
	next.VeterinarianID = vetID
	next.PhotoRef = current.PhotoRef
	next.State = current.State
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, next); err != nil {
		return Pet{}, err
	}
	return next, nil
}

// SetPhoto reemplaza la foto de una ficha activa.
func (s *Service) SetPhoto(ctx context.Context, petID string, actor access.Actor, up PhotoUpload, consent bool) (Pet, error) {
	current, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if !current.Active() {
		return Pet{}, ErrPetDeleted
	}
	res := resourceOf(current)
	res.Consent = consent
	if actor.NeedsConsent(access.OpPetUpdate, res) {
		return Pet{}, ErrConsentRequired
	}
	if !actor.Can(access.OpPetUpdate, res) {
		return Pet{}, ErrForbidden
	}

	if err := s.validator.ValidatePhoto(up); err != nil {
		s.metrics.IncValidationFailure("pet")
		return Pet{}, err
	}
	ref, err := s.savePhoto(ctx, current.ID, up)
	if err != nil {
		return Pet{}, err
	}

	current.PhotoRef = ref
	current.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, current); err != nil {
		s.discardPhoto(ctx, current.ID, ref)
		return Pet{}, err
	}
	return current, nil
}

// SoftDelete marca la ficha como borrada. Un segundo intento devuelve ErrAlreadyDeleted.
func (s *Service) SoftDelete(ctx context.Context, petID string, actor access.Actor, reason string) error {
	current, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return err
	}
	if !actor.Can(access.OpPetDelete, resourceOf(current)) {
		return ErrForbidden
	}

	reason = strings.TrimSpace(reason)
	if err := s.repo.SoftDelete(ctx, current.ID, reason, s.now().UTC()); err != nil {
		return err
	}

	s.metrics.IncPetsDeleted()
	s.log.Info("pet soft-deleted", map[string]any{
		"pet_id":   current.ID,
		"actor_id": actor.ID,
		"reason":   reason,
	})
	return nil
}

// AddCareReminder agrega un recordatorio a una ficha activa.
func (s *Service) AddCareReminder(ctx context.Context, petID string, actor access.Actor, in care.AddInput) (care.Reminder, error) {
	if s.care == nil {
		return care.Reminder{}, errors.New("care service not configured")
	}
	current, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return care.Reminder{}, err
	}
	if !current.Active() {
		return care.Reminder{}, ErrPetDeleted
	}
	if !actor.Can(access.OpCareCreate, resourceOf(current)) {
		return care.Reminder{}, ErrForbidden
	}
	return s.care.Add(ctx, targetOf(current), in)
}

// Get devuelve la ficha si el actor puede leerla. Las borradas no existen para nadie.
func (s *Service) Get(ctx context.Context, petID string, actor access.Actor) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if !actor.Can(access.OpPetRead, resourceOf(p)) {
		return Pet{}, ErrForbidden
	}
	return p, nil
}

// GetByID devuelve una ficha activa sin controles de acceso.
func (s *Service) GetByID(ctx context.Context, petID string) (Pet, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Pet{}, ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}
	if !p.Active() {
		return Pet{}, ErrNotFound
	}
	return p, nil
}

// ListForActor: admin ve todas, socio las propias, veterinario las asignadas.
func (s *Service) ListForActor(ctx context.Context, actor access.Actor) ([]Pet, error) {
	switch {
	case actor.Role == access.RoleAdmin:
		return s.repo.List(ctx, ListFilter{})
	case actor.Role.IsMember():
		return s.repo.List(ctx, ListFilter{OwnerID: actor.ID})
	case actor.Role == access.RoleVeterinarian:
		return s.repo.List(ctx, ListFilter{VeterinarianID: actor.ID})
	default:
		return nil, ErrForbidden
	}
}

func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerID, nil
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// CareTarget resuelve la ficha en el formato que consume el módulo de cuidados.
func (s *Service) CareTarget(ctx context.Context, petID string) (care.Target, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return care.Target{}, err
	}
	return targetOf(p), nil
}

func resourceOf(p Pet) access.Resource {
	return access.Resource{OwnerID: p.OwnerID, VeterinarianID: p.VeterinarianID}
}

func targetOf(p Pet) care.Target {
	return care.Target{
		PetID:          p.ID,
		PetName:        p.Name,
		OwnerID:        p.OwnerID,
		VeterinarianID: p.VeterinarianID,
	}
}

func fieldsOf(p Pet) Fields {
	return Fields{
		Name:        p.Name,
		Description: p.Description,
		Species:     string(p.Species),
		Size:        string(p.Size),
		Breed:       p.Breed,
		CrossBred:   p.CrossBred,
		Sex:         string(p.Sex),
		Age:         p.Age,
		BirthDate:   p.BirthDate,
		WeightKg:    p.WeightKg,
		Allergies:   p.Allergies,
	}
}
