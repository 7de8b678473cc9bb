package events

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/validation"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/platform/sentinel"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = fmt.Errorf("event %w", sentinel.ErrNotFound)
	ErrForbidden      = fmt.Errorf("event access %w", sentinel.ErrForbidden)
	ErrAlreadyDeleted = fmt.Errorf("event already deleted: %w", sentinel.ErrConflict)
)

const (
	FieldEventDate        = "event_date"
	FieldType             = "type"
	FieldSymptoms         = "symptoms"
	FieldPreconsultStatus = "preconsult_status"
	FieldAttachments      = "attachments"

	typeMaxLen           = 20
	preconsultMaxLen     = 30
	attachmentDescMaxLen = 100

	defaultLimit = 50
	maxLimit     = 200
)

// PetLookup resuelve fichas activas.
type PetLookup interface {
	GetByID(ctx context.Context, petID string) (pets.Pet, error)
}

type Service struct {
	repo      Repository
	pets      PetLookup
	files     AttachmentStore
	mediaBase string
	validator *pets.Validator
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

func WithAttachmentStore(st AttachmentStore) Option { return func(s *Service) { s.files = st } }

// WithMediaBase fija el prefijo de rutas locales aceptado para adjuntos por URL.
func WithMediaBase(base string) Option { return func(s *Service) { s.mediaBase = base } }

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo Repository, petLookup PetLookup, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		pets:      petLookup,
		mediaBase: "/media",
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mediaBase = "/" + strings.Trim(s.mediaBase, "/") + "/"
	s.validator = pets.NewValidator(s.now)
	return s
}

// AttachmentInput es un adjunto ya publicado (URL) o un archivo a guardar (File).
type AttachmentInput struct {
	URL         string
	Description string
	File        *FileUpload
}

type CreateInput struct {
	EventDate        time.Time
	Type             string
	Symptoms         string
	Description      string
	PreconsultStatus string
	Observations     string
	Attachments      []AttachmentInput
}

// Create registra un evento sobre una ficha activa. El veterinario asignado
// necesita consentimiento.
func (s *Service) Create(ctx context.Context, actor access.Actor, petID string, in CreateInput, consent bool) (ClinicalEvent, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return ClinicalEvent{}, err
	}
	res := resourceOf(p)
	res.Consent = consent
	if actor.NeedsConsent(access.OpEventCreate, res) {
		return ClinicalEvent{}, pets.ErrConsentRequired
	}
	if !actor.Can(access.OpEventCreate, res) {
		return ClinicalEvent{}, ErrForbidden
	}

	e, err := s.validate(in)
	if err != nil {
		s.metrics.IncValidationFailure("event")
		return ClinicalEvent{}, err
	}

	now := s.now().UTC()
	e.ID = uuid.NewString()
	e.PetID = p.ID
	e.ResponsibleID = actor.ID
	e.CreatedAt = now

	var saved []string
	for i, a := range in.Attachments {
		ref := strings.TrimSpace(a.URL)
		if a.File != nil {
			if ref, err = s.saveFile(ctx, e.ID, i, *a.File); err != nil {
				s.discardFiles(ctx, e.ID, saved)
				return ClinicalEvent{}, err
			}
			saved = append(saved, ref)
		}
		desc := strings.TrimSpace(a.Description)
		if desc == "" {
			desc = fmt.Sprintf("Photo %d of the event", i+1)
		}
		e.Attachments = append(e.Attachments, Attachment{
			ID:          uuid.NewString(),
			EventID:     e.ID,
			URL:         ref,
			Description: desc,
			UploadedBy:  actor.ID,
			UploadedAt:  now,
		})
	}

	if err := s.repo.Create(ctx, e); err != nil {
		s.discardFiles(ctx, e.ID, saved)
		return ClinicalEvent{}, err
	}

	s.log.Info("clinical event created", map[string]any{
		"event_id":    e.ID,
		"pet_id":      e.PetID,
		"actor_id":    actor.ID,
		"attachments": len(e.Attachments),
	})
	return e, nil
}

func (s *Service) validate(in CreateInput) (ClinicalEvent, error) {
	var errs validation.Errors
	var e ClinicalEvent

	if in.EventDate.IsZero() {
		errs.Add(validation.New(FieldEventDate, validation.KindRequired, "event date is required"))
	} else {
		y, m, d := in.EventDate.Date()
		e.EventDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	e.Type = strings.TrimSpace(in.Type)
	switch {
	case e.Type == "":
		errs.Add(validation.New(FieldType, validation.KindRequired, "event type is required"))
	case utf8.RuneCountInString(e.Type) > typeMaxLen:
		errs.Add(validation.New(FieldType, validation.KindTooLong, fmt.Sprintf("event type must have at most %d characters", typeMaxLen)))
	}

	e.Symptoms = strings.TrimSpace(in.Symptoms)
	if e.Symptoms == "" {
		errs.Add(validation.New(FieldSymptoms, validation.KindRequired, "reported symptoms are required"))
	}

	e.PreconsultStatus = strings.TrimSpace(in.PreconsultStatus)
	if e.PreconsultStatus == "" {
		e.PreconsultStatus = PreconsultPending
	} else if utf8.RuneCountInString(e.PreconsultStatus) > preconsultMaxLen {
		errs.Add(validation.New(FieldPreconsultStatus, validation.KindTooLong, fmt.Sprintf("preconsult status must have at most %d characters", preconsultMaxLen)))
	}

	e.Description = strings.TrimSpace(in.Description)
	e.Observations = strings.TrimSpace(in.Observations)

	if len(in.Attachments) > MaxAttachments {
		errs.Add(validation.New(FieldAttachments, validation.KindTooManyAttachments, fmt.Sprintf("at most %d attachments are allowed", MaxAttachments)))
	}
	for i, a := range in.Attachments {
		field := fmt.Sprintf("%s[%d]", FieldAttachments, i)
		if utf8.RuneCountInString(strings.TrimSpace(a.Description)) > attachmentDescMaxLen {
			errs.Add(validation.New(field, validation.KindTooLong, fmt.Sprintf("attachment description must have at most %d characters", attachmentDescMaxLen)))
		}
		switch {
		case a.File != nil:
			if err := s.validator.ValidatePhoto(*a.File); err != nil {
				fe := validation.List(err)[0]
				errs.Add(validation.New(field, fe.Kind, fe.Message))
			}
		case strings.TrimSpace(a.URL) == "":
			errs.Add(validation.New(field, validation.KindRequired, "attachment needs a file or a url"))
		case !s.allowedURL(strings.TrimSpace(a.URL)):
			errs.Add(validation.New(field, validation.KindInvalidURL, "attachment url must be http(s) or a media path"))
		}
	}

	if err := errs.Err(); err != nil {
		return ClinicalEvent{}, err
	}
	return e, nil
}

// allowedURL acepta URLs http(s) absolutas o rutas bajo la base de medios.
func (s *Service) allowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "":
		return u.Host == "" && strings.HasPrefix(u.Path, s.mediaBase) &&
			path.Clean(u.Path) == u.Path && !strings.Contains(u.Path, "..")
	}
	return false
}

func (s *Service) saveFile(ctx context.Context, eventID string, index int, up FileUpload) (string, error) {
	if s.files == nil {
		return "", errors.New("attachment store not configured")
	}
	ref, err := s.files.SaveAttachment(ctx, eventID, index, up)
	if err != nil {
		return "", fmt.Errorf("save attachment: %w", err)
	}
	return ref, nil
}

// discardFiles borra los adjuntos guardados de un evento que no se persistió.
func (s *Service) discardFiles(ctx context.Context, eventID string, refs []string) {
	for _, ref := range refs {
		if err := s.files.Remove(ctx, ref); err != nil {
			s.log.Warn("discard attachment failed", map[string]any{"event_id": eventID, "url": ref, "error": err})
		}
	}
}

// ListByPet devuelve la ficha y sus eventos vigentes visibles para el actor.
func (s *Service) ListByPet(ctx context.Context, actor access.Actor, petID string, filter ListFilter) (pets.Pet, []ClinicalEvent, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return pets.Pet{}, nil, err
	}
	if !actor.Can(access.OpEventRead, resourceOf(p)) {
		return pets.Pet{}, nil, ErrForbidden
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	items, err := s.repo.ListByPet(ctx, p.ID, filter)
	if err != nil {
		return pets.Pet{}, nil, err
	}
	return p, items, nil
}

// Get devuelve un evento vigente de la ficha.
func (s *Service) Get(ctx context.Context, actor access.Actor, petID, eventID string) (ClinicalEvent, error) {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return ClinicalEvent{}, err
	}
	if !actor.Can(access.OpEventRead, resourceOf(p)) {
		return ClinicalEvent{}, ErrForbidden
	}
	e, err := s.GetByID(ctx, eventID)
	if err != nil {
		return ClinicalEvent{}, err
	}
	if e.Deleted || e.PetID != p.ID {
		return ClinicalEvent{}, ErrNotFound
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (ClinicalEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ClinicalEvent{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// SoftDelete marca el evento como borrado. Un segundo intento devuelve ErrAlreadyDeleted.
func (s *Service) SoftDelete(ctx context.Context, actor access.Actor, petID, eventID string) error {
	p, err := s.pets.GetByID(ctx, petID)
	if err != nil {
		return err
	}
	if !actor.Can(access.OpEventDelete, resourceOf(p)) {
		return ErrForbidden
	}
	e, err := s.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if e.PetID != p.ID {
		return ErrNotFound
	}
	if err := s.repo.SoftDelete(ctx, e.ID); err != nil {
		return err
	}
	s.log.Info("clinical event deleted", map[string]any{"event_id": e.ID, "pet_id": p.ID, "actor_id": actor.ID})
	return nil
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

func resourceOf(p pets.Pet) access.Resource {
	return access.Resource{OwnerID: p.OwnerID, VeterinarianID: p.VeterinarianID}
}
