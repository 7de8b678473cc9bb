package care

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/notifications"
	"pet-records/internal/domain/validation"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/platform/sentinel"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = fmt.Errorf("care reminder %w", sentinel.ErrNotFound)
	ErrForbidden      = fmt.Errorf("care access %w", sentinel.ErrForbidden)
	ErrAlreadyDeleted = fmt.Errorf("care reminder already deleted: %w", sentinel.ErrConflict)
)

const (
	FieldCareType = "care_type"
	FieldNextDue  = "next_due"

	DateLayout = "2006-01-02"

	careTypeMaxLen = 50
)

// triggerTypes son los cuidados que generan aviso al dueño premium.
var triggerTypes = map[string]struct{}{
	TypeVaccination:       {},
	TypeVeterinaryControl: {},
}

// Notifier emite notificaciones in-app.
type Notifier interface {
	Emit(ctx context.Context, d notifications.Draft) (notifications.Notification, error)
}

// RoleLookup resuelve el rol vigente del dueño.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (access.Role, error)
}

type Service struct {
	repo     Repository
	notifier Notifier
	roles    RoleLookup
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

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
	return s
}

type AddInput struct {
	CareType string
	NextDue  string // YYYY-MM-DD
	Dosage   string
}

type UpdateInput struct {
	CareType *string
	NextDue  *string
	Dosage   *string
}

// Add crea el recordatorio. El control de acceso lo hace quien resuelve la
// mascota (pets.Service.AddCareReminder).
func (s *Service) Add(ctx context.Context, t Target, in AddInput) (Reminder, error) {
	var errs validation.Errors

	careType, err := validateCareType(in.CareType)
	errs.Add(err)
	due, err := parseDue(in.NextDue)
	errs.Add(err)
	dosage, err := ValidateDosage(in.Dosage)
	errs.Add(err)

	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("care")
		return Reminder{}, err
	}

	now := s.now().UTC()
	r := Reminder{
		ID:        uuid.NewString(),
		PetID:     t.PetID,
		CareType:  careType,
		NextDue:   due,
		Dosage:    dosage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Reminder{}, err
	}

	s.notifyOwner(ctx, t, r, false)
	return r, nil
}

func (s *Service) Update(ctx context.Context, actor access.Actor, t Target, reminderID string, in UpdateInput) (Reminder, error) {
	if !actor.Can(access.OpCareUpdate, resourceOf(t)) {
		return Reminder{}, ErrForbidden
	}
	current, err := s.load(ctx, t, reminderID)
	if err != nil {
		return Reminder{}, err
	}

	var errs validation.Errors
	next := current
	if in.CareType != nil {
		next.CareType, err = validateCareType(*in.CareType)
		errs.Add(err)
	}
	if in.NextDue != nil {
		next.NextDue, err = parseDue(*in.NextDue)
		errs.Add(err)
	}
	if in.Dosage != nil {
		next.Dosage, err = ValidateDosage(*in.Dosage)
		errs.Add(err)
	}
	if err := errs.Err(); err != nil {
		s.metrics.IncValidationFailure("care")
		return Reminder{}, err
	}

	next.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, next); err != nil {
		return Reminder{}, err
	}

	s.notifyOwner(ctx, t, next, true)
	return next, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, t Target, reminderID string) error {
	if !actor.Can(access.OpCareDelete, resourceOf(t)) {
		return ErrForbidden
	}
	current, err := s.load(ctx, t, reminderID)
	if err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, current.ID); err != nil {
		return err
	}
	s.log.Info("care reminder deleted", map[string]any{
		"reminder_id": current.ID,
		"pet_id":      t.PetID,
		"actor_id":    actor.ID,
	})
	return nil
}

// ListByPet devuelve los recordatorios vigentes ordenados por vencimiento.
func (s *Service) ListByPet(ctx context.Context, actor access.Actor, t Target) ([]Reminder, error) {
	if !actor.Can(access.OpCareRead, resourceOf(t)) {
		return nil, ErrForbidden
	}
	return s.repo.ListByPet(ctx, t.PetID)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

// load busca un recordatorio vigente que pertenezca a la mascota.
func (s *Service) load(ctx context.Context, t Target, reminderID string) (Reminder, error) {
	reminderID = strings.TrimSpace(reminderID)
	if reminderID == "" {
		return Reminder{}, ErrNotFound
	}
	r, err := s.repo.GetByID(ctx, reminderID)
	if err != nil {
		return Reminder{}, err
	}
	if r.Deleted || r.PetID != t.PetID {
		return Reminder{}, ErrNotFound
	}
	return r, nil
}

// notifyOwner avisa al dueño premium. Un fallo no revierte el recordatorio.
func (s *Service) notifyOwner(ctx context.Context, t Target, r Reminder, updated bool) {
	if s.notifier == nil || s.roles == nil || t.OwnerID == "" {
		return
	}
	if _, ok := triggerTypes[r.CareType]; !ok {
		return
	}

	fields := map[string]any{"reminder_id": r.ID, "pet_id": t.PetID, "owner_id": t.OwnerID}

	role, err := s.roles.RoleOf(ctx, t.OwnerID)
	if err != nil {
		fields["error"] = err
		s.log.Warn("care reminder: owner lookup failed", fields)
		return
	}
	if role != access.RolePremiumMember {
		return
	}

	label := strings.ReplaceAll(r.CareType, "_", " ")
	d := notifications.Draft{
		RecipientID: t.OwnerID,
		PetID:       t.PetID,
		Type:        notifications.TypeReminder,
		Title:       fmt.Sprintf("Reminder: %s for %s", label, t.PetName),
		Message:     fmt.Sprintf("Scheduled %s for %s on %s.", label, t.PetName, r.NextDue.Format(DateLayout)),
		SendAt:      r.NextDue,
	}
	if updated {
		d.Title = fmt.Sprintf("Reminder updated: %s for %s", label, t.PetName)
		d.Message = fmt.Sprintf("The %s for %s is now scheduled on %s.", label, t.PetName, r.NextDue.Format(DateLayout))
	}
	if d.SendAt.IsZero() {
		d.SendAt = s.now().UTC()
	}

	if _, err := s.notifier.Emit(ctx, d); err != nil {
		fields["error"] = err
		s.log.Warn("care reminder: notification failed", fields)
	}
}

func validateCareType(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case v == "":
		return "", validation.New(FieldCareType, validation.KindRequired, "care type is required")
	case utf8.RuneCountInString(v) > careTypeMaxLen:
		return "", validation.New(FieldCareType, validation.KindTooLong, fmt.Sprintf("care type must have at most %d characters", careTypeMaxLen))
	}
	return strings.Join(strings.Fields(v), "_"), nil
}

func parseDue(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, validation.New(FieldNextDue, validation.KindRequired, "next due date is required")
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return time.Time{}, validation.New(FieldNextDue, validation.KindInvalidDate, "next due date must be YYYY-MM-DD")
	}
	return t, nil
}

func resourceOf(t Target) access.Resource {
	return access.Resource{OwnerID: t.OwnerID, VeterinarianID: t.VeterinarianID}
}
