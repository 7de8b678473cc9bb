package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/validation"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/metrics"
	"pet-records/internal/platform/sentinel"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = fmt.Errorf("notification %w", sentinel.ErrNotFound)
	ErrForbidden = fmt.Errorf("notification access %w", sentinel.ErrForbidden)
)

const (
	titleMaxLen = 100
	typeMaxLen  = 20
)

type Service struct {
	repo    Repository
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(repo Repository, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) Emit(ctx context.Context, d Draft) (Notification, error) {
	var errs validation.Errors
	if strings.TrimSpace(d.RecipientID) == "" {
		errs.Add(validation.New("recipient_id", validation.KindRequired, "recipient is required"))
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		errs.Add(validation.New("title", validation.KindRequired, "title is required"))
	} else if utf8.RuneCountInString(title) > titleMaxLen {
		// El título se recorta: suele armarse con el nombre de la mascota.
		title = string([]rune(title)[:titleMaxLen])
	}
	typ := Type(strings.TrimSpace(string(d.Type)))
	if typ == "" {
		typ = TypeSystem
	}
	if utf8.RuneCountInString(string(typ)) > typeMaxLen {
		errs.Add(validation.New("type", validation.KindTooLong, fmt.Sprintf("type must have at most %d characters", typeMaxLen)))
	}
	if err := errs.Err(); err != nil {
		return Notification{}, err
	}

	now := s.now().UTC()
	sendAt := d.SendAt
	if sendAt.IsZero() {
		sendAt = now
	}

	n := Notification{
		ID:          uuid.NewString(),
		RecipientID: strings.TrimSpace(d.RecipientID),
		PetID:       strings.TrimSpace(d.PetID),
		Type:        typ,
		Title:       title,
		Message:     strings.TrimSpace(d.Message),
		CreatedAt:   now,
		SendAt:      sendAt.UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return Notification{}, err
	}
	s.metrics.IncNotifications(string(typ))
	s.log.Debug("notification emitted", map[string]any{
		"notification_id": n.ID,
		"recipient_id":    n.RecipientID,
		"type":            string(n.Type),
	})
	return n, nil
}

// ListForRecipient devuelve la bandeja del actor (solo socios premium y admin).
func (s *Service) ListForRecipient(ctx context.Context, actor access.Actor, unreadOnly bool) ([]Notification, error) {
	if !actor.Can(access.OpNotificationsRead, access.Resource{OwnerID: actor.ID}) {
		return nil, ErrForbidden
	}
	return s.repo.ListByRecipient(ctx, actor.ID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, actor access.Actor, id string) (Notification, error) {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return Notification{}, err
	}
	if n.Read {
		return n, nil
	}
	at := s.now().UTC()
	if err := s.repo.MarkRead(ctx, n.ID, at); err != nil {
		return Notification{}, err
	}
	n.Read = true
	n.ReadAt = &at
	return n, nil
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	n, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.repo.SoftDelete(ctx, n.ID)
}

func (s *Service) owned(ctx context.Context, actor access.Actor, id string) (Notification, error) {
	n, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return Notification{}, err
	}
	if n.Deleted {
		return Notification{}, ErrNotFound
	}
	if !actor.Can(access.OpNotificationsRead, access.Resource{OwnerID: n.RecipientID}) {
		// No revelar la existencia de notificaciones ajenas.
		if n.RecipientID != actor.ID {
			return Notification{}, ErrNotFound
		}
		return Notification{}, ErrForbidden
	}
	return n, nil
}
