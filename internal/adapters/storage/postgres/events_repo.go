package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pet-records/internal/domain/events"
)

type EventsRepo struct {
	db *sql.DB
}

var _ events.Repository = (*EventsRepo)(nil)

func NewEventsRepo(db *sql.DB) *EventsRepo {
	return &EventsRepo{db: db}
}

const eventColumns = `
	id, pet_id, responsible_id, event_date, type, symptoms, description,
	preconsult_status, observations, deleted, created_at`

// Create inserta el evento y sus adjuntos en una sola transacción.
func (r *EventsRepo) Create(ctx context.Context, e events.ClinicalEvent) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO clinical_events (`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		e.ID, e.PetID, e.ResponsibleID, e.EventDate, e.Type, e.Symptoms, e.Description,
		e.PreconsultStatus, e.Observations, e.Deleted, e.CreatedAt,
	); err != nil {
		return err
	}

	for i, a := range e.Attachments {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO event_attachments (
				id, event_id, position, url, description, uploaded_by, uploaded_at, deleted
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, a.ID, e.ID, i, a.URL, a.Description, a.UploadedBy, a.UploadedAt, a.Deleted); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (events.ClinicalEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return events.ClinicalEvent{}, events.ErrNotFound
	}

	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM clinical_events WHERE id::text = $1`, id))
	if err != nil {
		return events.ClinicalEvent{}, err
	}
	byEvent, err := r.attachments(ctx, []string{e.ID})
	if err != nil {
		return events.ClinicalEvent{}, err
	}
	e.Attachments = byEvent[e.ID]
	return e, nil
}

func (r *EventsRepo) ListByPet(ctx context.Context, petID string, filter events.ListFilter) ([]events.ClinicalEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"pet_id::text = $1", "NOT deleted"}
	args := []any{petID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Types) > 0 {
		lowered := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			lowered = append(lowered, strings.ToLower(t))
		}
		where = append(where, "lower(type) = ANY("+arg(lowered)+")")
	}
	if filter.From != nil {
		where = append(where, "event_date >= "+arg(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "event_date <= "+arg(*filter.To))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(type || ' ' || symptoms || ' ' || description || ' ' || observations) ILIKE "+arg("%"+escapeLike(q)+"%"))
	}

	query := `SELECT ` + eventColumns + ` FROM clinical_events WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY event_date DESC, created_at DESC LIMIT ` + arg(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]events.ClinicalEvent, 0)
	ids := make([]string, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		ids = append(ids, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	byEvent, err := r.attachments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Attachments = byEvent[out[i].ID]
	}
	return out, nil
}

func (r *EventsRepo) attachments(ctx context.Context, eventIDs []string) (map[string][]events.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, url, description, uploaded_by, uploaded_at, deleted
		FROM event_attachments
		WHERE event_id::text = ANY($1)
		ORDER BY event_id, position
	`, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]events.Attachment)
	for rows.Next() {
		var a events.Attachment
		if err := rows.Scan(&a.ID, &a.EventID, &a.URL, &a.Description, &a.UploadedBy, &a.UploadedAt, &a.Deleted); err != nil {
			return nil, err
		}
		out[a.EventID] = append(out[a.EventID], a)
	}
	return out, rows.Err()
}

func (r *EventsRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE clinical_events SET deleted = TRUE WHERE id::text = $1 AND NOT deleted`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM clinical_events WHERE id::text = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return events.ErrNotFound
	}
	return events.ErrAlreadyDeleted
}

func (r *EventsRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clinical_events WHERE NOT deleted`).Scan(&n)
	return n, err
}

func scanEvent(row rowScanner) (events.ClinicalEvent, error) {
	var e events.ClinicalEvent
	if err := row.Scan(
		&e.ID, &e.PetID, &e.ResponsibleID, &e.EventDate, &e.Type, &e.Symptoms, &e.Description,
		&e.PreconsultStatus, &e.Observations, &e.Deleted, &e.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.ClinicalEvent{}, events.ErrNotFound
		}
		return events.ClinicalEvent{}, err
	}
	return e, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
