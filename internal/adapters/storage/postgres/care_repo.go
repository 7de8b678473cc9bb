package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-records/internal/domain/care"
)

type CareRepo struct {
	db *sql.DB
}

var _ care.Repository = (*CareRepo)(nil)

func NewCareRepo(db *sql.DB) *CareRepo {
	return &CareRepo{db: db}
}

const careColumns = `id, pet_id, care_type, next_due, dosage, deleted, created_at, updated_at`

func (r *CareRepo) Create(ctx context.Context, c care.Reminder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO care_reminders (`+careColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.ID, c.PetID, c.CareType, c.NextDue, c.Dosage, c.Deleted, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CareRepo) Update(ctx context.Context, c care.Reminder) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE care_reminders
		SET care_type = $2, next_due = $3, dosage = $4, updated_at = $5
		WHERE id = $1 AND NOT deleted
	`, c.ID, c.CareType, c.NextDue, c.Dosage, c.UpdatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return care.ErrNotFound
	}
	return nil
}

func (r *CareRepo) GetByID(ctx context.Context, id string) (care.Reminder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return care.Reminder{}, care.ErrNotFound
	}
	return scanReminder(r.db.QueryRowContext(ctx, `SELECT `+careColumns+` FROM care_reminders WHERE id::text = $1`, id))
}

func (r *CareRepo) ListByPet(ctx context.Context, petID string) ([]care.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+careColumns+`
		FROM care_reminders
		WHERE pet_id::text = $1 AND NOT deleted
		ORDER BY next_due ASC, created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]care.Reminder, 0)
	for rows.Next() {
		c, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CareRepo) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE care_reminders SET deleted = TRUE WHERE id::text = $1 AND NOT deleted`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM care_reminders WHERE id::text = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return care.ErrNotFound
	}
	return care.ErrAlreadyDeleted
}

func (r *CareRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM care_reminders WHERE NOT deleted`).Scan(&n)
	return n, err
}

func scanReminder(row rowScanner) (care.Reminder, error) {
	var c care.Reminder
	if err := row.Scan(&c.ID, &c.PetID, &c.CareType, &c.NextDue, &c.Dosage, &c.Deleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return care.Reminder{}, care.ErrNotFound
		}
		return care.Reminder{}, err
	}
	return c, nil
}
