package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

var _ users.Repository = (*UsersRepo)(nil)

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, name, national_id_type, national_id, email, phone, role,
	membership_active, membership_expires_at, password_hash,
	created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, p users.Person) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		p.ID, p.Name, p.NationalIDType, p.NationalID, p.Email, p.Phone, string(p.Role),
		p.MembershipActive, nullTime(p.MembershipExpiresAt), p.PasswordHash,
		p.CreatedAt, p.UpdatedAt,
	)
	return mapUserErr(err)
}

func (r *UsersRepo) Update(ctx context.Context, p users.Person) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			name = $2,
			national_id_type = $3,
			national_id = $4,
			email = $5,
			phone = $6,
			role = $7,
			membership_active = $8,
			membership_expires_at = $9,
			password_hash = $10,
			updated_at = $11
		WHERE id = $1
	`,
		p.ID, p.Name, p.NationalIDType, p.NationalID, p.Email, p.Phone, string(p.Role),
		p.MembershipActive, nullTime(p.MembershipExpiresAt), p.PasswordHash, p.UpdatedAt,
	)
	if err != nil {
		return mapUserErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.Person, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.Person{}, users.ErrNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id))
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.Person, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UsersRepo) List(ctx context.Context) ([]users.Person, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]users.Person, 0)
	for rows.Next() {
		p, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *UsersRepo) CountByRole(ctx context.Context, role access.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}

func (r *UsersRepo) EmailTaken(ctx context.Context, email, excludedID string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id::text <> $2)
	`, email, excludedID).Scan(&taken)
	return taken, err
}

func (r *UsersRepo) NationalIDTaken(ctx context.Context, idType, number, excludedID string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE national_id_type = $1 AND national_id = $2 AND id::text <> $3
		)
	`, idType, number, excludedID).Scan(&taken)
	return taken, err
}

func scanUser(row rowScanner) (users.Person, error) {
	var p users.Person
	var role string
	var expires sql.NullTime
	if err := row.Scan(
		&p.ID, &p.Name, &p.NationalIDType, &p.NationalID, &p.Email, &p.Phone, &role,
		&p.MembershipActive, &expires, &p.PasswordHash,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Person{}, users.ErrNotFound
		}
		return users.Person{}, err
	}
	p.Role = access.Role(role)
	p.MembershipExpiresAt = timePtr(expires)
	return p, nil
}

func mapUserErr(err error) error {
	switch {
	case err == nil:
		return nil
	case uniqueViolation(err, "users_email_key"):
		return users.ErrEmailTaken
	case uniqueViolation(err, "users_national_id_key"):
		return users.ErrNationalIDTaken
	}
	return err
}
