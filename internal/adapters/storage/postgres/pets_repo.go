package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-records/internal/domain/pets"

	"github.com/shopspring/decimal"
)

type PetsRepo struct {
	db *sql.DB
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, ficket, owner_id, veterinarian_id,
	name, description, species, size, breed, cross_bred, sex,
	age, birth_date, weight_kg, allergies, photo_ref,
	state, delete_reason, deleted_at,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	`,
		p.ID, p.Ficket, p.OwnerID, nullString(p.VeterinarianID),
		p.Name, p.Description, string(p.Species), string(p.Size), p.Breed, p.CrossBred, string(p.Sex),
		nullInt(p.Age), nullTime(p.BirthDate), nullDecimal(p.WeightKg), p.Allergies, p.PhotoRef,
		string(p.State), p.DeleteReason, nullTime(p.DeletedAt),
		p.CreatedAt, p.UpdatedAt,
	)
	if uniqueViolation(err, "pets_ficket_key") {
		return pets.ErrFicketTaken
	}
	return err
}

// Update no toca ficket, especie ni estado.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			owner_id = $2,
			veterinarian_id = $3,
			name = $4,
			description = $5,
			size = $6,
			breed = $7,
			cross_bred = $8,
			sex = $9,
			age = $10,
			birth_date = $11,
			weight_kg = $12,
			allergies = $13,
			photo_ref = $14,
			updated_at = $15
		WHERE id = $1 AND state = 'active'
	`,
		p.ID, p.OwnerID, nullString(p.VeterinarianID),
		p.Name, p.Description, string(p.Size), p.Breed, p.CrossBred, string(p.Sex),
		nullInt(p.Age), nullTime(p.BirthDate), nullDecimal(p.WeightKg), p.Allergies, p.PhotoRef,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	return r.missingOrDeleted(ctx, p.ID, pets.ErrPetDeleted)
}

// SoftDelete es condicional sobre state: de dos borrados concurrentes gana uno.
func (r *PetsRepo) SoftDelete(ctx context.Context, id, reason string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET state = 'deleted', delete_reason = $2, deleted_at = $3, updated_at = $3
		WHERE id = $1 AND state = 'active'
	`, id, reason, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	return r.missingOrDeleted(ctx, id, pets.ErrAlreadyDeleted)
}

func (r *PetsRepo) missingOrDeleted(ctx context.Context, id string, deleted error) error {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE id::text = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pets.ErrNotFound
	}
	return deleted
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}
	return scanPet(r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id::text = $1`, id))
}

func (r *PetsRepo) FicketTaken(ctx context.Context, ficket string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pets WHERE ficket = $1)`, ficket).Scan(&taken)
	return taken, err
}

func (r *PetsRepo) List(ctx context.Context, filter pets.ListFilter) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE state = 'active'
			AND ($1 = '' OR owner_id::text = $1)
			AND ($2 = '' OR veterinarian_id::text = $2)
		ORDER BY created_at ASC
	`, filter.OwnerID, filter.VeterinarianID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PetsRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE state = 'active'`).Scan(&n)
	return n, err
}

func scanPet(row rowScanner) (pets.Pet, error) {
	var (
		p                         pets.Pet
		vet                       sql.NullString
		species, size, sex, state string
		age                       sql.NullInt64
		birth, deletedAt          sql.NullTime
		weight                    decimal.NullDecimal
	)
	if err := row.Scan(
		&p.ID, &p.Ficket, &p.OwnerID, &vet,
		&p.Name, &p.Description, &species, &size, &p.Breed, &p.CrossBred, &sex,
		&age, &birth, &weight, &p.Allergies, &p.PhotoRef,
		&state, &p.DeleteReason, &deletedAt,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}

	p.VeterinarianID = vet.String
	p.Species = pets.Species(species)
	p.Size = pets.Size(size)
	p.Sex = pets.Sex(sex)
	p.State = pets.State(state)
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	// birth_date es DATE: llega como medianoche UTC.
	p.BirthDate = timePtr(birth)
	if weight.Valid {
		w := weight.Decimal
		p.WeightKg = &w
	}
	p.DeletedAt = timePtr(deletedAt)
	return p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
