package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "pets_ficket_key"}

	assert.True(t, uniqueViolation(pgErr, "pets_ficket_key"))
	assert.True(t, uniqueViolation(fmt.Errorf("insert: %w", pgErr), "PETS_FICKET_KEY"))
	assert.False(t, uniqueViolation(pgErr, "users_email_key"))
	assert.False(t, uniqueViolation(&pgconn.PgError{Code: "23503", ConstraintName: "pets_ficket_key"}, "pets_ficket_key"))
	assert.False(t, uniqueViolation(errors.New("boom"), "pets_ficket_key"))
	assert.False(t, uniqueViolation(nil, "pets_ficket_key"))
}

func TestMapUserErr(t *testing.T) {
	assert.NoError(t, mapUserErr(nil))
	assert.Equal(t, "email already registered", mapUserErr(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}).Error())
	assert.Equal(t, "identification already registered", mapUserErr(&pgconn.PgError{Code: "23505", ConstraintName: "users_national_id_key"}).Error())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_x\\`, escapeLike(`100% _x\`))
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, nullTime(nil).Valid)
	now := time.Now()
	assert.Equal(t, now, *timePtr(nullTime(&now)))
	assert.Nil(t, timePtr(nullTime(nil)))

	assert.False(t, nullString("").Valid)
	assert.True(t, nullString("x").Valid)

	age := 3
	assert.Equal(t, int64(3), nullInt(&age).Int64)
	assert.False(t, nullDecimal(nil).Valid)
}
