package validation_test

import (
	"errors"
	"fmt"
	"testing"

	"pet-records/internal/domain/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_AccumulatesFieldErrors(t *testing.T) {
	var errs validation.Errors
	errs.Add(nil)
	errs.Add(validation.New("name", validation.KindRequired, "name is required"))
	errs.Add(validation.Errors{
		validation.New("weight_kg", validation.KindWeightOutOfRange, "weight out of range"),
		validation.New("breed", validation.KindRequired, "breed is required"),
	})
	errs.Add(errors.New("db down"))

	err := errs.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalid)
	assert.Len(t, validation.List(err), 3)
	assert.True(t, errs.Has("breed", validation.KindRequired))
	assert.False(t, errs.Has("breed", validation.KindTooLong))
	assert.Equal(t, "name: name is required; weight_kg: weight out of range; breed: breed is required", err.Error())
}

func TestErrors_EmptyIsNil(t *testing.T) {
	var errs validation.Errors
	assert.NoError(t, errs.Err())
}

func TestErrors_CollectPassesThroughOtherErrors(t *testing.T) {
	var errs validation.Errors
	boom := errors.New("boom")

	assert.NoError(t, errs.Collect(nil))
	assert.NoError(t, errs.Collect(validation.New("email", validation.KindMalformedEmail, "bad email")))
	assert.ErrorIs(t, errs.Collect(boom), boom)
	assert.Len(t, errs, 1)
}

func TestKindHelpers_UnwrapWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("register: %w", validation.Errors{
		validation.New("email", validation.KindDisposableDomain, "disposable"),
		validation.New("national_id", validation.KindDuplicateIdentification, "taken"),
	})

	assert.Equal(t, validation.KindDisposableDomain, validation.KindOf(wrapped))
	assert.True(t, validation.HasKind(wrapped, validation.KindDuplicateIdentification))
	assert.False(t, validation.HasKind(wrapped, validation.KindMismatch))

	single := fmt.Errorf("x: %w", validation.New("", validation.KindTooShort, "too short"))
	assert.Equal(t, validation.KindTooShort, validation.KindOf(single))
	assert.Equal(t, "too short", validation.List(single)[0].Error())

	assert.Empty(t, validation.KindOf(errors.New("plain")))
	assert.Nil(t, validation.List(errors.New("plain")))
}
