package jwt

import (
	"context"
	"testing"
	"time"

	"pet-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc, err := New("s3cret", time.Hour, "pet-records")
	require.NoError(t, err)

	token, exp, err := svc.Issue(context.Background(), auth.Claims{UserID: "u-1", Email: "a@b.cl", Role: "admin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "u-1", Email: "a@b.cl", Role: "admin"}, c)
}

func TestVerify_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc, err := New("s3cret", time.Minute, "pet-records")
	require.NoError(t, err)

	token, _, err := svc.Issue(context.Background(), auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other, err := New("other", time.Minute, "pet-records")
	require.NoError(t, err)
	_, err = other.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(context.Background(), " ")
	assert.ErrorIs(t, err, ErrTokenEmpty)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New("", time.Hour, "x")
	assert.ErrorIs(t, err, ErrSecretEmpty)
}
