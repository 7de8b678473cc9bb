package bcrypt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xbcrypt "golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	a := New(xbcrypt.MinCost)
	ctx := context.Background()

	h, err := a.Hash(ctx, "secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", h)

	ok, err := a.Verify(ctx, h, "secret123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Verify(ctx, h, "wrong123")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = a.Verify(ctx, "not-a-hash", "secret123")
	assert.Error(t, err)
}
