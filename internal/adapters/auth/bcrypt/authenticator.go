package bcrypt

import (
	"context"
	"errors"
	"fmt"

	"pet-records/internal/ports/auth"

	"golang.org/x/crypto/bcrypt"
)

// Authenticator implementa auth.Authenticator con bcrypt.
type Authenticator struct {
	cost int
}

var _ auth.Authenticator = (*Authenticator)(nil)

func New(cost int) *Authenticator {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Authenticator{cost: cost}
}

func (a *Authenticator) Hash(ctx context.Context, password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Verify devuelve false sin error cuando la contraseña no coincide.
func (a *Authenticator) Verify(ctx context.Context, hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("verify password: %w", err)
	}
}
