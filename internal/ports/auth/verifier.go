package auth

import (
	"context"
	"time"
)

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Authenticator deriva y verifica hashes de credenciales.
// El texto plano nunca sale de esta frontera.
type Authenticator interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, hash, password string) (bool, error)
}

// TokenIssuer emite el token de sesión para unos claims.
type TokenIssuer interface {
	Issue(ctx context.Context, c Claims) (token string, expiresAt time.Time, err error)
}
