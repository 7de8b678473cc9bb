package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pet-records/internal/domain/access"
	"pet-records/internal/platform/logger"
	"pet-records/internal/platform/sentinel"
	"pet-records/internal/ports/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	HeaderDebugUserID = "X-Debug-User-ID"
	HeaderDebugRole   = "X-Debug-Role"
)

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: X-Debug-User-ID (+ X-Debug-Role opcional, default member).
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				if uid := strings.TrimSpace(r.Header.Get(HeaderDebugUserID)); uid != "" {
					role := strings.TrimSpace(r.Header.Get(HeaderDebugRole))
					if role == "" {
						role = string(access.RoleMember)
					}
					claims := auth.Claims{UserID: uid, Role: role}
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos aquí. El handler decide 401/403.
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RoleLookup resuelve el rol vigente de una persona.
type RoleLookup interface {
	RoleOf(ctx context.Context, userID string) (access.Role, error)
}

// CurrentRole reemplaza el rol de los claims por el guardado. El token solo
// aporta la identidad; un cambio de rol aplica desde el request siguiente.
// Si la persona ya no existe, el request sigue sin claims.
func CurrentRole(lookup RoleLookup, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, ok := GetClaims(r.Context())
			if !ok || strings.TrimSpace(c.UserID) == "" {
				next.ServeHTTP(w, r)
				return
			}

			role, err := lookup.RoleOf(r.Context(), strings.TrimSpace(c.UserID))
			switch {
			case errors.Is(err, sentinel.ErrNotFound):
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, nil)))
				return
			case err != nil:
				log.Error("resolve role", map[string]any{"user_id": c.UserID, "error": err})
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}

			c.Role = string(role)
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), c)))
		})
	}
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// GetActor traduce los claims a un actor del dominio. Un rol desconocido se
// degrada a guest, que no tiene permisos.
func GetActor(ctx context.Context) (access.Actor, bool) {
	c, ok := GetClaims(ctx)
	if !ok || strings.TrimSpace(c.UserID) == "" {
		return access.Actor{}, false
	}
	role, known := access.ParseRole(c.Role)
	if !known {
		role = access.RoleGuest
	}
	return access.Actor{ID: strings.TrimSpace(c.UserID), Role: role}, true
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
