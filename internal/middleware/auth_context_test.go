package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-records/internal/domain/access"
	"pet-records/internal/platform/sentinel"
	"pet-records/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return auth.Claims{UserID: "u-1", Role: "veterinarian"}, nil
}

func captureActor(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (access.Actor, bool) {
	t.Helper()
	var (
		got access.Actor
		ok  bool
	)
	h := mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, ok = GetActor(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	mw := AuthContext(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "owner-1")
	actor, ok := captureActor(t, mw, req)
	assert.True(t, ok)
	assert.Equal(t, access.Actor{ID: "owner-1", Role: access.RoleMember}, actor)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "clinic-1")
	req.Header.Set(HeaderDebugRole, "Clinic")
	actor, _ = captureActor(t, mw, req)
	assert.Equal(t, access.RoleClinic, actor.Role)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "x")
	req.Header.Set(HeaderDebugRole, "superuser")
	actor, _ = captureActor(t, mw, req)
	assert.Equal(t, access.RoleGuest, actor.Role, "unknown roles degrade to guest")

	_, ok = captureActor(t, mw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}

func TestAuthContext_Bearer(t *testing.T) {
	mw := AuthContext(stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	actor, ok := captureActor(t, mw, req)
	assert.True(t, ok)
	assert.Equal(t, access.RoleVeterinarian, actor.Role)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	_, ok = captureActor(t, mw, req)
	assert.False(t, ok)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "owner-1")
	_, ok = captureActor(t, mw, req)
	assert.False(t, ok, "debug headers are ignored when a verifier is configured")
}

type roleStore map[string]access.Role

func (s roleStore) RoleOf(_ context.Context, id string) (access.Role, error) {
	if id == "broken" {
		return "", errors.New("db down")
	}
	r, ok := s[id]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return r, nil
}

func TestCurrentRole_OverridesTokenRole(t *testing.T) {
	chain := func(next http.Handler) http.Handler {
		return AuthContext(stubVerifier{})(CurrentRole(roleStore{"u-1": access.RoleMember}, nil)(next))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	actor, ok := captureActor(t, chain, req)
	assert.True(t, ok)
	assert.Equal(t, access.Actor{ID: "u-1", Role: access.RoleMember}, actor)
}

func TestCurrentRole_UnknownUserLosesClaims(t *testing.T) {
	chain := func(next http.Handler) http.Handler {
		return AuthContext(stubVerifier{})(CurrentRole(roleStore{}, nil)(next))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	_, ok := captureActor(t, chain, req)
	assert.False(t, ok)
}

func TestCurrentRole_LookupErrorIs500(t *testing.T) {
	h := withStaticClaims(auth.Claims{UserID: "broken", Role: "admin"},
		CurrentRole(roleStore{}, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func withStaticClaims(c auth.Claims, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), c)))
	})
}
