package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/identity"
	"pet-records/internal/domain/validation"
	"pet-records/internal/middleware"
	"pet-records/internal/platform/reqvalidate"
	"pet-records/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

type HandlerDeps struct {
	Attempts AttemptStore
	Tokens   auth.TokenIssuer // nil => modo dev, login no emite token
	Validate *reqvalidate.Validator
}

func RegisterRoutes(r chi.Router, svc *Service, deps HandlerDeps) {
	if deps.Validate == nil {
		deps.Validate = reqvalidate.New()
	}

	r.Post("/auth/register", registerHandler(svc, deps))
	r.Post("/auth/login", loginHandler(svc, deps))

	r.Get("/me", getMeHandler(svc))
	r.Patch("/me", updateMeHandler(svc))

	r.Route("/admin/users", func(ar chi.Router) {
		ar.Get("/", listUsersHandler(svc))
		ar.Post("/", createStaffHandler(svc, deps))
		ar.Post("/{userID}/role", assignRoleHandler(svc, deps))
		ar.Post("/{userID}/membership", setMembershipHandler(svc))
	})
}

type registerRequest struct {
	Name            string `json:"name" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,max=254"`
	Phone           string `json:"phone" validate:"max=15"`
	NationalIDType  string `json:"national_id_type" validate:"required,max=20"`
	NationalID      string `json:"national_id" validate:"required,max=20"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string         `json:"token,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	User      personResponse `json:"user"`
}

type profileRequest struct {
	Name           *string `json:"name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	NationalIDType *string `json:"national_id_type"`
	NationalID     *string `json:"national_id"`
}

type staffRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required"`
	Phone          string `json:"phone" validate:"max=15"`
	NationalIDType string `json:"national_id_type" validate:"required"`
	NationalID     string `json:"national_id" validate:"required"`
	Role           string `json:"role" validate:"required,oneof=veterinarian clinic collaborator"`
	Password       string `json:"password" validate:"required"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type membershipRequest struct {
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at"` // YYYY-MM-DD opcional
}

// personResponse nunca incluye el hash de la contraseña.
type personResponse struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Email               string      `json:"email"`
	Phone               string      `json:"phone,omitempty"`
	NationalIDType      string      `json:"national_id_type"`
	NationalID          string      `json:"national_id"`
	Role                access.Role `json:"role"`
	MembershipActive    bool        `json:"membership_active"`
	MembershipExpiresAt *time.Time  `json:"membership_expires_at,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// registerHandler godoc
// @Summary Registrar persona
// @Description Alta de una persona con rol member. Valida nombre, correo (política de dominios), documento y contraseña.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} personResponse
// @Failure 400 {string} string "invalid json"
// @Failure 422 {object} map[string]any "errores de validación por campo"
// @Router /auth/register [post]
func registerHandler(svc *Service, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := deps.Validate.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Register(r.Context(), RegisterInput{
			Name:            req.Name,
			Email:           req.Email,
			Phone:           req.Phone,
			NationalIDType:  req.NationalIDType,
			NationalID:      req.NationalID,
			Password:        req.Password,
			PasswordConfirm: req.PasswordConfirm,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPersonResponse(p))
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Verifica credenciales. Tras 5 fallos en 15 minutos la identidad queda bloqueada hasta que vence la ventana.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "invalid credentials"
// @Failure 429 {string} string "too many failed login attempts"
// @Router /auth/login [post]
func loginHandler(svc *Service, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := deps.Validate.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		key := NormalizeEmail(req.Email)
		var attempts identity.LoginAttempts
		if deps.Attempts != nil {
			a, err := deps.Attempts.Load(r.Context(), key)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			attempts = a
		}

		p, next, err := svc.Login(r.Context(), key, req.Password, attempts)
		if deps.Attempts != nil && next != attempts {
			if serr := deps.Attempts.Save(r.Context(), key, next, svc.LockWindow()); serr != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
		}
		if err != nil {
			if errors.Is(err, ErrLocked) {
				retry := time.Until(svc.RetryAt(next))
				if retry < time.Second {
					retry = time.Second
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			}
			writeError(w, err)
			return
		}

		resp := loginResponse{User: toPersonResponse(p)}
		if deps.Tokens != nil {
			token, exp, err := deps.Tokens.Issue(r.Context(), auth.Claims{
				UserID: p.ID,
				Email:  p.Email,
				Role:   string(p.Role),
			})
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			resp.Token = token
			resp.ExpiresAt = &exp
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		p, err := svc.Get(r.Context(), actor.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPersonResponse(p))
	}
}

func updateMeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req profileRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.UpdateProfile(r.Context(), actor, actor.ID, ProfileInput{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			NationalIDType: req.NationalIDType,
			NationalID:     req.NationalID,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPersonResponse(p))
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios (admin)
// @Tags admin
// @Produce json
// @Success 200 {array} personResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /admin/users [get]
func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		items, err := svc.List(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]personResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPersonResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createStaffHandler godoc
// @Summary Crear usuario de staff (admin)
// @Description Alta de veterinario, clínica o colaborador.
// @Tags admin
// @Accept json
// @Produce json
// @Param payload body staffRequest true "Datos del usuario"
// @Success 201 {object} personResponse
// @Failure 403 {string} string "forbidden"
// @Failure 422 {object} map[string]any "errores de validación por campo"
// @Router /admin/users [post]
func createStaffHandler(svc *Service, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !actor.Can(access.OpUsersManage, access.Resource{}) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req staffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := deps.Validate.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.CreateStaff(r.Context(), actor, StaffInput{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			NationalIDType: req.NationalIDType,
			NationalID:     req.NationalID,
			Role:           req.Role,
			Password:       req.Password,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPersonResponse(p))
	}
}

func assignRoleHandler(svc *Service, deps HandlerDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req roleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := deps.Validate.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.AssignRole(r.Context(), actor, chi.URLParam(r, "userID"), req.Role)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPersonResponse(p))
	}
}

func setMembershipHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req membershipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		var exp *time.Time
		if s := strings.TrimSpace(req.ExpiresAt); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				writeError(w, validation.New("expires_at", validation.KindInvalidDate, "expires_at must be YYYY-MM-DD"))
				return
			}
			exp = &t
		}

		p, err := svc.SetMembership(r.Context(), actor, chi.URLParam(r, "userID"), req.Active, exp)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPersonResponse(p))
	}
}

func toPersonResponse(p Person) personResponse {
	return personResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Email:               p.Email,
		Phone:               p.Phone,
		NationalIDType:      p.NationalIDType,
		NationalID:          p.NationalID,
		Role:                p.Role,
		MembershipActive:    p.MembershipActive,
		MembershipExpiresAt: p.MembershipExpiresAt,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": validation.List(err)})
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, ErrLocked):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
