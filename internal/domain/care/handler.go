package care

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/validation"
	"pet-records/internal/middleware"
	"pet-records/internal/platform/sentinel"

	"github.com/go-chi/chi/v5"
)

// Pets es lo que el handler necesita del módulo de mascotas.
type Pets interface {
	CareTarget(ctx context.Context, petID string) (Target, error)
	AddCareReminder(ctx context.Context, petID string, actor access.Actor, in AddInput) (Reminder, error)
}

func RegisterRoutes(r chi.Router, svc *Service, pets Pets) {
	r.Route("/pets/{petID}/care", func(cr chi.Router) {
		cr.Post("/", createReminderHandler(pets))
		cr.Get("/", listRemindersHandler(svc, pets))
		cr.Patch("/{reminderID}", updateReminderHandler(svc, pets))
		cr.Delete("/{reminderID}", deleteReminderHandler(svc, pets))
	})
}

type createReminderRequest struct {
	CareType string `json:"care_type"`
	NextDue  string `json:"next_due"` // YYYY-MM-DD
	Dosage   string `json:"dosage"`
}

type updateReminderRequest struct {
	CareType *string `json:"care_type"`
	NextDue  *string `json:"next_due"`
	Dosage   *string `json:"dosage"`
}

type reminderResponse struct {
	ID        string    `json:"id"`
	PetID     string    `json:"pet_id"`
	CareType  string    `json:"care_type"`
	NextDue   string    `json:"next_due"`
	Dosage    string    `json:"dosage,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type reminderListResponse struct {
	PetID   string             `json:"pet_id"`
	PetName string             `json:"pet_name"`
	Items   []reminderResponse `json:"items"`
}

// createReminderHandler godoc
// @Summary Agregar recordatorio de cuidado
// @Tags care
// @Accept json
// @Produce json
// @Param petID path string true "Pet ID"
// @Param body body createReminderRequest true "Recordatorio"
// @Success 201 {object} reminderResponse
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "not found"
// @Failure 422 {object} map[string]any
// @Router /pets/{petID}/care [post]
func createReminderHandler(pets Pets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		rem, err := pets.AddCareReminder(r.Context(), chi.URLParam(r, "petID"), actor, AddInput{
			CareType: req.CareType,
			NextDue:  req.NextDue,
			Dosage:   req.Dosage,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(rem))
	}
}

// listRemindersHandler godoc
// @Summary Recordatorios de una mascota
// @Description Las clínicas reciben el nombre de la mascota enmascarado.
// @Tags care
// @Produce json
// @Param petID path string true "Pet ID"
// @Success 200 {object} reminderListResponse
// @Router /pets/{petID}/care [get]
func listRemindersHandler(svc *Service, pets Pets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		t, err := pets.CareTarget(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		items, err := svc.ListByPet(r.Context(), actor, t)
		if err != nil {
			writeError(w, err)
			return
		}

		out := reminderListResponse{PetID: t.PetID, PetName: t.PetName, Items: make([]reminderResponse, 0, len(items))}
		if access.MasksPetName(actor.Role) {
			out.PetName = ""
		}
		for _, rem := range items {
			out.Items = append(out.Items, toResponse(rem))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateReminderHandler(svc *Service, pets Pets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		t, err := pets.CareTarget(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		rem, err := svc.Update(r.Context(), actor, t, chi.URLParam(r, "reminderID"), UpdateInput{
			CareType: req.CareType,
			NextDue:  req.NextDue,
			Dosage:   req.Dosage,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(rem))
	}
}

func deleteReminderHandler(svc *Service, pets Pets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		t, err := pets.CareTarget(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := svc.Delete(r.Context(), actor, t, chi.URLParam(r, "reminderID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toResponse(rem Reminder) reminderResponse {
	return reminderResponse{
		ID:        rem.ID,
		PetID:     rem.PetID,
		CareType:  rem.CareType,
		NextDue:   rem.NextDue.Format(DateLayout),
		Dosage:    rem.Dosage,
		CreatedAt: rem.CreatedAt,
		UpdatedAt: rem.UpdatedAt,
	}
}

// writeError traduce errores propios y de pets (vía sentinel).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": validation.List(err)})
	case errors.Is(err, sentinel.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, sentinel.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, sentinel.ErrInvalidState), errors.Is(err, sentinel.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
