package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-records/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/admin/overview", overviewHandler(svc))
}

// overviewHandler godoc
// @Summary Resumen del sistema (admin)
// @Description Fichas, eventos y recordatorios activos; veterinarios y socios registrados.
// @Tags admin
// @Produce json
// @Success 200 {object} Overview
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /admin/overview [get]
func overviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		out, err := svc.Overview(r.Context(), actor)
		if err != nil {
			if errors.Is(err, ErrForbidden) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(out)
	}
}
