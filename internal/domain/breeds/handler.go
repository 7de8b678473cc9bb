package breeds

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/breeds", listBreedsHandler(svc))
}

type breedsResponse struct {
	Species string  `json:"species"`
	Breeds  []Breed `json:"breeds"`
}

// listBreedsHandler godoc
// @Summary Catálogo de razas
// @Description Consulta thedogapi/thecatapi con caché de 24h. Si el proveedor falla devuelve una lista local.
// @Tags breeds
// @Produce json
// @Param species query string true "dog | cat"
// @Success 200 {object} breedsResponse
// @Failure 400 {string} string "species must be dog or cat"
// @Router /breeds [get]
func listBreedsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		species := r.URL.Query().Get("species")
		items, err := svc.List(r.Context(), species)
		if err != nil {
			if errors.Is(err, ErrInvalidSpecies) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		normalized, _ := ParseSpecies(species)
		writeJSON(w, http.StatusOK, breedsResponse{Species: normalized, Breeds: items})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
