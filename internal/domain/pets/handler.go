package pets

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"pet-records/internal/domain/validation"
	"pet-records/internal/middleware"
	"pet-records/internal/platform/reqvalidate"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"

	// Margen para los campos del formulario además de la foto.
	maxMultipartBytes = MaxPhotoBytes + 1<<20
)

func RegisterRoutes(r chi.Router, svc *Service, v *reqvalidate.Validator) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc, v))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))

		// Veterinario asignado: requiere ?consent=1
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Put("/{petID}/photo", uploadPhotoHandler(svc))

		pr.Delete("/{petID}", deletePetHandler(svc, v))
	})
}

type createPetRequest struct {
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	Species        string           `json:"species"`
	Size           string           `json:"size"`
	Breed          string           `json:"breed"`
	CrossBred      bool             `json:"cross_bred"`
	Sex            string           `json:"sex"`
	Age            *int             `json:"age"`
	BirthDate      string           `json:"birth_date"` // YYYY-MM-DD opcional
	WeightKg       *decimal.Decimal `json:"weight_kg" swaggertype:"number"`
	Allergies      string           `json:"allergies"`
	Ficket         string           `json:"ficket"`
	OwnerID        string           `json:"owner_id" validate:"omitempty,uuid"` // solo admin
	VeterinarianID string           `json:"veterinarian_id" validate:"omitempty,uuid"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name           *string `json:"name"`
	Description    *string `json:"description"`
	Species        *string `json:"species"`
	Size           *string `json:"size"`
	Breed          *string `json:"breed"`
	CrossBred      *bool   `json:"cross_bred"`
	Sex            *string `json:"sex"`
	Allergies      *string `json:"allergies"`
	VeterinarianID *string `json:"veterinarian_id"`
}

type deletePetRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type petResponse struct {
	ID             string           `json:"id"`
	Ficket         string           `json:"ficket"`
	OwnerID        string           `json:"owner_id"`
	VeterinarianID string           `json:"veterinarian_id,omitempty"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Species        Species          `json:"species"`
	Size           Size             `json:"size"`
	Breed          string           `json:"breed"`
	CrossBred      bool             `json:"cross_bred"`
	Sex            Sex              `json:"sex,omitempty"`
	Age            *int             `json:"age,omitempty"`
	BirthDate      string           `json:"birth_date,omitempty"`
	WeightKg       *decimal.Decimal `json:"weight_kg,omitempty" swaggertype:"number"`
	Allergies      string           `json:"allergies,omitempty"`
	PhotoRef       string           `json:"photo_ref,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Crear ficha de mascota
// @Description Acepta JSON, o multipart con el JSON en el campo `pet` y la imagen en `photo`.
// @Tags pets
// @Accept json,mpfd
// @Produce json
// @Param payload body createPetRequest true "Ficha"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json"
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "ficket conflict"
// @Failure 422 {object} map[string]any "errores de validación por campo"
// @Router /pets [post]
func createPetHandler(svc *Service, v *reqvalidate.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		var photo *PhotoUpload
		if isMultipart(r) {
			r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
			if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
				http.Error(w, "invalid multipart form", http.StatusBadRequest)
				return
			}
			if err := json.Unmarshal([]byte(r.FormValue("pet")), &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			up, err := readPhoto(r)
			if err != nil && !errors.Is(err, http.ErrMissingFile) {
				writeError(w, err)
				return
			}
			photo = up
		} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := v.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		bd, err := parseDate(req.BirthDate)
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Create(r.Context(), actor, CreateInput{
			Fields: Fields{
				Name:        req.Name,
				Description: req.Description,
				Species:     req.Species,
				Size:        req.Size,
				Breed:       req.Breed,
				CrossBred:   req.CrossBred,
				Sex:         req.Sex,
				Age:         req.Age,
				BirthDate:   bd,
				WeightKg:    req.WeightKg,
				Allergies:   req.Allergies,
			},
			OwnerID:        req.OwnerID,
			VeterinarianID: req.VeterinarianID,
			Ficket:         req.Ficket,
			Photo:          photo,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar fichas visibles
// @Description Admin ve todas, socio las propias, veterinario las asignadas. Nunca incluye borradas.
// @Tags pets
// @Produce json
// @Success 200 {array} petResponse
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListForActor(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), chi.URLParam(r, "petID"), actor)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Editar ficha (PATCH)
// @Description `age`, `birth_date` y `weight_kg` aceptan null para limpiar. La especie no cambia.
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "Pet ID"
// @Param consent query string false "1 = consentimiento del dueño (veterinario)"
// @Success 200 {object} petResponse
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "pet is deleted"
// @Failure 422 {object} map[string]any
// @Failure 428 {string} string "veterinarian consent required"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Decodificar a map primero para detectar campos presentes con null.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePetRequest
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:           req.Name,
			Description:    req.Description,
			Species:        req.Species,
			Size:           req.Size,
			Breed:          req.Breed,
			CrossBred:      req.CrossBred,
			Sex:            req.Sex,
			Allergies:      req.Allergies,
			VeterinarianID: req.VeterinarianID,
		}

		var errs validation.Errors
		var err error
		in.Age, err = patchOf[int](raw, FieldAge)
		errs.Add(err)
		in.WeightKg, err = patchOf[decimal.Decimal](raw, FieldWeight)
		errs.Add(err)
		in.BirthDate, err = patchDate(raw, FieldBirthDate)
		errs.Add(err)
		if err := errs.Err(); err != nil {
			writeError(w, err)
			return
		}

		updated, err := svc.Update(r.Context(), chi.URLParam(r, "petID"), actor, in, consentGiven(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// uploadPhotoHandler godoc
// @Summary Reemplazar foto de la ficha
// @Tags pets
// @Accept mpfd
// @Produce json
// @Param petID path string true "Pet ID"
// @Param photo formData file true "JPEG o PNG, máximo 5 MB"
// @Success 200 {object} petResponse
// @Failure 422 {object} map[string]any
// @Router /pets/{petID}/photo [put]
func uploadPhotoHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
		if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, validation.New(FieldPhoto, validation.KindFileTooLarge, "image exceeds 5 MB"))
				return
			}
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}
		up, err := readPhoto(r)
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, validation.New(FieldPhoto, validation.KindRequired, "photo is required"))
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.SetPhoto(r.Context(), chi.URLParam(r, "petID"), actor, *up, consentGiven(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Borrado lógico de la ficha
// @Tags pets
// @Accept json
// @Param petID path string true "Pet ID"
// @Param payload body deletePetRequest false "Motivo"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 409 {string} string "pet already deleted"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service, v *reqvalidate.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// El cuerpo es opcional.
		var req deletePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := v.Struct(req); err != nil {
			writeError(w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), chi.URLParam(r, "petID"), actor, req.Reason); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

func readPhoto(r *http.Request) (*PhotoUpload, error) {
	f, hdr, err := r.FormFile("photo")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return photoFromPart(f, hdr)
}

func photoFromPart(f multipart.File, hdr *multipart.FileHeader) (*PhotoUpload, error) {
	if hdr.Size > MaxPhotoBytes {
		return nil, validation.New(FieldPhoto, validation.KindFileTooLarge, "image exceeds 5 MB")
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	return &PhotoUpload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func consentGiven(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("consent")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, validation.New(FieldBirthDate, validation.KindInvalidDate, "birth_date must be YYYY-MM-DD")
	}
	return &t, nil
}

// patchOf lee un campo opcional que admite null para limpiar.
func patchOf[T any](raw map[string]json.RawMessage, field string) (Patch[T], error) {
	v, exists := raw[field]
	if !exists {
		return Patch[T]{}, nil
	}
	if string(v) == "null" {
		return Patch[T]{Set: true}, nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return Patch[T]{}, validation.New(field, validation.KindInvalidChoice, field+" has an invalid value")
	}
	return Patch[T]{Set: true, Value: &out}, nil
}

func patchDate(raw map[string]json.RawMessage, field string) (Patch[time.Time], error) {
	s, err := patchOf[string](raw, field)
	if err != nil || !s.Set || s.Value == nil {
		return Patch[time.Time]{Set: s.Set}, err
	}
	t, err := parseDate(*s.Value)
	if err != nil {
		return Patch[time.Time]{}, err
	}
	return Patch[time.Time]{Set: true, Value: t}, nil
}

func toPetResponse(p Pet) petResponse {
	out := petResponse{
		ID:             p.ID,
		Ficket:         p.Ficket,
		OwnerID:        p.OwnerID,
		VeterinarianID: p.VeterinarianID,
		Name:           p.Name,
		Description:    p.Description,
		Species:        p.Species,
		Size:           p.Size,
		Breed:          p.Breed,
		CrossBred:      p.CrossBred,
		Sex:            p.Sex,
		Age:            p.Age,
		WeightKg:       p.WeightKg,
		Allergies:      p.Allergies,
		PhotoRef:       p.PhotoRef,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.BirthDate != nil {
		out.BirthDate = p.BirthDate.Format(dateLayout)
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": validation.List(err)})
	case errors.Is(err, ErrConsentRequired):
		http.Error(w, err.Error(), http.StatusPreconditionRequired)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrPetDeleted), errors.Is(err, ErrAlreadyDeleted), errors.Is(err, ErrFicketConflict):
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
