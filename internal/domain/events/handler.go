package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-records/internal/domain/access"
	"pet-records/internal/domain/pets"
	"pet-records/internal/domain/validation"
	"pet-records/internal/middleware"
	"pet-records/internal/platform/sentinel"

	"github.com/go-chi/chi/v5"
)

const (
	dateLayout = "2006-01-02"

	maxMultipartBytes = MaxAttachments*pets.MaxPhotoBytes + 1<<20
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/events", func(er chi.Router) {
		er.Post("/", createEventHandler(svc))
		er.Get("/", listEventsHandler(svc))
		er.Get("/{eventID}", getEventHandler(svc))
		er.Delete("/{eventID}", deleteEventHandler(svc))
	})
}

type attachmentRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

// createEventRequest es el cuerpo para registrar un evento clínico.
type createEventRequest struct {
	EventDate        string              `json:"event_date"` // YYYY-MM-DD
	Type             string              `json:"type"`
	Symptoms         string              `json:"symptoms"`
	Description      string              `json:"description"`
	PreconsultStatus string              `json:"preconsult_status"`
	Observations     string              `json:"observations"`
	Attachments      []attachmentRequest `json:"attachments"`
}

type attachmentResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type eventResponse struct {
	ID               string               `json:"id"`
	PetID            string               `json:"pet_id"`
	ResponsibleID    string               `json:"responsible_id"`
	EventDate        string               `json:"event_date"`
	Type             string               `json:"type"`
	Symptoms         string               `json:"symptoms"`
	Description      string               `json:"description,omitempty"`
	PreconsultStatus string               `json:"preconsult_status"`
	Observations     string               `json:"observations,omitempty"`
	Attachments      []attachmentResponse `json:"attachments"`
	CreatedAt        time.Time            `json:"created_at"`
}

type eventListResponse struct {
	PetID   string          `json:"pet_id"`
	PetName string          `json:"pet_name"`
	Items   []eventResponse `json:"items"`
}

// createEventHandler godoc
// @Summary Registrar evento clínico
// @Description JSON, o multipart con el JSON en `event` y hasta 4 imágenes en `photos`. El veterinario asignado necesita `consent=1`.
// @Tags events
// @Accept json,mpfd
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario para depuración"
// @Param Authorization header string false "Bearer token en producción"
// @Param petID path string true "ID de la mascota"
// @Param consent query string false "1 = consentimiento del dueño"
// @Param payload body createEventRequest true "Datos del evento"
// @Success 201 {object} eventResponse
// @Failure 400 {string} string "invalid json"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 422 {object} map[string]any "errores de validación por campo"
// @Failure 428 {string} string "veterinarian consent required"
// @Router /pets/{petID}/events [post]
func createEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createEventRequest
		var files []AttachmentInput
		if isMultipart(r) {
			r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
			if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
				http.Error(w, "invalid multipart form", http.StatusBadRequest)
				return
			}
			if err := json.Unmarshal([]byte(r.FormValue("event")), &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			var err error
			if files, err = readPhotos(r); err != nil {
				http.Error(w, "invalid attachment", http.StatusBadRequest)
				return
			}
		} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := CreateInput{
			Type:             req.Type,
			Symptoms:         req.Symptoms,
			Description:      req.Description,
			PreconsultStatus: req.PreconsultStatus,
			Observations:     req.Observations,
		}
		if v := strings.TrimSpace(req.EventDate); v != "" {
			t, err := time.Parse(dateLayout, v)
			if err != nil {
				writeError(w, validation.New(FieldEventDate, validation.KindInvalidDate, "event_date must be YYYY-MM-DD"))
				return
			}
			in.EventDate = t
		}
		for _, a := range req.Attachments {
			in.Attachments = append(in.Attachments, AttachmentInput{URL: a.URL, Description: a.Description})
		}
		in.Attachments = append(in.Attachments, files...)

		e, err := svc.Create(r.Context(), actor, chi.URLParam(r, "petID"), in, consentGiven(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

// listEventsHandler godoc
// @Summary Listar eventos de una mascota
// @Description Eventos vigentes, más reciente primero. Las clínicas reciben el nombre de la mascota enmascarado.
// @Tags events
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo de eventos a devolver (1-200). Por defecto 50"
// @Param types query string false "Lista CSV de tipos de evento a incluir"
// @Param from query string false "Fecha mínima (YYYY-MM-DD)"
// @Param to query string false "Fecha máxima (YYYY-MM-DD)"
// @Param q query string false "Texto libre en tipo/síntomas/descripción/observaciones"
// @Success 200 {object} eventListResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/events [get]
func listEventsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p, items, err := svc.ListByPet(r.Context(), actor, chi.URLParam(r, "petID"), filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := eventListResponse{PetID: p.ID, PetName: p.Name, Items: make([]eventResponse, 0, len(items))}
		if access.MasksPetName(actor.Role) {
			out.PetName = ""
		}
		for _, e := range items {
			out.Items = append(out.Items, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.Get(r.Context(), actor, chi.URLParam(r, "petID"), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

// deleteEventHandler godoc
// @Summary Borrado lógico de un evento
// @Tags events
// @Param petID path string true "ID de la mascota"
// @Param eventID path string true "ID del evento"
// @Success 204
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "event not found"
// @Failure 409 {string} string "event already deleted"
// @Router /pets/{petID}/events/{eventID} [delete]
func deleteEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.SoftDelete(r.Context(), actor, chi.URLParam(r, "petID"), chi.URLParam(r, "eventID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	limit := defaultLimit
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	filter := ListFilter{Limit: limit}

	if v := strings.TrimSpace(q.Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if t := strings.TrimSpace(p); t != "" {
				filter.Types = append(filter.Types, t)
			}
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be YYYY-MM-DD")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	return filter, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// readPhotos lee los archivos del campo `photos`. Se devuelven todos: el
// límite de 4 lo aplica el servicio.
func readPhotos(r *http.Request) ([]AttachmentInput, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["photos"]
	out := make([]AttachmentInput, 0, len(headers))
	for i, hdr := range headers {
		f, err := hdr.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, pets.MaxPhotoBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, AttachmentInput{
			Description: fmt.Sprintf("Photo %d of the event", i+1),
			File: &FileUpload{
				Filename:    hdr.Filename,
				ContentType: hdr.Header.Get("Content-Type"),
				Data:        data,
			},
		})
	}
	return out, nil
}

func consentGiven(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("consent")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func toEventResponse(e ClinicalEvent) eventResponse {
	out := eventResponse{
		ID:               e.ID,
		PetID:            e.PetID,
		ResponsibleID:    e.ResponsibleID,
		EventDate:        e.EventDate.Format(dateLayout),
		Type:             e.Type,
		Symptoms:         e.Symptoms,
		Description:      e.Description,
		PreconsultStatus: e.PreconsultStatus,
		Observations:     e.Observations,
		Attachments:      make([]attachmentResponse, 0, len(e.Attachments)),
		CreatedAt:        e.CreatedAt,
	}
	for _, a := range e.ActiveAttachments() {
		out.Attachments = append(out.Attachments, attachmentResponse{
			ID:          a.ID,
			URL:         a.URL,
			Description: a.Description,
			UploadedBy:  a.UploadedBy,
			UploadedAt:  a.UploadedAt,
		})
	}
	return out
}

// writeError también traduce errores de pets (ficha inexistente, consentimiento).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, validation.ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": validation.List(err)})
	case errors.Is(err, pets.ErrConsentRequired):
		http.Error(w, err.Error(), http.StatusPreconditionRequired)
	case errors.Is(err, sentinel.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, pets.ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, sentinel.ErrNotFound):
		http.Error(w, "event not found", http.StatusNotFound)
	case errors.Is(err, sentinel.ErrConflict):
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
