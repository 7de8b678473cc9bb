package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-records/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/me/notifications", listMyNotificationsHandler(svc))

	r.Route("/notifications/{notificationID}", func(nr chi.Router) {
		nr.Post("/read", markReadHandler(svc))
		nr.Delete("/", deleteNotificationHandler(svc))
	})
}

type notificationResponse struct {
	ID        string     `json:"id"`
	PetID     string     `json:"pet_id,omitempty"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SendAt    time.Time  `json:"send_at"`
}

// listMyNotificationsHandler godoc
// @Summary Bandeja de notificaciones
// @Description Notificaciones del usuario autenticado (socios premium). `unread=1` filtra las no leídas.
// @Tags notifications
// @Produce json
// @Param unread query string false "1 = solo no leídas"
// @Success 200 {array} notificationResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /me/notifications [get]
func listMyNotificationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		unread := r.URL.Query().Get("unread") == "1"
		items, err := svc.ListForRecipient(r.Context(), actor, unread)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]notificationResponse, 0, len(items))
		for _, n := range items {
			out = append(out, toResponse(n))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func markReadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		n, err := svc.MarkRead(r.Context(), actor, chi.URLParam(r, "notificationID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(n))
	}
}

func deleteNotificationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.GetActor(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := svc.Delete(r.Context(), actor, chi.URLParam(r, "notificationID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		PetID:     n.PetID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
		SendAt:    n.SendAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "notification not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
