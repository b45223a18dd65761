package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// MarkReadRequest flags one notification as seen.
type MarkReadRequest struct {
	NotificationID string `json:"notificationId"`
}

// HandleNotifications serves the caller's notification ledger.
func (s *Server) HandleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := requesterID(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodGet:
			limit := 0
			if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
				if parsed, err := strconv.Atoi(limitStr); err == nil {
					limit = parsed
				}
			}

			notifications, err := s.Services.Notifications.List(r.Context(), actorID, limit)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, notifications)

		case http.MethodPut:
			var req MarkReadRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			notificationID, err := uuid.Parse(req.NotificationID)
			if err != nil {
				http.Error(w, "Invalid notification ID", http.StatusBadRequest)
				return
			}

			if err := s.Services.Notifications.MarkRead(r.Context(), notificationID, actorID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "read"})

		case http.MethodDelete:
			notificationID, err := parseUUIDParam(r, "id")
			if err != nil {
				http.Error(w, "Invalid notification ID", http.StatusBadRequest)
				return
			}

			if err := s.Services.Notifications.Delete(r.Context(), notificationID, actorID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
