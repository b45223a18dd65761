package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"hellofeed/internal/api"

	"github.com/google/uuid"
)

// HandleHealth handles health check requests
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Ask the notification actor how many events it has fanned out.
		notified, _ := s.Engine.ProcessedCount(s.RequestTimeout)

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":          "healthy",
			"connected_users": s.Hub.ConnectedUsers(),
			"notified_events": notified,
			"server_time":     time.Now(),
		})
	}
}

// HandleMetrics reports per-operation latency statistics.
func (s *Server) HandleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"uptime":     s.Metrics.Uptime().String(),
			"operations": s.Metrics.Snapshot(),
		})
	}
}

// HandleToken exchanges an externally verified identity for an API token.
func (s *Server) HandleToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req api.TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}

		token, err := s.Auth.GenerateToken(userID, req.Username)
		if err != nil {
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		respondJSON(w, http.StatusOK, api.TokenResponse{Token: token})
	}
}
