// Package handlers exposes the feed services over HTTP and websocket.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"hellofeed/internal/engine"
	"hellofeed/internal/feed"
	"hellofeed/internal/middleware"
	"hellofeed/internal/uploader"
	"hellofeed/internal/utils"
	"hellofeed/internal/websocket"

	"github.com/google/uuid"
)

// Server holds all handler dependencies.
type Server struct {
	Services       *feed.Services
	Engine         *engine.Engine
	Hub            *websocket.Hub
	Auth           *middleware.Authenticator
	Uploader       *uploader.Uploader
	Metrics        *utils.MetricsCollector
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	services *feed.Services,
	eng *engine.Engine,
	hub *websocket.Hub,
	auth *middleware.Authenticator,
	up *uploader.Uploader,
	metrics *utils.MetricsCollector,
) *Server {
	return &Server{
		Services:       services,
		Engine:         eng,
		Hub:            hub,
		Auth:           auth,
		Uploader:       up,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second,
	}
}

// Routes wires every endpoint onto a mux. Authentication and CORS wrap
// the mux in cmd/server.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.HandleHealth())
	mux.HandleFunc("/metrics", s.HandleMetrics())
	mux.HandleFunc("/auth/token", s.HandleToken())
	mux.HandleFunc("/users", s.HandleUsers())
	mux.HandleFunc("/users/profile", s.HandleProfile())
	mux.HandleFunc("/users/avatar", s.HandleAvatarUpload())
	mux.HandleFunc("/posts", s.HandlePost())
	mux.HandleFunc("/posts/feed", s.HandleFeed())
	mux.HandleFunc("/posts/user", s.HandleUserPosts())
	mux.HandleFunc("/posts/like", s.HandleLike())
	mux.HandleFunc("/comments", s.HandleComment())
	mux.HandleFunc("/bookmarks", s.HandleBookmarks())
	mux.HandleFunc("/follows", s.HandleFollow())
	mux.HandleFunc("/follows/followers", s.HandleFollowers())
	mux.HandleFunc("/follows/following", s.HandleFollowing())
	mux.HandleFunc("/notifications", s.HandleNotifications())
	mux.HandleFunc("/ws", s.HandleWebSocket())
	return mux
}

// requesterID pulls the authenticated identity out of the request context.
func requesterID(r *http.Request) (uuid.UUID, bool) {
	return middleware.GetUserIDFromContext(r.Context())
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps application errors onto HTTP statuses; anything that
// isn't an AppError is a 500.
func respondError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]string{
			"error": appErr.Message,
			"code":  appErr.Code,
		})
		return
	}
	respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

// parseUUIDParam parses one query parameter as a UUID.
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.URL.Query().Get(name))
}
