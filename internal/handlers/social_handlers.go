package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// BookmarkRequest saves or removes a post from the caller's collection.
type BookmarkRequest struct {
	PostID string `json:"postId"`
}

// FollowRequest follows or unfollows a target user.
type FollowRequest struct {
	TargetID string `json:"targetId"`
}

// HandleBookmarks handles the caller's private saved-posts collection.
func (s *Server) HandleBookmarks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := requesterID(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			postID, ok := decodeBookmark(w, r)
			if !ok {
				return
			}
			if err := s.Services.Bookmarks.Save(r.Context(), actorID, postID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "saved"})

		case http.MethodDelete:
			postID, err := parseUUIDParam(r, "postId")
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}
			if err := s.Services.Bookmarks.Remove(r.Context(), actorID, postID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})

		case http.MethodGet:
			postIDs, err := s.Services.Bookmarks.List(r.Context(), actorID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, postIDs)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFollow follows (POST), unfollows (DELETE) or checks (GET) an edge.
func (s *Server) HandleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := requesterID(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req FollowRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			targetID, err := uuid.Parse(req.TargetID)
			if err != nil {
				http.Error(w, "Invalid target ID", http.StatusBadRequest)
				return
			}
			if err := s.Services.Follows.Follow(r.Context(), actorID, targetID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "following"})

		case http.MethodDelete:
			targetID, err := parseUUIDParam(r, "targetId")
			if err != nil {
				http.Error(w, "Invalid target ID", http.StatusBadRequest)
				return
			}
			if err := s.Services.Follows.Unfollow(r.Context(), actorID, targetID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})

		case http.MethodGet:
			targetID, err := parseUUIDParam(r, "targetId")
			if err != nil {
				http.Error(w, "Invalid target ID", http.StatusBadRequest)
				return
			}
			following, err := s.Services.Follows.IsFollowing(r.Context(), actorID, targetID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]bool{"following": following})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFollowers lists who follows a user.
func (s *Server) HandleFollowers() http.HandlerFunc {
	return s.handleEdgeList(func(r *http.Request, userID uuid.UUID) ([]uuid.UUID, error) {
		return s.Services.Follows.Followers(r.Context(), userID)
	})
}

// HandleFollowing lists who a user follows.
func (s *Server) HandleFollowing() http.HandlerFunc {
	return s.handleEdgeList(func(r *http.Request, userID uuid.UUID) ([]uuid.UUID, error) {
		return s.Services.Follows.Following(r.Context(), userID)
	})
}

func (s *Server) handleEdgeList(list func(*http.Request, uuid.UUID) ([]uuid.UUID, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID, err := parseUUIDParam(r, "userId")
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}
		ids, err := list(r, userID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, ids)
	}
}

func decodeBookmark(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var req BookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return uuid.Nil, false
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return postID, true
}
