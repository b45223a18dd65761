package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CreatePostRequest represents a request to publish a new post. ImageURL
// may come straight from the client or from a prior upload call.
type CreatePostRequest struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
}

// EditPostRequest rewrites a post's caption.
type EditPostRequest struct {
	PostID  string `json:"postId"`
	Caption string `json:"caption"`
}

// LikeRequest toggles the caller's like on a post.
type LikeRequest struct {
	PostID string `json:"postId"`
}

// HandlePost handles creating, reading, editing and deleting posts.
func (s *Server) HandlePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Multipart requests carry the image itself; JSON requests
			// carry a URL from a prior upload.
			var imageURL, caption string
			if isMultipart(r) {
				file, _, err := r.FormFile("image")
				if err != nil {
					http.Error(w, "Missing image file", http.StatusBadRequest)
					return
				}
				defer file.Close()

				url, err := s.Uploader.UploadPostImage(r.Context(), file)
				if err != nil {
					respondError(w, err)
					return
				}
				imageURL = url
				caption = r.FormValue("caption")
			} else {
				var req CreatePostRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					http.Error(w, "Invalid request", http.StatusBadRequest)
					return
				}
				imageURL = req.ImageURL
				caption = req.Caption
			}

			post, err := s.Services.Posts.Create(r.Context(), actorID, imageURL, caption)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, post)

		case http.MethodGet:
			postID, err := parseUUIDParam(r, "id")
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			post, err := s.Services.Posts.Get(r.Context(), postID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, post)

		case http.MethodPut:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req EditPostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			if err := s.Services.Posts.EditCaption(r.Context(), postID, actorID, req.Caption); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})

		case http.MethodDelete:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			postID, err := parseUUIDParam(r, "id")
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			if err := s.Services.Posts.Delete(r.Context(), postID, actorID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleFeed returns the global feed page: ?limit= and ?before= (RFC 3339)
// drive pagination.
func (s *Server) HandleFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := 0
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil {
				limit = parsed
			}
		}

		var before time.Time
		if beforeStr := r.URL.Query().Get("before"); beforeStr != "" {
			parsed, err := time.Parse(time.RFC3339, beforeStr)
			if err != nil {
				http.Error(w, "Invalid before cursor", http.StatusBadRequest)
				return
			}
			before = parsed
		}

		posts, err := s.Services.Posts.Feed(r.Context(), limit, before)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, posts)
	}
}

// HandleUserPosts returns one author's posts.
func (s *Server) HandleUserPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		authorID, err := parseUUIDParam(r, "userId")
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}

		posts, err := s.Services.Posts.UserPosts(r.Context(), authorID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, posts)
	}
}

// HandleLike toggles, or reports, the caller's like on a post.
func (s *Server) HandleLike() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := requesterID(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		switch r.Method {
		case http.MethodPost:
			var req LikeRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			liked, count, err := s.Services.Engagement.ToggleLike(r.Context(), postID, actorID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"liked":     liked,
				"likeCount": count,
			})

		case http.MethodGet:
			postID, err := parseUUIDParam(r, "postId")
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			liked, err := s.Services.Engagement.HasLiked(r.Context(), postID, actorID)
			if err != nil {
				respondError(w, err)
				return
			}
			count, err := s.Services.Engagement.LikeCount(r.Context(), postID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"liked":     liked,
				"likeCount": count,
			})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
