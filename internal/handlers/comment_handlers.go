package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// CreateCommentRequest represents a request to add a comment to a post
type CreateCommentRequest struct {
	PostID string `json:"postId"`
	Text   string `json:"text"`
}

// EditCommentRequest represents a request to edit an existing comment
type EditCommentRequest struct {
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
	Text      string `json:"text"`
}

// HandleComment handles comment-related operations
func (s *Server) HandleComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req CreateCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			// The denormalized author username comes off the profile.
			username := ""
			if user, err := s.Services.Users.Get(r.Context(), actorID); err == nil {
				username = user.Username
			}

			comment, err := s.Services.Comments.Add(r.Context(), postID, actorID, username, req.Text)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, comment)

		case http.MethodGet:
			postID, err := parseUUIDParam(r, "postId")
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}

			comments, err := s.Services.Comments.List(r.Context(), postID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, comments)

		case http.MethodPut:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req EditCommentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}
			postID, err := uuid.Parse(req.PostID)
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}
			commentID, err := uuid.Parse(req.CommentID)
			if err != nil {
				http.Error(w, "Invalid comment ID", http.StatusBadRequest)
				return
			}

			updated, err := s.Services.Comments.Edit(r.Context(), postID, commentID, actorID, req.Text)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]bool{"updated": updated})

		case http.MethodDelete:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			postID, err := parseUUIDParam(r, "postId")
			if err != nil {
				http.Error(w, "Invalid post ID", http.StatusBadRequest)
				return
			}
			commentID, err := parseUUIDParam(r, "commentId")
			if err != nil {
				http.Error(w, "Invalid comment ID", http.StatusBadRequest)
				return
			}

			deleted, err := s.Services.Comments.Delete(r.Context(), postID, commentID, actorID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
