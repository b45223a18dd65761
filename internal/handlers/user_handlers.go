package handlers

import (
	"encoding/json"
	"net/http"

	"hellofeed/internal/feed"
)

// CreateProfileRequest represents a first-sign-in profile creation.
type CreateProfileRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

// HandleUsers handles profile creation and the people directory.
func (s *Server) HandleUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req CreateProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			user, err := s.Services.Users.CreateProfile(r.Context(), actorID, req.Username, req.FullName, req.Email)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusCreated, user)

		case http.MethodGet:
			users, err := s.Services.Users.List(r.Context())
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, users)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleProfile handles reading, editing and deleting one profile.
func (s *Server) HandleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			userID, err := parseUUIDParam(r, "id")
			if err != nil {
				// No id means "my own profile".
				id, ok := requesterID(r)
				if !ok {
					http.Error(w, "Invalid user ID", http.StatusBadRequest)
					return
				}
				userID = id
			}

			user, err := s.Services.Users.Get(r.Context(), userID)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, user)

		case http.MethodPut:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			var req feed.UpdateProfileRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request", http.StatusBadRequest)
				return
			}

			user, err := s.Services.Users.Update(r.Context(), actorID, req)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, user)

		case http.MethodDelete:
			actorID, ok := requesterID(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if err := s.Services.Users.Delete(r.Context(), actorID); err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleAvatarUpload accepts a multipart image, stores it on the CDN and
// saves the URL on the caller's profile.
func (s *Server) HandleAvatarUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		actorID, ok := requesterID(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			http.Error(w, "Missing image file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		url, err := s.Uploader.UploadAvatar(r.Context(), file)
		if err != nil {
			respondError(w, err)
			return
		}

		user, err := s.Services.Users.Update(r.Context(), actorID, feed.UpdateProfileRequest{AvatarURL: &url})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, user)
	}
}
