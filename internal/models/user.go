package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the profile document for an externally authenticated identity.
// The document key equals the identity provider's user id.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"fullname"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"image"`
	Followers int       `json:"followers"` // Legacy denormalized counters; live counts come
	Following int       `json:"following"` // from subscription cardinality
	Posts     int       `json:"posts"`
	CreatedAt time.Time `json:"createdAt"`
}
