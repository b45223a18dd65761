package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID             uuid.UUID `json:"id"`
	AuthorID       uuid.UUID `json:"authorId"`
	AuthorUsername string    `json:"authorUsername"`
	ImageURL       string    `json:"imageUrl"`
	Caption        string    `json:"caption"`
	LikeCount      int       `json:"likeCount"` // Denormalized, maintained inside the like transaction
	CommentCount   int       `json:"commentCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
