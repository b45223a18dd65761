package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the event that produced a notification.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

type Notification struct {
	ID         uuid.UUID        `json:"id"`
	ReceiverID uuid.UUID        `json:"receiverId"`
	SenderID   uuid.UUID        `json:"senderId"`
	Type       NotificationType `json:"type"`
	PostID     *uuid.UUID       `json:"postId,omitempty"`
	CommentID  *uuid.UUID       `json:"commentId,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	Read       bool             `json:"read"`
}
