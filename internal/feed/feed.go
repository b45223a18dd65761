// Package feed implements the social-feed engine: posts, the like ledger,
// comments, bookmarks, the follow graph, and notification fan-out. All
// consistency-sensitive work is delegated to the store; these services add
// identity handling, validation, denormalized-counter upkeep, and the
// fan-out side effects.
package feed

import (
	"hellofeed/internal/cache"
	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// Notifier fans an engagement event out to its receiver. Implementations
// are fire-and-forget: the caller's operation has already committed when
// Notify runs, and a lost notification is an accepted failure mode.
type Notifier interface {
	Notify(receiverID, senderID uuid.UUID, typ models.NotificationType, postID, commentID *uuid.UUID)
}

// Services bundles the per-component services over one store.
type Services struct {
	Posts         *PostService
	Engagement    *EngagementService
	Comments      *CommentService
	Bookmarks     *BookmarkService
	Follows       *FollowService
	Notifications *NotificationService
	Users         *UserService
}

func NewServices(st store.Store, notifier Notifier, users *cache.UserCache, metrics *utils.MetricsCollector) *Services {
	posts := NewPostService(st, metrics)
	return &Services{
		Posts:         posts,
		Engagement:    NewEngagementService(st, notifier, metrics),
		Comments:      NewCommentService(st, notifier, metrics),
		Bookmarks:     NewBookmarkService(st, metrics),
		Follows:       NewFollowService(st, notifier, metrics),
		Notifications: NewNotificationService(st, users, metrics),
		Users:         NewUserService(st, posts, users, metrics),
	}
}
