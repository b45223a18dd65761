// internal/store/store.go
package store

import (
	"context"
	"time"

	"hellofeed/internal/models"

	"github.com/google/uuid"
)

// Store abstracts the document backend the feed services run against. Two
// implementations exist: the MongoDB store in internal/database and the
// in-memory store in internal/store/memory used by tests and local runs.
//
// Consistency rules the implementations must honor:
//   - ToggleLike runs the read-then-write pair for the like record and the
//     post counter inside one transaction; concurrent togglers on the same
//     post serialize, and a vanished post aborts with no side effects.
//   - SetFollow creates or destroys both mirrored existence records of a
//     follow edge atomically; no half-applied edge is observable.
//   - UpdateComment/DeleteComment/UpdatePostCaption/DeletePost evaluate the
//     ownership predicate atomically with the mutation and report a
//     non-owner attempt as (false, nil): the caller treats it as a no-op.
type Store interface {
	// Users
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	AdjustUserPostCount(ctx context.Context, id uuid.UUID, delta int) error

	// Posts
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListPosts(ctx context.Context, limit int, before time.Time) ([]*models.Post, error)
	ListUserPosts(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error)
	UpdatePostCaption(ctx context.Context, postID, ownerID uuid.UUID, caption string) (bool, error)
	AdjustPostCommentCount(ctx context.Context, postID uuid.UUID, delta int) error
	DeletePost(ctx context.Context, postID, ownerID uuid.UUID) (bool, error)

	// Likes
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (liked bool, newCount int, err error)
	HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	ListPostLikes(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
	DeletePostLikes(ctx context.Context, postID uuid.UUID) error

	// Comments
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, postID, commentID uuid.UUID) (*models.Comment, error)
	ListComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)
	UpdateComment(ctx context.Context, postID, commentID, requesterID uuid.UUID, text string) (bool, error)
	DeleteComment(ctx context.Context, postID, commentID, requesterID uuid.UUID) (bool, error)
	DeletePostComments(ctx context.Context, postID uuid.UUID) error

	// Bookmarks
	SaveBookmark(ctx context.Context, userID, postID uuid.UUID) error
	DeleteBookmark(ctx context.Context, userID, postID uuid.UUID) error
	HasBookmark(ctx context.Context, userID, postID uuid.UUID) (bool, error)
	ListBookmarks(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Follow edges
	SetFollow(ctx context.Context, followerID, targetID uuid.UUID, follow bool) (changed bool, err error)
	HasFollowing(ctx context.Context, followerID, targetID uuid.UUID) (bool, error)
	ListFollowers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListFollowing(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// Notifications
	SaveNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListNotifications(ctx context.Context, receiverID uuid.UUID, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
	DeleteNotification(ctx context.Context, id, requesterID uuid.UUID) (bool, error)

	// Watch registers fn to run whenever documents within scope change. The
	// callback carries no payload: listeners re-read a full snapshot, which
	// is the delivery model the services expose. The returned cancel func
	// tears the registration down; it is safe to call more than once.
	Watch(ctx context.Context, scope string, fn func()) (cancel func(), err error)
}

// Watch scopes. A store may notify a scope more often than strictly
// necessary (for example when a deletion cannot be attributed to one
// parent); listeners re-query, so spurious wakeups are only extra reads.
func ScopePosts() string                        { return "posts" }
func ScopePost(postID uuid.UUID) string         { return "posts/" + postID.String() }
func ScopePostLikes(postID uuid.UUID) string    { return "posts/" + postID.String() + "/likes" }
func ScopePostComments(postID uuid.UUID) string { return "posts/" + postID.String() + "/comments" }
func ScopeBookmarks(userID uuid.UUID) string    { return "users/" + userID.String() + "/bookmarks" }
func ScopeFollowers(userID uuid.UUID) string    { return "users/" + userID.String() + "/followers" }
func ScopeFollowing(userID uuid.UUID) string    { return "users/" + userID.String() + "/following" }
func ScopeUsers() string                        { return "users" }
func ScopeNotifications(receiverID uuid.UUID) string {
	return "notifications/" + receiverID.String()
}
