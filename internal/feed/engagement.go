// internal/feed/engagement.go
package feed

import (
	"context"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// EngagementService owns the like ledger: the per-post like subcollection
// plus the denormalized counter on the post document.
type EngagementService struct {
	store    store.Store
	notifier Notifier
	metrics  *utils.MetricsCollector
}

func NewEngagementService(st store.Store, notifier Notifier, metrics *utils.MetricsCollector) *EngagementService {
	return &EngagementService{
		store:    st,
		notifier: notifier,
		metrics:  metrics,
	}
}

// ToggleLike flips the acting user's like on a post. The store transaction
// serializes the read-then-write pair against concurrent togglers, so the
// counter never drifts from the number of like records. Returns the new
// liked state and counter value. Without an authenticated actor the call is
// a silent no-op.
func (s *EngagementService) ToggleLike(ctx context.Context, postID, actorID uuid.UUID) (bool, int, error) {
	if actorID == uuid.Nil {
		return false, 0, nil
	}
	startTime := time.Now()

	// The post owner is needed for the fan-out; the toggle transaction
	// re-checks existence itself, so a vanished post still aborts cleanly.
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return false, 0, err
	}

	liked, newCount, err := s.store.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return false, 0, err
	}

	// Fan out only on the false->true transition, and never to yourself.
	if liked && s.notifier != nil && post.AuthorID != actorID {
		pid := postID
		s.notifier.Notify(post.AuthorID, actorID, models.NotificationLike, &pid, nil)
	}

	s.metrics.AddOperationLatency("toggle_like", time.Since(startTime))
	return liked, newCount, nil
}

// HasLiked reports whether the viewer currently likes the post.
func (s *EngagementService) HasLiked(ctx context.Context, postID, viewerID uuid.UUID) (bool, error) {
	if viewerID == uuid.Nil {
		return false, nil
	}
	return s.store.HasLiked(ctx, postID, viewerID)
}

// LikeCount reads the denormalized counter off the post document.
func (s *EngagementService) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrPostNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return post.LikeCount, nil
}

// ListenToPostLikes delivers the current like count and the viewer's liked
// state, once immediately and again on every change, until the returned
// cancel func runs. An unauthenticated viewer gets a single (0, false).
func (s *EngagementService) ListenToPostLikes(ctx context.Context, postID, viewerID uuid.UUID, fn func(count int, liked bool)) (func(), error) {
	if viewerID == uuid.Nil {
		fn(0, false)
		return func() {}, nil
	}

	snapshot := func() {
		count := 0
		if post, err := s.store.GetPost(ctx, postID); err == nil {
			count = post.LikeCount
		}
		liked, _ := s.store.HasLiked(ctx, postID, viewerID)
		fn(count, liked)
	}

	cancelLikes, err := s.store.Watch(ctx, store.ScopePostLikes(postID), snapshot)
	if err != nil {
		return nil, err
	}
	cancelPost, err := s.store.Watch(ctx, store.ScopePost(postID), snapshot)
	if err != nil {
		cancelLikes()
		return nil, err
	}

	snapshot()
	return func() {
		cancelLikes()
		cancelPost()
	}, nil
}
