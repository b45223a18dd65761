// internal/feed/follows.go
package feed

import (
	"context"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// FollowService owns the follow graph. The store holds each relation as a
// single logical edge, so Follow and Unfollow cannot strand a half-applied
// mirror record the way independent dual writes could.
type FollowService struct {
	store    store.Store
	notifier Notifier
	metrics  *utils.MetricsCollector
}

func NewFollowService(st store.Store, notifier Notifier, metrics *utils.MetricsCollector) *FollowService {
	return &FollowService{
		store:    st,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Follow creates the edge actor->target. Idempotent; the target is notified
// only when the edge is newly created. Self-follows and unauthenticated
// calls are silent no-ops.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == uuid.Nil || actorID == targetID {
		return nil
	}
	startTime := time.Now()

	changed, err := s.store.SetFollow(ctx, actorID, targetID, true)
	if err != nil {
		return err
	}
	if changed && s.notifier != nil {
		s.notifier.Notify(targetID, actorID, models.NotificationFollow, nil, nil)
	}

	s.metrics.AddOperationLatency("follow", time.Since(startTime))
	return nil
}

// Unfollow destroys the edge. Idempotent.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == uuid.Nil {
		return nil
	}
	_, err := s.store.SetFollow(ctx, actorID, targetID, false)
	return err
}

// IsFollowing is a point read of the actor's side of the edge.
func (s *FollowService) IsFollowing(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil {
		return false, nil
	}
	return s.store.HasFollowing(ctx, actorID, targetID)
}

// Followers returns who follows userID.
func (s *FollowService) Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.store.ListFollowers(ctx, userID)
}

// Following returns who userID follows.
func (s *FollowService) Following(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.store.ListFollowing(ctx, userID)
}

// FollowerCount and FollowingCount are subscription-cardinality counts
// taken as one-shot reads.
func (s *FollowService) FollowerCount(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.store.ListFollowers(ctx, userID)
	return len(ids), err
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uuid.UUID) (int, error) {
	ids, err := s.store.ListFollowing(ctx, userID)
	return len(ids), err
}

// ListenFollowers streams the full follower-id set whenever it changes.
func (s *FollowService) ListenFollowers(ctx context.Context, userID uuid.UUID, fn func([]uuid.UUID)) (func(), error) {
	return s.listenEdgeSide(ctx, store.ScopeFollowers(userID), fn, func() ([]uuid.UUID, error) {
		return s.store.ListFollowers(ctx, userID)
	})
}

// ListenFollowing streams the full following-id set whenever it changes.
func (s *FollowService) ListenFollowing(ctx context.Context, userID uuid.UUID, fn func([]uuid.UUID)) (func(), error) {
	return s.listenEdgeSide(ctx, store.ScopeFollowing(userID), fn, func() ([]uuid.UUID, error) {
		return s.store.ListFollowing(ctx, userID)
	})
}

func (s *FollowService) listenEdgeSide(ctx context.Context, scope string, fn func([]uuid.UUID), list func() ([]uuid.UUID, error)) (func(), error) {
	snapshot := func() {
		ids, err := list()
		if err != nil {
			return
		}
		fn(ids)
	}

	cancel, err := s.store.Watch(ctx, scope, snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}
