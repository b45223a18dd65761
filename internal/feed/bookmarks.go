// internal/feed/bookmarks.go
package feed

import (
	"context"
	"time"

	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// BookmarkService owns the per-user saved-post set. Bookmarks live under
// the saving user's namespace with a lifecycle independent of the post's
// like state, and no counter is denormalized anywhere: the count is the
// snapshot's cardinality.
type BookmarkService struct {
	store   store.Store
	metrics *utils.MetricsCollector
}

func NewBookmarkService(st store.Store, metrics *utils.MetricsCollector) *BookmarkService {
	return &BookmarkService{
		store:   st,
		metrics: metrics,
	}
}

// Save marks the post as saved for the actor. Idempotent; a silent no-op
// without an authenticated actor.
func (s *BookmarkService) Save(ctx context.Context, actorID, postID uuid.UUID) error {
	if actorID == uuid.Nil {
		return nil
	}
	startTime := time.Now()
	err := s.store.SaveBookmark(ctx, actorID, postID)
	s.metrics.AddOperationLatency("save_bookmark", time.Since(startTime))
	return err
}

// Remove unsaves the post. Idempotent.
func (s *BookmarkService) Remove(ctx context.Context, actorID, postID uuid.UUID) error {
	if actorID == uuid.Nil {
		return nil
	}
	return s.store.DeleteBookmark(ctx, actorID, postID)
}

// IsSaved is a point read of the actor's bookmark record.
func (s *BookmarkService) IsSaved(ctx context.Context, actorID, postID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil {
		return false, nil
	}
	return s.store.HasBookmark(ctx, actorID, postID)
}

// List returns the actor's current saved-post-id set.
func (s *BookmarkService) List(ctx context.Context, actorID uuid.UUID) ([]uuid.UUID, error) {
	if actorID == uuid.Nil {
		return nil, nil
	}
	return s.store.ListBookmarks(ctx, actorID)
}

// Listen streams the full saved-post-id set whenever it changes.
func (s *BookmarkService) Listen(ctx context.Context, actorID uuid.UUID, fn func([]uuid.UUID)) (func(), error) {
	if actorID == uuid.Nil {
		return func() {}, nil
	}

	snapshot := func() {
		ids, err := s.store.ListBookmarks(ctx, actorID)
		if err != nil {
			return
		}
		fn(ids)
	}

	cancel, err := s.store.Watch(ctx, store.ScopeBookmarks(actorID), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}
