// internal/feed/comments.go
package feed

import (
	"context"
	"strings"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
)

// CommentService owns the per-post comment subcollection. The live
// subscription's result-set size is the authoritative comment count; the
// denormalized counter on the post document is legacy and maintained
// best-effort for feed cells that still render it.
type CommentService struct {
	store    store.Store
	notifier Notifier
	metrics  *utils.MetricsCollector
}

func NewCommentService(st store.Store, notifier Notifier, metrics *utils.MetricsCollector) *CommentService {
	return &CommentService{
		store:    st,
		notifier: notifier,
		metrics:  metrics,
	}
}

// Add appends a comment. Empty or whitespace-only text is rejected; the
// timestamp is stamped here (server side) so the ascending order the screen
// renders is stable. Without an authenticated actor the call is a silent
// no-op.
func (s *CommentService) Add(ctx context.Context, postID, actorID uuid.UUID, actorUsername, text string) (*models.Comment, error) {
	if actorID == uuid.Nil {
		return nil, nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "comment text is empty", nil)
	}
	startTime := time.Now()

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	comment := &models.Comment{
		ID:             uuid.New(),
		PostID:         postID,
		AuthorID:       actorID,
		AuthorUsername: actorUsername,
		Text:           text,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.SaveComment(ctx, comment); err != nil {
		return nil, err
	}

	// Legacy counter; not transactional with the append, matching the two
	// independent writes the mobile client issued.
	_ = s.store.AdjustPostCommentCount(ctx, postID, 1)

	if s.notifier != nil && post.AuthorID != actorID {
		pid := postID
		cid := comment.ID
		s.notifier.Notify(post.AuthorID, actorID, models.NotificationComment, &pid, &cid)
	}

	s.metrics.AddOperationLatency("add_comment", time.Since(startTime))
	return comment, nil
}

// Edit replaces the comment text. The author predicate runs atomically with
// the update inside the store; a non-author request reports (false, nil)
// and changes nothing.
func (s *CommentService) Edit(ctx context.Context, postID, commentID, requesterID uuid.UUID, text string) (bool, error) {
	if requesterID == uuid.Nil {
		return false, nil
	}
	if strings.TrimSpace(text) == "" {
		return false, utils.NewAppError(utils.ErrInvalidInput, "comment text is empty", nil)
	}
	return s.store.UpdateComment(ctx, postID, commentID, requesterID, text)
}

// Delete removes the comment under the same atomic author predicate and
// walks the legacy counter back on success.
func (s *CommentService) Delete(ctx context.Context, postID, commentID, requesterID uuid.UUID) (bool, error) {
	if requesterID == uuid.Nil {
		return false, nil
	}

	deleted, err := s.store.DeleteComment(ctx, postID, commentID, requesterID)
	if err != nil {
		return false, err
	}
	if deleted {
		_ = s.store.AdjustPostCommentCount(ctx, postID, -1)
	}
	return deleted, nil
}

// List returns a post's comments oldest first.
func (s *CommentService) List(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	return s.store.ListComments(ctx, postID)
}

// Listen delivers the full comment list, oldest first, once immediately and
// again on every change.
func (s *CommentService) Listen(ctx context.Context, postID uuid.UUID, fn func([]*models.Comment)) (func(), error) {
	snapshot := func() {
		comments, err := s.store.ListComments(ctx, postID)
		if err != nil {
			return
		}
		fn(comments)
	}

	cancel, err := s.store.Watch(ctx, store.ScopePostComments(postID), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}

// ListenCount delivers the live comment count: the snapshot's cardinality,
// which supersedes the denormalized counter.
func (s *CommentService) ListenCount(ctx context.Context, postID uuid.UUID, fn func(int)) (func(), error) {
	snapshot := func() {
		comments, err := s.store.ListComments(ctx, postID)
		if err != nil {
			return
		}
		fn(len(comments))
	}

	cancel, err := s.store.Watch(ctx, store.ScopePostComments(postID), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}
