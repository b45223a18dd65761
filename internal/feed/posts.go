// internal/feed/posts.go
package feed

import (
	"context"
	"strings"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultFeedLimit is the page size used when a caller doesn't pass one.
const DefaultFeedLimit = 20

// PostService owns the post documents and their cascade lifecycle. The
// like and comment subcollections hang off each post, so deleting a post
// also sweeps them.
type PostService struct {
	store   store.Store
	metrics *utils.MetricsCollector
}

func NewPostService(st store.Store, metrics *utils.MetricsCollector) *PostService {
	return &PostService{
		store:   st,
		metrics: metrics,
	}
}

// Create publishes a new post. The author's username is denormalized onto
// the document, and the author's post counter is bumped best-effort.
func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, imageURL, caption string) (*models.Post, error) {
	if authorID == uuid.Nil {
		return nil, nil
	}
	if imageURL == "" {
		return nil, utils.NewAppError(utils.ErrInvalidInput, "post requires an image", nil)
	}
	startTime := time.Now()

	author, err := s.store.GetUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	post := &models.Post{
		ID:             uuid.New(),
		AuthorID:       authorID,
		AuthorUsername: author.Username,
		ImageURL:       imageURL,
		Caption:        strings.TrimSpace(caption),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, err
	}

	// Counter drift here is tolerated: the profile's live post count comes
	// from listing, the counter is display-only.
	_ = s.store.AdjustUserPostCount(ctx, authorID, 1)

	s.metrics.AddOperationLatency("create_post", time.Since(startTime))
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	return s.store.GetPost(ctx, postID)
}

// Feed returns the global feed page: newest first, at most limit posts
// created strictly before the cursor. A zero cursor means "from the top".
func (s *PostService) Feed(ctx context.Context, limit int, before time.Time) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	startTime := time.Now()
	posts, err := s.store.ListPosts(ctx, limit, before)
	if err != nil {
		return nil, err
	}
	s.metrics.AddOperationLatency("feed", time.Since(startTime))
	return posts, nil
}

// UserPosts returns one author's posts, newest first.
func (s *PostService) UserPosts(ctx context.Context, authorID uuid.UUID) ([]*models.Post, error) {
	return s.store.ListUserPosts(ctx, authorID)
}

// EditCaption rewrites the caption. The ownership predicate runs inside
// the store mutation; an edit by anyone but the author changes nothing.
func (s *PostService) EditCaption(ctx context.Context, postID, requesterID uuid.UUID, caption string) error {
	if requesterID == uuid.Nil {
		return nil
	}
	_, err := s.store.UpdatePostCaption(ctx, postID, requesterID, strings.TrimSpace(caption))
	return err
}

// Delete removes a post and everything hanging off it. The subcollection
// sweeps run concurrently, then the post document itself goes with the
// ownership predicate in the filter. A non-owner request is a no-op and
// leaves the subcollections untouched.
func (s *PostService) Delete(ctx context.Context, postID, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return nil
	}
	startTime := time.Now()

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if utils.IsErrorCode(err, utils.ErrPostNotFound) {
			return nil
		}
		return err
	}
	if post.AuthorID != requesterID {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.store.DeletePostLikes(gctx, postID) })
	g.Go(func() error { return s.store.DeletePostComments(gctx, postID) })
	if err := g.Wait(); err != nil {
		return err
	}

	deleted, err := s.store.DeletePost(ctx, postID, requesterID)
	if err != nil {
		return err
	}
	if deleted {
		_ = s.store.AdjustUserPostCount(ctx, requesterID, -1)
	}

	s.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	return nil
}

// ListenFeed delivers the feed page, once immediately and again on every
// post change. Deletions can't always be attributed to one author, so the
// watch scope is the whole post collection; listeners just re-read.
func (s *PostService) ListenFeed(ctx context.Context, limit int, fn func([]*models.Post)) (func(), error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	snapshot := func() {
		posts, err := s.store.ListPosts(ctx, limit, time.Time{})
		if err != nil {
			return
		}
		fn(posts)
	}

	cancel, err := s.store.Watch(ctx, store.ScopePosts(), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}

// ListenUserPosts delivers one author's posts on every post change.
func (s *PostService) ListenUserPosts(ctx context.Context, authorID uuid.UUID, fn func([]*models.Post)) (func(), error) {
	if authorID == uuid.Nil {
		fn(nil)
		return func() {}, nil
	}

	snapshot := func() {
		posts, err := s.store.ListUserPosts(ctx, authorID)
		if err != nil {
			return
		}
		fn(posts)
	}

	cancel, err := s.store.Watch(ctx, store.ScopePosts(), snapshot)
	if err != nil {
		return nil, err
	}
	snapshot()
	return cancel, nil
}
