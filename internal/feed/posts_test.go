package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostRequiresImage(t *testing.T) {
	env := newTestEnv(t)

	author := env.seedUser(t, "author")
	_, err := env.services.Posts.Create(context.Background(), author.ID, "", "no image")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestCreatePostDenormalizesAuthor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "shutterbug")
	post := env.seedPost(t, author)

	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "shutterbug", post.AuthorUsername)

	stored, err := env.store.GetUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Posts)
}

func TestFeedPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		post := &models.Post{
			ID:        uuid.New(),
			AuthorID:  author.ID,
			ImageURL:  "https://cdn.test/img.jpg",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, env.store.SavePost(ctx, post))
		ids = append(ids, post.ID)
	}

	// Newest first, truncated to limit.
	page, err := env.services.Posts.Feed(ctx, 2, time.Time{})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	// The cursor is exclusive: only posts created strictly before it.
	next, err := env.services.Posts.Feed(ctx, 2, page[1].CreatedAt)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, ids[0], next[0].ID)
}

func TestDeletePostCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	_, _, err := env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	_, err = env.services.Comments.Add(ctx, post.ID, viewer.ID, viewer.Username, "gone soon")
	require.NoError(t, err)

	require.NoError(t, env.services.Posts.Delete(ctx, post.ID, author.ID))

	_, err = env.services.Posts.Get(ctx, post.ID)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	comments, err := env.store.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	has, err := env.store.HasLiked(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, has)

	stored, err := env.store.GetUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Posts)
}

func TestDeletePostNonOwnerIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	stranger := env.seedUser(t, "stranger")
	post := env.seedPost(t, author)

	_, err := env.services.Comments.Add(ctx, post.ID, author.ID, author.Username, "keep me")
	require.NoError(t, err)

	require.NoError(t, env.services.Posts.Delete(ctx, post.ID, stranger.ID))

	// Post and its subcollections survive.
	_, err = env.services.Posts.Get(ctx, post.ID)
	require.NoError(t, err)
	comments, err := env.store.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 1)
}

func TestDeleteVanishedPostIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	author := env.seedUser(t, "author")
	require.NoError(t, env.services.Posts.Delete(context.Background(), uuid.New(), author.ID))
}

func TestEditCaptionOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	stranger := env.seedUser(t, "stranger")
	post := env.seedPost(t, author)

	require.NoError(t, env.services.Posts.EditCaption(ctx, post.ID, stranger.ID, "defaced"))
	stored, err := env.services.Posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Caption)

	require.NoError(t, env.services.Posts.EditCaption(ctx, post.ID, author.ID, "  updated  "))
	stored, err = env.services.Posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", stored.Caption)
}

func TestListenFeedDeliversOnChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")

	var mu sync.Mutex
	var snapshots [][]*models.Post
	cancel, err := env.services.Posts.ListenFeed(ctx, 10, func(posts []*models.Post) {
		mu.Lock()
		snapshots = append(snapshots, posts)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	mu.Lock()
	require.NotEmpty(t, snapshots)
	assert.Empty(t, snapshots[0])
	mu.Unlock()

	post := env.seedPost(t, author)

	mu.Lock()
	last := snapshots[len(snapshots)-1]
	mu.Unlock()
	require.Len(t, last, 1)
	assert.Equal(t, post.ID, last[0].ID)
}
