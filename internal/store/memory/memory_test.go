package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"hellofeed/internal/models"
	"hellofeed/internal/store"
	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPost(t *testing.T, st *MemoryStore, authorID uuid.UUID) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:        uuid.New(),
		AuthorID:  authorID,
		ImageURL:  "https://cdn.test/img.jpg",
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.SavePost(context.Background(), post))
	return post
}

func TestToggleLikeVanishedPostHasNoSideEffects(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	_, _, err := st.ToggleLike(ctx, uuid.New(), userID)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	// The aborted toggle must not have left a like record behind that a
	// later post with the same id would inherit.
	post := seedPost(t, st, uuid.New())
	liked, err := st.HasLiked(ctx, post.ID, userID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestToggleLikeKeepsRecordAndCounterInStep(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	post := seedPost(t, st, uuid.New())

	const togglers = 20
	var wg sync.WaitGroup
	for i := 0; i < togglers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := st.ToggleLike(ctx, post.ID, uuid.New())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := st.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, togglers, got.LikeCount)

	likers, err := st.ListPostLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, likers, togglers)
}

func TestSetFollowReportsChanged(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	follower := uuid.New()
	target := uuid.New()

	changed, err := st.SetFollow(ctx, follower, target, true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = st.SetFollow(ctx, follower, target, true)
	require.NoError(t, err)
	assert.False(t, changed)

	// Both mirrored sides of the edge exist.
	followers, err := st.ListFollowers(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{follower}, followers)
	following, err := st.ListFollowing(ctx, follower)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{target}, following)

	changed, err = st.SetFollow(ctx, follower, target, false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = st.SetFollow(ctx, follower, target, false)
	require.NoError(t, err)
	assert.False(t, changed)

	followers, err = st.ListFollowers(ctx, target)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestCommentOwnershipPredicates(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	author := uuid.New()
	stranger := uuid.New()
	post := seedPost(t, st, uuid.New())

	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    post.ID,
		AuthorID:  author,
		Text:      "first",
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.SaveComment(ctx, comment))

	ok, err := st.UpdateComment(ctx, post.ID, comment.ID, stranger, "hijacked")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.DeleteComment(ctx, post.ID, comment.ID, stranger)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetComment(ctx, post.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Text)

	ok, err = st.UpdateComment(ctx, post.ID, comment.ID, author, "edited")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.DeleteComment(ctx, post.ID, comment.ID, author)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPostOwnershipPredicates(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	author := uuid.New()
	stranger := uuid.New()
	post := seedPost(t, st, author)

	ok, err := st.UpdatePostCaption(ctx, post.ID, stranger, "hijacked")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.DeletePost(ctx, post.ID, stranger)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = st.GetPost(ctx, post.ID)
	require.NoError(t, err)

	ok, err = st.DeletePost(ctx, post.ID, author)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListNotificationsNewestFirst(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	receiver := uuid.New()

	base := time.Now()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			ID:         uuid.New(),
			ReceiverID: receiver,
			SenderID:   uuid.New(),
			Type:       models.NotificationLike,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.SaveNotification(ctx, n))
		ids = append(ids, n.ID)
	}

	records, err := st.ListNotifications(ctx, receiver, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ids[2], records[0].ID)
	assert.Equal(t, ids[1], records[1].ID)
}

func TestWatchDeliversAndCancels(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	post := seedPost(t, st, uuid.New())

	var mu sync.Mutex
	fired := 0
	cancel, err := st.Watch(ctx, store.ScopePostLikes(post.ID), func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)

	_, _, err = st.ToggleLike(ctx, post.ID, uuid.New())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, 1, fired)
	mu.Unlock()

	cancel()
	cancel() // safe to call twice

	_, _, err = st.ToggleLike(ctx, post.ID, uuid.New())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, 1, fired)
	mu.Unlock()
}

func TestWatchContextCancelTearsDown(t *testing.T) {
	st := NewMemoryStore()
	post := seedPost(t, st, uuid.New())

	watchCtx, stop := context.WithCancel(context.Background())
	var mu sync.Mutex
	fired := 0
	_, err := st.Watch(watchCtx, store.ScopePostLikes(post.ID), func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)

	stop()
	// Teardown happens on a goroutine watching ctx.Done(); poll until a
	// mutation no longer reaches the callback.
	require.Eventually(t, func() bool {
		mu.Lock()
		before := fired
		mu.Unlock()
		_, _, err := st.ToggleLike(context.Background(), post.ID, uuid.New())
		require.NoError(t, err)
		mu.Lock()
		defer mu.Unlock()
		return fired == before
	}, time.Second, 20*time.Millisecond)
}

func TestWatchScopesAreIsolated(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	postA := seedPost(t, st, uuid.New())
	postB := seedPost(t, st, uuid.New())

	var mu sync.Mutex
	fired := 0
	cancel, err := st.Watch(ctx, store.ScopePostLikes(postA.ID), func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	_, _, err = st.ToggleLike(ctx, postB.ID, uuid.New())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, 0, fired)
	mu.Unlock()
}
