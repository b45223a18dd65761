package feed

import (
	"context"
	"sync"
	"testing"

	"hellofeed/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeFlipsStateAndCounter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	liked, count, err := env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	has, err := env.services.Engagement.HasLiked(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.True(t, has)

	liked, count, err = env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	has, err = env.services.Engagement.HasLiked(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestToggleLikeConcurrentUsersNoDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	post := env.seedPost(t, author)

	const numUsers = 25
	users := make([]uuid.UUID, numUsers)
	for i := range users {
		users[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for _, userID := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := env.store.ToggleLike(ctx, post.ID, id)
			assert.NoError(t, err)
		}(userID)
	}
	wg.Wait()

	count, err := env.services.Engagement.LikeCount(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, numUsers, count)

	// Everyone toggles back off concurrently.
	for _, userID := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := env.store.ToggleLike(ctx, post.ID, id)
			assert.NoError(t, err)
		}(userID)
	}
	wg.Wait()

	count, err = env.services.Engagement.LikeCount(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestToggleLikeNotifiesOnlyOnLikeTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	_, _, err := env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, author.ID, events[0].ReceiverID)
	assert.Equal(t, viewer.ID, events[0].SenderID)
	assert.Equal(t, models.NotificationLike, events[0].Type)
	require.NotNil(t, events[0].PostID)
	assert.Equal(t, post.ID, *events[0].PostID)

	// Unliking fans out nothing.
	_, _, err = env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.Len(t, env.notifier.Events(), 1)

	// Liking again is a fresh transition.
	_, _, err = env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	assert.Len(t, env.notifier.Events(), 2)
}

func TestToggleLikeOwnPostDoesNotNotify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	post := env.seedPost(t, author)

	liked, _, err := env.services.Engagement.ToggleLike(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Empty(t, env.notifier.Events())
}

func TestToggleLikeVanishedPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	viewer := env.seedUser(t, "viewer")

	_, _, err := env.services.Engagement.ToggleLike(ctx, uuid.New(), viewer.ID)
	require.Error(t, err)
	assert.Empty(t, env.notifier.Events())
}

func TestToggleLikeUnauthenticatedIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	post := env.seedPost(t, author)

	liked, count, err := env.services.Engagement.ToggleLike(ctx, post.ID, uuid.Nil)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	stored, err := env.store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LikeCount)
}

func TestListenToPostLikesDeliversSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	var mu sync.Mutex
	type snap struct {
		count int
		liked bool
	}
	var snapshots []snap

	cancel, err := env.services.Engagement.ListenToPostLikes(ctx, post.ID, viewer.ID, func(count int, liked bool) {
		mu.Lock()
		snapshots = append(snapshots, snap{count, liked})
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	// Initial snapshot arrives synchronously.
	mu.Lock()
	require.NotEmpty(t, snapshots)
	assert.Equal(t, snap{0, false}, snapshots[0])
	mu.Unlock()

	_, _, err = env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)

	mu.Lock()
	last := snapshots[len(snapshots)-1]
	mu.Unlock()
	assert.Equal(t, snap{1, true}, last)

	// After cancel, no further deliveries.
	cancel()
	mu.Lock()
	delivered := len(snapshots)
	mu.Unlock()

	_, _, err = env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, delivered, len(snapshots))
	mu.Unlock()
}

func TestListenToPostLikesUnauthenticatedViewer(t *testing.T) {
	env := newTestEnv(t)

	called := 0
	cancel, err := env.services.Engagement.ListenToPostLikes(context.Background(), uuid.New(), uuid.Nil, func(count int, liked bool) {
		called++
		assert.Equal(t, 0, count)
		assert.False(t, liked)
	})
	require.NoError(t, err)
	defer cancel()
	assert.Equal(t, 1, called)
}
