package feed

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookmarkSaveAndRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	require.NoError(t, env.services.Bookmarks.Save(ctx, viewer.ID, post.ID))

	saved, err := env.services.Bookmarks.IsSaved(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	// Saving twice is idempotent.
	require.NoError(t, env.services.Bookmarks.Save(ctx, viewer.ID, post.ID))
	ids, err := env.services.Bookmarks.List(ctx, viewer.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{post.ID}, ids)

	require.NoError(t, env.services.Bookmarks.Remove(ctx, viewer.ID, post.ID))
	saved, err = env.services.Bookmarks.IsSaved(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	// Removing again is idempotent too.
	require.NoError(t, env.services.Bookmarks.Remove(ctx, viewer.ID, post.ID))
}

func TestBookmarkIsPrivatePerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	post := env.seedPost(t, author)

	require.NoError(t, env.services.Bookmarks.Save(ctx, alice.ID, post.ID))

	saved, err := env.services.Bookmarks.IsSaved(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, saved)
}

func TestBookmarkIndependentOfLikeState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	require.NoError(t, env.services.Bookmarks.Save(ctx, viewer.ID, post.ID))

	// Like and unlike; the bookmark is untouched.
	_, _, err := env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)
	_, _, err = env.services.Engagement.ToggleLike(ctx, post.ID, viewer.ID)
	require.NoError(t, err)

	saved, err := env.services.Bookmarks.IsSaved(ctx, viewer.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, saved)
}

func TestListenBookmarksDeliversOnChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	author := env.seedUser(t, "author")
	viewer := env.seedUser(t, "viewer")
	post := env.seedPost(t, author)

	var mu sync.Mutex
	var snapshots [][]uuid.UUID
	cancel, err := env.services.Bookmarks.Listen(ctx, viewer.ID, func(ids []uuid.UUID) {
		mu.Lock()
		snapshots = append(snapshots, ids)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, env.services.Bookmarks.Save(ctx, viewer.ID, post.ID))

	mu.Lock()
	last := snapshots[len(snapshots)-1]
	mu.Unlock()
	assert.Equal(t, []uuid.UUID{post.ID}, last)
}
