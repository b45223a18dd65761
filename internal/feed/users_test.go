package feed

import (
	"context"
	"testing"

	"hellofeed/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.services.Users.CreateProfile(ctx, uuid.Nil, "anon", "", "anon@test.com")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUnauthorized))

	_, err = env.services.Users.CreateProfile(ctx, uuid.New(), "   ", "", "blank@test.com")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestCreateProfileTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := uuid.New()

	user, err := env.services.Users.CreateProfile(ctx, id, "alice", "Alice A", "alice@test.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = env.services.Users.CreateProfile(ctx, id, "alice2", "", "alice@test.com")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))
}

func TestGetProfileCacheAside(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded := env.seedUser(t, "cached")

	// First read fills the cache from the store.
	got, err := env.services.Users.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Username)

	// A write that bypasses the service is invisible until invalidation;
	// the second read is served from the cache.
	seeded.Username = "renamed-behind-cache"
	require.NoError(t, env.store.SaveUser(ctx, seeded))

	got, err = env.services.Users.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "cached", got.Username)
}

func TestUpdateProfileAppliesPartialFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "editme")
	bio := "hello there"
	name := "  Edit Me  "

	updated, err := env.services.Users.Update(ctx, user.ID, UpdateProfileRequest{
		FullName: &name,
		Bio:      &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "editme", updated.Username)
	assert.Equal(t, "Edit Me", updated.FullName)
	assert.Equal(t, "hello there", updated.Bio)

	empty := "  "
	_, err = env.services.Users.Update(ctx, user.ID, UpdateProfileRequest{Username: &empty})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestUpdateProfileInvalidatesCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "old-name")
	_, err := env.services.Users.Get(ctx, user.ID) // prime the cache
	require.NoError(t, err)

	newName := "new-name"
	_, err = env.services.Users.Update(ctx, user.ID, UpdateProfileRequest{Username: &newName})
	require.NoError(t, err)

	got, err := env.services.Users.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-name", got.Username)
}

func TestDeleteUserCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, "leaver")
	fan := env.seedUser(t, "fan")
	idol := env.seedUser(t, "idol")
	post := env.seedPost(t, user)

	_, err := env.services.Comments.Add(ctx, post.ID, fan.ID, "fan", "nice shot")
	require.NoError(t, err)
	require.NoError(t, env.services.Follows.Follow(ctx, fan.ID, user.ID))
	require.NoError(t, env.services.Follows.Follow(ctx, user.ID, idol.ID))

	require.NoError(t, env.services.Users.Delete(ctx, user.ID))

	_, err = env.services.Users.Get(ctx, user.ID)
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))

	_, err = env.services.Posts.Get(ctx, post.ID)
	require.Error(t, err)

	following, err := env.services.Follows.IsFollowing(ctx, fan.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err := env.services.Follows.Followers(ctx, idol.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
}

func TestDeleteUnauthenticatedUserIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.services.Users.Delete(context.Background(), uuid.Nil))
}
