package cache

import (
	"testing"
	"time"

	"hellofeed/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(username string) *models.User {
	return &models.User{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: time.Now(),
	}
}

func TestUserCachePutGet(t *testing.T) {
	c := NewUserCache(time.Minute)
	user := newUser("alice")

	_, ok := c.Get(user.ID)
	assert.False(t, ok)

	c.Put(user)
	got, ok := c.Get(user.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, 1, c.Len())
}

func TestUserCacheReturnsCopy(t *testing.T) {
	c := NewUserCache(time.Minute)
	user := newUser("alice")
	c.Put(user)

	got, ok := c.Get(user.ID)
	require.True(t, ok)
	got.Username = "mutated"

	again, ok := c.Get(user.ID)
	require.True(t, ok)
	assert.Equal(t, "alice", again.Username)
}

func TestUserCacheExpiry(t *testing.T) {
	c := NewUserCache(10 * time.Millisecond)
	user := newUser("short-lived")
	c.Put(user)

	_, ok := c.Get(user.ID)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get(user.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestUserCacheInvalidate(t *testing.T) {
	c := NewUserCache(time.Minute)
	user := newUser("gone")
	c.Put(user)

	c.Invalidate(user.ID)
	_, ok := c.Get(user.ID)
	assert.False(t, ok)

	// Invalidating an absent entry is harmless.
	c.Invalidate(uuid.New())
}
